// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CountryDistribution is one entry of the geographic distribution.
type CountryDistribution struct {
	Country    string  `json:"country" yaml:"country"`
	Count      int     `json:"count" yaml:"count"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// ExpertiseDistribution is one entry of the expertise-area distribution.
type ExpertiseDistribution struct {
	ExpertiseArea string  `json:"expertiseArea" yaml:"expertiseArea"`
	Count         int     `json:"count" yaml:"count"`
	Percentage    float64 `json:"percentage" yaml:"percentage"`
}

// TopCitationRatio identifies the record with the highest citations per
// publication and how far it sits above the dataset mean.
type TopCitationRatio struct {
	Record Record `json:"kol" yaml:"kol"`

	// Ratio is the record's citations / publications.
	Ratio float64 `json:"ratio" yaml:"ratio"`

	// PercentageAboveAverage is (Ratio - mean) / mean * 100, or 0 when the
	// mean is 0.
	PercentageAboveAverage float64 `json:"percentageAboveAverage" yaml:"percentageAboveAverage"`
}

// AggregateReport holds the dataset-wide statistics consumed by dashboards.
type AggregateReport struct {
	TotalRecords int `json:"totalKOLs" yaml:"totalKOLs"`

	TotalPublications int `json:"totalPublications" yaml:"totalPublications"`

	// CountriesRepresented is the number of distinct countries.
	CountriesRepresented int `json:"countriesRepresented" yaml:"countriesRepresented"`

	MeanHIndex float64 `json:"avgHIndex" yaml:"avgHIndex"`

	// MeanCitationRatio is total citations / total publications, not the
	// mean of per-record ratios.
	MeanCitationRatio float64 `json:"avgCitationsPerPublication" yaml:"avgCitationsPerPublication"`

	// TopCountries is truncated to the configured top N. Percentages are
	// relative to TotalRecords and are not re-normalized after truncation.
	TopCountries []CountryDistribution `json:"topCountries" yaml:"topCountries"`

	// ExpertiseDistribution lists every expertise area.
	ExpertiseDistribution []ExpertiseDistribution `json:"expertiseDistribution" yaml:"expertiseDistribution"`

	// TopCitationRatio is nil when no record has publications.
	TopCitationRatio *TopCitationRatio `json:"topCitationRatioKOL" yaml:"topCitationRatioKOL"`
}

// HealthResponse is the body of the liveness check.
type HealthResponse struct {
	Status     string `json:"status" yaml:"status"`
	Version    string `json:"version" yaml:"version"`
	DataSource string `json:"data_source" yaml:"data_source"`
	TotalKOLs  int    `json:"total_kols" yaml:"total_kols"`
}

// ErrorResponse is the JSON body returned with non-2xx API responses.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Detail     string `json:"detail,omitempty"`
}
