// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// All is the sentinel value for the country and expertise filters meaning
// "no restriction".
const All = "all"

// SortField names the record field a query result is ordered by.
type SortField string

const (
	SortByName         SortField = "name"
	SortByCountry      SortField = "country"
	SortByPublications SortField = "publicationsCount"
	SortByCitations    SortField = "citations"
	SortByHIndex       SortField = "hIndex"
)

// SortFields lists every accepted sort field.
var SortFields = []SortField{SortByName, SortByCountry, SortByPublications, SortByCitations, SortByHIndex}

// SortOrder is the direction of a sort.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// QuerySpec holds the filter, sort and page parameters of one query.
type QuerySpec struct {
	// Text is matched case-insensitively as a substring of the name or
	// the affiliation.
	Text string `json:"query,omitempty" yaml:"query,omitempty"`

	// Country filters by exact country. Empty or All means no filter.
	Country string `json:"country,omitempty" yaml:"country,omitempty"`

	// ExpertiseArea filters by exact expertise area. Empty or All means no filter.
	ExpertiseArea string `json:"expertiseArea,omitempty" yaml:"expertiseArea,omitempty"`

	// MinHIndex and MaxHIndex bound the h-index inclusively. Nil is unbounded.
	MinHIndex *int `json:"minHIndex,omitempty" yaml:"minHIndex,omitempty"`
	MaxHIndex *int `json:"maxHIndex,omitempty" yaml:"maxHIndex,omitempty"`

	// SortBy defaults to SortByName.
	SortBy SortField `json:"sortBy,omitempty" yaml:"sortBy,omitempty"`

	// Order defaults to Ascending.
	Order SortOrder `json:"order,omitempty" yaml:"order,omitempty"`

	// Page is 1-based; 0 means the first page.
	Page int `json:"page,omitempty" yaml:"page,omitempty"`

	// PageSize of 0 uses the engine default.
	PageSize int `json:"pageSize,omitempty" yaml:"pageSize,omitempty"`
}

// HasText reports whether the free-text fragment is non-blank.
func (q QuerySpec) HasText() bool {
	return strings.TrimSpace(q.Text) != ""
}

// HasCountry reports whether the country filter is set.
func (q QuerySpec) HasCountry() bool {
	return q.Country != "" && q.Country != All
}

// HasExpertiseArea reports whether the expertise filter is set.
func (q QuerySpec) HasExpertiseArea() bool {
	return q.ExpertiseArea != "" && q.ExpertiseArea != All
}

// Page is one page of query results.
type Page struct {
	Records []Record `json:"records" yaml:"records"`

	// TotalMatched counts every record that passed the filters, regardless
	// of pagination.
	TotalMatched int `json:"totalMatched" yaml:"totalMatched"`

	PageNumber int `json:"page" yaml:"page"`
	PageSize   int `json:"pageSize" yaml:"pageSize"`
	TotalPages int `json:"totalPages" yaml:"totalPages"`

	// Paginated is false when filters were active and the full result set
	// was returned.
	Paginated bool `json:"paginated" yaml:"paginated"`
}

// IntPtr returns a pointer to v. Handy for building QuerySpec h-index bounds.
func IntPtr(v int) *int { return &v }
