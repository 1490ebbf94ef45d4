// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/kol-analytics/pkg/types"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// writeStructured writes v as JSON or YAML. It reports false for the table
// format so the caller can render its own table.
func writeStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	case formatTable, "":
		return false, nil
	default:
		return true, fmt.Errorf("unsupported format %q: use table, json or yaml", format)
	}
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func writeRecordTable(w io.Writer, records []types.Record) {
	fmt.Fprintf(w, "%-5s  %-28s  %-20s  %-18s  %6s  %5s  %9s\n",
		"ID", "Name", "Country", "Expertise", "Pubs", "H", "Citations")
	fmt.Fprintln(w, strings.Repeat("-", 104))
	for _, r := range records {
		fmt.Fprintf(w, "%-5s  %-28s  %-20s  %-18s  %6d  %5d  %9d\n",
			truncate(r.ID, 5), truncate(r.Name, 28), truncate(r.Country, 20),
			truncate(r.ExpertiseArea, 18), r.PublicationsCount, r.HIndex, r.Citations)
	}
}

func writeRecordDetail(w io.Writer, r types.Record) {
	fmt.Fprintf(w, "ID:            %s\n", r.ID)
	fmt.Fprintf(w, "Name:          %s\n", r.Name)
	fmt.Fprintf(w, "Affiliation:   %s\n", r.Affiliation)
	location := r.Country
	if r.City != "" {
		location = r.City + ", " + r.Country
	}
	fmt.Fprintf(w, "Location:      %s\n", location)
	fmt.Fprintf(w, "Expertise:     %s\n", r.ExpertiseArea)
	fmt.Fprintf(w, "Publications:  %d\n", r.PublicationsCount)
	fmt.Fprintf(w, "H-index:       %d\n", r.HIndex)
	fmt.Fprintf(w, "Citations:     %d\n", r.Citations)
	if ratio, ok := r.CitationRatio(); ok {
		fmt.Fprintf(w, "Cites/pub:     %.2f\n", ratio)
	}
}

// writeReport renders the aggregate report. Values are rounded here only;
// the report itself carries full precision.
func writeReport(w io.Writer, rep types.AggregateReport) {
	fmt.Fprintf(w, "KOLs:                    %d\n", rep.TotalRecords)
	fmt.Fprintf(w, "Publications:            %d\n", rep.TotalPublications)
	fmt.Fprintf(w, "Countries represented:   %d\n", rep.CountriesRepresented)
	fmt.Fprintf(w, "Mean h-index:            %.1f\n", rep.MeanHIndex)
	fmt.Fprintf(w, "Mean citations/pub:      %.2f\n", rep.MeanCitationRatio)

	if tc := rep.TopCitationRatio; tc != nil {
		fmt.Fprintf(w, "Top citations/pub:       %s (%.2f, %+.1f%% vs mean)\n",
			tc.Record.Name, tc.Ratio, tc.PercentageAboveAverage)
	} else {
		fmt.Fprintf(w, "Top citations/pub:       n/a\n")
	}

	fmt.Fprintf(w, "\nTop countries\n")
	for _, c := range rep.TopCountries {
		fmt.Fprintf(w, "  %-24s  %4d  %5.1f%%\n", truncate(c.Country, 24), c.Count, c.Percentage)
	}

	fmt.Fprintf(w, "\nExpertise areas\n")
	for _, e := range rep.ExpertiseDistribution {
		fmt.Fprintf(w, "  %-24s  %4d  %5.1f%%\n", truncate(e.ExpertiseArea, 24), e.Count, e.Percentage)
	}
}
