// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stats derives the aggregate report from a record snapshot.
// Every function here is pure: no I/O, no shared state, deterministic output.
package stats

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/pdiddy/kol-analytics/internal/store"
	"github.com/pdiddy/kol-analytics/pkg/types"
)

// Options tunes Summarize.
type Options struct {
	// TopCountries is the length of the country distribution. Zero uses
	// types.DefaultTopCountries.
	TopCountries int
}

// Summarize computes the aggregate report for snap. An empty snapshot
// yields a report with zero counts and means and empty distributions.
func Summarize(snap *store.Snapshot, opts Options) types.AggregateReport {
	topN := opts.TopCountries
	if topN <= 0 {
		topN = types.DefaultTopCountries
	}

	n := snap.Len()
	report := types.AggregateReport{
		TotalRecords:          n,
		TopCountries:          []types.CountryDistribution{},
		ExpertiseDistribution: []types.ExpertiseDistribution{},
	}
	if n == 0 {
		return report
	}

	var sumH, sumCites int
	for i := 0; i < n; i++ {
		r := snap.At(i)
		report.TotalPublications += r.PublicationsCount
		sumCites += r.Citations
		sumH += r.HIndex
	}

	report.MeanHIndex = float64(sumH) / float64(n)
	if report.TotalPublications > 0 {
		report.MeanCitationRatio = float64(sumCites) / float64(report.TotalPublications)
	}

	countries := distribution(snap, func(r types.Record) string { return r.Country })
	report.CountriesRepresented = len(countries)
	if len(countries) > topN {
		countries = countries[:topN]
	}
	for _, c := range countries {
		report.TopCountries = append(report.TopCountries, types.CountryDistribution{
			Country:    c.key,
			Count:      c.count,
			Percentage: percentage(c.count, n),
		})
	}

	for _, e := range distribution(snap, func(r types.Record) string { return r.ExpertiseArea }) {
		report.ExpertiseDistribution = append(report.ExpertiseDistribution, types.ExpertiseDistribution{
			ExpertiseArea: e.key,
			Count:         e.count,
			Percentage:    percentage(e.count, n),
		})
	}

	report.TopCitationRatio = topCitationRatio(snap, report.MeanCitationRatio)
	return report
}

type bucket struct {
	key   string
	count int
}

// distribution counts records per key, ordered by count descending then
// key ascending.
func distribution(snap *store.Snapshot, key func(types.Record) string) []bucket {
	counts := make(map[string]int)
	for i := 0; i < snap.Len(); i++ {
		counts[key(snap.At(i))]++
	}

	out := make([]bucket, 0, len(counts))
	for k, c := range counts {
		out = append(out, bucket{key: k, count: c})
	}
	slices.SortFunc(out, func(a, b bucket) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})
	return out
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// topCitationRatio picks the record with the highest citations per
// publication. Records without publications are skipped. Ties go to the
// smallest identifier.
func topCitationRatio(snap *store.Snapshot, mean float64) *types.TopCitationRatio {
	var (
		best  types.Record
		ratio float64
		found bool
	)
	for i := 0; i < snap.Len(); i++ {
		r := snap.At(i)
		rr, ok := r.CitationRatio()
		if !ok {
			continue
		}
		if !found || rr > ratio || (rr == ratio && CompareIDs(r.ID, best.ID) < 0) {
			best, ratio, found = r, rr, true
		}
	}
	if !found {
		return nil
	}

	top := &types.TopCitationRatio{Record: best, Ratio: ratio}
	if mean > 0 {
		top.PercentageAboveAverage = (ratio - mean) / mean * 100
	}
	return top
}

// CompareIDs orders identifiers numerically when both parse as integers
// and lexically otherwise.
func CompareIDs(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	if aErr == nil && bErr == nil {
		return cmp.Compare(ai, bi)
	}
	return cmp.Compare(a, b)
}

// Countries returns the sorted distinct countries in snap.
func Countries(snap *store.Snapshot) []string {
	return distinct(snap, func(r types.Record) string { return r.Country })
}

// ExpertiseAreas returns the sorted distinct expertise areas in snap.
func ExpertiseAreas(snap *store.Snapshot) []string {
	return distinct(snap, func(r types.Record) string { return r.ExpertiseArea })
}

func distinct(snap *store.Snapshot, key func(types.Record) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for i := 0; i < snap.Len(); i++ {
		k := key(snap.At(i))
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
