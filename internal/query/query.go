// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query filters, sorts and paginates a record snapshot.
//
// The pipeline is strictly ordered: filter, then stable sort, then
// paginate. Pagination applies only when no filter is active; a filtered
// query returns its complete, sorted result set.
package query

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/pdiddy/kol-analytics/internal/store"
	"github.com/pdiddy/kol-analytics/pkg/types"
)

var (
	// ErrUnknownSortField is returned for a sort field outside types.SortFields.
	ErrUnknownSortField = errors.New("unknown sort field")

	// ErrInvalidOrder is returned for a sort order other than asc or desc.
	ErrInvalidOrder = errors.New("invalid sort order")

	// ErrInvalidPage is returned for a negative page number or page size.
	ErrInvalidPage = errors.New("invalid page specification")
)

// Validate rejects malformed specifications. It never coerces values.
func Validate(spec types.QuerySpec) error {
	if spec.SortBy != "" && !slices.Contains(types.SortFields, spec.SortBy) {
		return fmt.Errorf("%w: %q", ErrUnknownSortField, spec.SortBy)
	}
	switch spec.Order {
	case "", types.Ascending, types.Descending:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrder, spec.Order)
	}
	if spec.Page < 0 {
		return fmt.Errorf("%w: page %d", ErrInvalidPage, spec.Page)
	}
	if spec.PageSize < 0 {
		return fmt.Errorf("%w: page size %d", ErrInvalidPage, spec.PageSize)
	}
	return nil
}

// FiltersActive reports whether spec restricts the result set. The h-index
// range is inactive when it covers [0, snap.MaxHIndex()].
func FiltersActive(spec types.QuerySpec, snap *store.Snapshot) bool {
	if spec.HasText() || spec.HasCountry() || spec.HasExpertiseArea() {
		return true
	}
	if spec.MinHIndex != nil && *spec.MinHIndex > 0 {
		return true
	}
	if spec.MaxHIndex != nil && *spec.MaxHIndex < snap.MaxHIndex() {
		return true
	}
	return false
}

// Run executes spec against snap. defaultPageSize applies when
// spec.PageSize is zero.
func Run(snap *store.Snapshot, spec types.QuerySpec, defaultPageSize int) (types.Page, error) {
	if err := Validate(spec); err != nil {
		return types.Page{}, err
	}

	matched := Filter(snap, spec)
	Sort(matched, spec.SortBy, spec.Order)

	page := types.Page{TotalMatched: len(matched)}
	if FiltersActive(spec, snap) {
		page.Records = matched
		page.PageNumber = 1
		page.PageSize = len(matched)
		page.TotalPages = 1
		return page, nil
	}

	size := spec.PageSize
	if size == 0 {
		size = defaultPageSize
	}
	if size <= 0 {
		size = types.DefaultPageSize
	}
	number := max(spec.Page, 1)

	page.Paginated = true
	page.PageNumber = number
	page.PageSize = size
	page.TotalPages = max((len(matched)+size-1)/size, 1)

	start := (number - 1) * size
	if start >= len(matched) {
		page.Records = []types.Record{}
		return page, nil
	}
	end := min(start+size, len(matched))
	page.Records = matched[start:end]
	return page, nil
}

// Filter returns the records of snap that pass every criterion of spec,
// in load order. Free text is OR-matched over name and affiliation; all
// other criteria are AND-combined. Sort and page fields are ignored.
func Filter(snap *store.Snapshot, spec types.QuerySpec) []types.Record {
	text := strings.ToLower(strings.TrimSpace(spec.Text))
	out := []types.Record{}

	if spec.MinHIndex != nil && spec.MaxHIndex != nil && *spec.MinHIndex > *spec.MaxHIndex {
		return out
	}

	for i := 0; i < snap.Len(); i++ {
		r := snap.At(i)
		if text != "" &&
			!strings.Contains(strings.ToLower(r.Name), text) &&
			!strings.Contains(strings.ToLower(r.Affiliation), text) {
			continue
		}
		if spec.HasCountry() && r.Country != spec.Country {
			continue
		}
		if spec.HasExpertiseArea() && r.ExpertiseArea != spec.ExpertiseArea {
			continue
		}
		if spec.MinHIndex != nil && r.HIndex < *spec.MinHIndex {
			continue
		}
		if spec.MaxHIndex != nil && r.HIndex > *spec.MaxHIndex {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Sort orders records in place by field. The sort is stable; descending
// order negates the comparator rather than reversing the input. An empty
// field sorts by name. Callers must Validate the field first.
func Sort(records []types.Record, field types.SortField, order types.SortOrder) {
	sign := 1
	if order == types.Descending {
		sign = -1
	}
	compare := comparator(field)
	slices.SortStableFunc(records, func(a, b types.Record) int {
		return sign * compare(a, b)
	})
}

func comparator(field types.SortField) func(a, b types.Record) int {
	// A Collator carries scratch buffers and is not safe for concurrent
	// use, so each sort gets its own.
	col := collate.New(language.English)
	switch field {
	case types.SortByCountry:
		return func(a, b types.Record) int { return col.CompareString(a.Country, b.Country) }
	case types.SortByPublications:
		return func(a, b types.Record) int { return cmp.Compare(a.PublicationsCount, b.PublicationsCount) }
	case types.SortByCitations:
		return func(a, b types.Record) int { return cmp.Compare(a.Citations, b.Citations) }
	case types.SortByHIndex:
		return func(a, b types.Record) int { return cmp.Compare(a.HIndex, b.HIndex) }
	default:
		return func(a, b types.Record) int { return col.CompareString(a.Name, b.Name) }
	}
}
