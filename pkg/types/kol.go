// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the kol-analytics engine.
// The JSON field names on Record, AggregateReport and Page are the wire
// contract shared by the HTTP API and the remote source client.
package types

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord is returned by Record.Validate.
var ErrInvalidRecord = errors.New("invalid record")

// Record is a single Key Opinion Leader profile with its bibliometric counts.
type Record struct {
	// ID is the unique, stable identifier (e.g. "15").
	ID string `json:"id" yaml:"id"`

	// Name is the full name of the KOL.
	Name string `json:"name" yaml:"name"`

	// Affiliation is the academic or institutional affiliation.
	Affiliation string `json:"affiliation" yaml:"affiliation"`

	// Country is the country of residence.
	Country string `json:"country" yaml:"country"`

	// City is optional.
	City string `json:"city,omitempty" yaml:"city,omitempty"`

	// ExpertiseArea is the primary area of expertise.
	ExpertiseArea string `json:"expertiseArea" yaml:"expertiseArea"`

	// PublicationsCount is the total number of publications.
	PublicationsCount int `json:"publicationsCount" yaml:"publicationsCount"`

	// HIndex is the h-index score. Expected, but not guaranteed, to be
	// no greater than PublicationsCount.
	HIndex int `json:"hIndex" yaml:"hIndex"`

	// Citations is the total citation count.
	Citations int `json:"citations" yaml:"citations"`
}

// CitationRatio returns citations per publication. ok is false when the
// record has no publications and the ratio is undefined.
func (r Record) CitationRatio() (ratio float64, ok bool) {
	if r.PublicationsCount <= 0 {
		return 0, false
	}
	return float64(r.Citations) / float64(r.PublicationsCount), true
}

// HIndexExceedsPublications reports the data-quality condition where the
// h-index is larger than the publication count.
func (r Record) HIndexExceedsPublications() bool {
	return r.HIndex > r.PublicationsCount
}

// Validate checks the fields every record must carry. It does not enforce
// h-index <= publications; see HIndexExceedsPublications.
func (r Record) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	case r.Name == "":
		return fmt.Errorf("%w %s: empty name", ErrInvalidRecord, r.ID)
	case r.Country == "":
		return fmt.Errorf("%w %s: empty country", ErrInvalidRecord, r.ID)
	case r.PublicationsCount < 0, r.HIndex < 0, r.Citations < 0:
		return fmt.Errorf("%w %s: negative count", ErrInvalidRecord, r.ID)
	}
	return nil
}
