// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store holds the current immutable snapshot of KOL records.
//
// A Snapshot is never mutated after NewSnapshot returns. A refresh builds a
// new Snapshot and publishes it to the Store in a single atomic swap, so
// readers see either the old or the new snapshot in full.
package store

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/pdiddy/kol-analytics/pkg/types"
)

// ErrNotFound is returned when a record identifier is absent.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateID is returned by NewSnapshot when two records share an id.
var ErrDuplicateID = errors.New("duplicate record id")

// Snapshot is an immutable point-in-time collection of records.
type Snapshot struct {
	records   []types.Record
	byID      map[string]int
	version   uint64
	maxHIndex int
	anomalies []string
}

var empty = &Snapshot{byID: map[string]int{}}

// Empty returns the empty snapshot (version 0).
func Empty() *Snapshot { return empty }

// NewSnapshot validates records, indexes them by id and returns the
// snapshot. The input slice is copied.
func NewSnapshot(records []types.Record, version uint64) (*Snapshot, error) {
	s := &Snapshot{
		records: make([]types.Record, len(records)),
		byID:    make(map[string]int, len(records)),
		version: version,
	}
	copy(s.records, records)

	for i, r := range s.records {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.byID[r.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
		}
		s.byID[r.ID] = i
		if r.HIndex > s.maxHIndex {
			s.maxHIndex = r.HIndex
		}
		if r.HIndexExceedsPublications() {
			s.anomalies = append(s.anomalies, r.ID)
		}
	}
	return s, nil
}

// Len returns the number of records.
func (s *Snapshot) Len() int { return len(s.records) }

// Version is the token assigned when the snapshot was built. Later loads
// carry larger versions.
func (s *Snapshot) Version() uint64 { return s.version }

// MaxHIndex is the largest h-index in the snapshot, the upper end of the
// h-index domain.
func (s *Snapshot) MaxHIndex() int { return s.maxHIndex }

// Records returns a copy of the records in load order.
func (s *Snapshot) Records() []types.Record {
	out := make([]types.Record, len(s.records))
	copy(out, s.records)
	return out
}

// At returns the i-th record in load order without copying the slice.
func (s *Snapshot) At(i int) types.Record { return s.records[i] }

// Get returns the record with the given id or ErrNotFound.
func (s *Snapshot) Get(id string) (types.Record, error) {
	i, ok := s.byID[id]
	if !ok {
		return types.Record{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return s.records[i], nil
}

// Anomalies lists the ids of records whose h-index exceeds their
// publication count.
func (s *Snapshot) Anomalies() []string {
	out := make([]string, len(s.anomalies))
	copy(out, s.anomalies)
	return out
}

// Store holds the current snapshot. The zero value holds the empty snapshot.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// New returns a Store holding the empty snapshot.
func New() *Store { return &Store{} }

// Current returns the published snapshot.
func (st *Store) Current() *Snapshot {
	if s := st.current.Load(); s != nil {
		return s
	}
	return empty
}

// Publish replaces the current snapshot with s unless s is older than the
// current one. It reports whether s was published. The empty snapshot is
// always accepted so a failed load leaves a defined state.
func (st *Store) Publish(s *Snapshot) bool {
	for {
		old := st.current.Load()
		if old != nil && old != empty && s != empty && s.version <= old.version {
			return false
		}
		if st.current.CompareAndSwap(old, s) {
			return true
		}
	}
}
