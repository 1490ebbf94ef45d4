// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/kol-analytics/pkg/types"
)

func sampleRecords() []types.Record {
	return []types.Record{
		{ID: "1", Name: "Dr. Ana Ruiz", Affiliation: "Hospital Clinic", Country: "Spain", ExpertiseArea: "Dermatology", PublicationsCount: 100, HIndex: 30, Citations: 4800},
		{ID: "2", Name: "Dr. Ben Okafor", Affiliation: "Lagos University", Country: "Nigeria", ExpertiseArea: "Immunology", PublicationsCount: 50, HIndex: 55, Citations: 3000},
		{ID: "3", Name: "Dr. Chen Wei", Affiliation: "Peking University", Country: "China", ExpertiseArea: "Dermatology", PublicationsCount: 10, HIndex: 4, Citations: 0},
	}
}

func TestNewSnapshot(t *testing.T) {
	s, err := NewSnapshot(sampleRecords(), 7)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, uint64(7), s.Version())
	assert.Equal(t, 55, s.MaxHIndex())
	assert.Equal(t, []string{"2"}, s.Anomalies())
}

func TestNewSnapshotCopiesInput(t *testing.T) {
	records := sampleRecords()
	s, err := NewSnapshot(records, 1)
	require.NoError(t, err)

	records[0].Name = "mutated"
	got, err := s.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Ana Ruiz", got.Name)

	out := s.Records()
	out[1].Name = "mutated"
	got, err = s.Get("2")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Ben Okafor", got.Name)
}

func TestNewSnapshotRejects(t *testing.T) {
	tests := []struct {
		name    string
		records []types.Record
		wantErr error
	}{
		{
			name:    "duplicate id",
			records: append(sampleRecords(), types.Record{ID: "1", Name: "X", Country: "Y"}),
			wantErr: ErrDuplicateID,
		},
		{
			name:    "empty id",
			records: []types.Record{{Name: "X", Country: "Y"}},
			wantErr: types.ErrInvalidRecord,
		},
		{
			name:    "negative citations",
			records: []types.Record{{ID: "9", Name: "X", Country: "Y", Citations: -1}},
			wantErr: types.ErrInvalidRecord,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSnapshot(tt.records, 1)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSnapshotGetNotFound(t *testing.T) {
	s, err := NewSnapshot(sampleRecords(), 1)
	require.NoError(t, err)

	_, err = s.Get("999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEmptySnapshot(t *testing.T) {
	s := Empty()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, uint64(0), s.Version())
	_, err := s.Get("1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorePublish(t *testing.T) {
	st := New()
	assert.Same(t, Empty(), st.Current())

	v2, err := NewSnapshot(sampleRecords(), 2)
	require.NoError(t, err)
	v1, err := NewSnapshot(sampleRecords()[:1], 1)
	require.NoError(t, err)

	assert.True(t, st.Publish(v2))
	assert.False(t, st.Publish(v1), "older snapshot must not replace a newer one")
	assert.Same(t, v2, st.Current())

	assert.True(t, st.Publish(Empty()), "empty snapshot is always accepted")
	assert.Same(t, Empty(), st.Current())

	assert.True(t, st.Publish(v1))
	assert.Same(t, v1, st.Current())
}

func TestStoreConcurrentPublishKeepsNewest(t *testing.T) {
	st := New()
	var wg sync.WaitGroup
	for v := uint64(1); v <= 50; v++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			s, err := NewSnapshot(sampleRecords(), v)
			if err != nil {
				t.Error(err)
				return
			}
			st.Publish(s)
		}(v)
	}
	wg.Wait()

	assert.Equal(t, uint64(50), st.Current().Version())
	assert.Equal(t, 3, st.Current().Len())
}
