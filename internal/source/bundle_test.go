// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/kol-analytics/internal/store"
	"github.com/pdiddy/kol-analytics/pkg/types"
)

func sampleRecords() []types.Record {
	return []types.Record{
		{ID: "7", Name: "Dr. Ana Ruiz", Affiliation: "Hospital Clínic", Country: "Spain", City: "Barcelona", ExpertiseArea: "Dermatology", PublicationsCount: 80, HIndex: 25, Citations: 3200},
		{ID: "3", Name: "Dr. Li Wei", Affiliation: "Peking University", Country: "China", ExpertiseArea: "Oncology", PublicationsCount: 140, HIndex: 48, Citations: 9100},
	}
}

func TestEmbeddedBundle(t *testing.T) {
	b := NewBundle("")
	assert.Equal(t, EmbeddedBundleName, b.Name())

	records, err := b.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 36)

	snap, err := store.NewSnapshot(records, 1)
	require.NoError(t, err, "embedded bundle must be a valid snapshot")

	first, err := snap.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sarah Johnson", first.Name)
	assert.Equal(t, 127, first.PublicationsCount)
}

func TestReadBundleFormats(t *testing.T) {
	dir := t.TempDir()
	want := sampleRecords()

	jsonPath := filepath.Join(dir, "kols.json")
	data, err := json.Marshal(want)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(jsonPath, data, 0o644))

	yamlPath := filepath.Join(dir, "kols.yaml")
	data, err = yaml.Marshal(want)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(yamlPath, data, 0o644))

	dbPath := filepath.Join(dir, "nested", "kols.db")
	require.NoError(t, WriteBundle(context.Background(), dbPath, want))

	for _, path := range []string{jsonPath, yamlPath, dbPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			got, err := NewBundle(path).Records(context.Background())
			require.NoError(t, err)
			assert.Equal(t, want, got, "order and fields survive")
		})
	}
}

func TestSaveBundleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	want := sampleRecords()

	for _, name := range []string{"out.json", "out.yml", "sub/out.sqlite3"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, SaveBundle(ctx, path, want))
			got, err := ReadBundle(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	assert.Error(t, SaveBundle(ctx, filepath.Join(dir, "out.txt"), want))
}

func TestWriteBundleReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kols.sqlite")
	ctx := context.Background()

	require.NoError(t, WriteBundle(ctx, path, sampleRecords()))
	require.NoError(t, WriteBundle(ctx, path, sampleRecords()[:1]))

	got, err := ReadBundle(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords()[:1], got)
}

func TestReadBundleErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not": "a list"`), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{"unsupported extension", filepath.Join(dir, "kols.csv")},
		{"missing json", filepath.Join(dir, "missing.json")},
		{"missing sqlite", filepath.Join(dir, "missing.db")},
		{"malformed json", bad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadBundle(context.Background(), tt.path)
			assert.Error(t, err)
		})
	}
}
