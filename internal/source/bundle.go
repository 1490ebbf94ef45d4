// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/kol-analytics/pkg/types"
)

//go:embed bundle/kols.json
var embeddedBundle []byte

// EmbeddedBundleName identifies the bundle compiled into the binary.
const EmbeddedBundleName = "embedded"

// Fallback supplies the local snapshot used when the remote is unavailable.
type Fallback interface {
	Records(ctx context.Context) ([]types.Record, error)
}

// FallbackFunc adapts a function to the Fallback interface.
type FallbackFunc func(ctx context.Context) ([]types.Record, error)

// Records calls f.
func (f FallbackFunc) Records(ctx context.Context) ([]types.Record, error) { return f(ctx) }

// Bundle is a Fallback backed by a file, or by the embedded dataset when
// the path is empty. The file is re-read on every load cycle.
type Bundle struct {
	path string
}

// NewBundle returns a bundle reading path ("" for the embedded dataset).
func NewBundle(path string) *Bundle { return &Bundle{path: path} }

// Name returns the bundle path or EmbeddedBundleName.
func (b *Bundle) Name() string {
	if b.path == "" {
		return EmbeddedBundleName
	}
	return b.path
}

// Records reads the bundle.
func (b *Bundle) Records(ctx context.Context) ([]types.Record, error) {
	if b.path == "" {
		return decodeJSON(embeddedBundle, EmbeddedBundleName)
	}
	return ReadBundle(ctx, b.path)
}

// ReadBundle loads records from a JSON, YAML or SQLite file, chosen by
// extension (.json, .yaml/.yml, .db/.sqlite/.sqlite3).
func ReadBundle(ctx context.Context, path string) ([]types.Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading bundle: %w", err)
		}
		return decodeJSON(data, path)
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading bundle: %w", err)
		}
		var records []types.Record
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parsing bundle %s: %w", path, err)
		}
		return records, nil
	case ".db", ".sqlite", ".sqlite3":
		return readSQLiteBundle(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported bundle format %q: use .json, .yaml or .db", filepath.Ext(path))
	}
}

// SaveBundle writes records to path in the format its extension selects,
// the inverse of ReadBundle.
func SaveBundle(ctx context.Context, path string, records []types.Record) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(records, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(records)
	case ".db", ".sqlite", ".sqlite3":
		return WriteBundle(ctx, path, records)
	default:
		return fmt.Errorf("unsupported bundle format %q: use .json, .yaml or .db", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("encoding bundle: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating bundle directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func decodeJSON(data []byte, name string) ([]types.Record, error) {
	var records []types.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing bundle %s: %w", name, err)
	}
	return records, nil
}
