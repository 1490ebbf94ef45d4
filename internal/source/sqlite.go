// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/kol-analytics/pkg/types"
)

const bundleSchema = `CREATE TABLE IF NOT EXISTS kols (
	position INTEGER NOT NULL,
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	affiliation TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL,
	city TEXT NOT NULL DEFAULT '',
	expertise_area TEXT NOT NULL DEFAULT '',
	publications_count INTEGER NOT NULL DEFAULT 0,
	h_index INTEGER NOT NULL DEFAULT 0,
	citations INTEGER NOT NULL DEFAULT 0
)`

// readSQLiteBundle reads the kols table of a bundle database in its
// original order. The database is opened read-only.
func readSQLiteBundle(ctx context.Context, path string) ([]types.Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening bundle: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening bundle %s: %w", path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT id, name, affiliation, country, city, expertise_area,
			publications_count, h_index, citations
		FROM kols ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying bundle %s: %w", path, err)
	}
	defer rows.Close()

	records := []types.Record{}
	for rows.Next() {
		var r types.Record
		if err := rows.Scan(
			&r.ID, &r.Name, &r.Affiliation, &r.Country, &r.City, &r.ExpertiseArea,
			&r.PublicationsCount, &r.HIndex, &r.Citations,
		); err != nil {
			return nil, fmt.Errorf("scanning bundle row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// WriteBundle writes records to a SQLite bundle at path, replacing any
// records already there. The whole write is one transaction.
func WriteBundle(ctx context.Context, path string, records []types.Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating bundle directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening bundle %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, bundleSchema); err != nil {
		return fmt.Errorf("creating bundle schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM kols`); err != nil {
		return fmt.Errorf("clearing bundle: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO kols (position, id, name, affiliation, country, city, expertise_area,
			publications_count, h_index, citations)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx,
			i, r.ID, r.Name, r.Affiliation, r.Country, r.City, r.ExpertiseArea,
			r.PublicationsCount, r.HIndex, r.Citations,
		); err != nil {
			return fmt.Errorf("inserting record %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}
