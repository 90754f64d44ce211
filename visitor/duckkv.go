// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package visitor

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DuckKV persists blobs in a DuckDB table. This is the durable analog of
// browser local storage: a single local file, last-write-wins, surviving
// until explicitly cleared.
type DuckKV struct {
	db *sql.DB
}

// NewDuckKV creates the store and its schema if needed.
func NewDuckKV(db *sql.DB) (*DuckKV, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key VARCHAR PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("creating kv schema: %w", err)
	}

	return &DuckKV{db: db}, nil
}

// Get implements KV.
func (d *DuckKV) Get(key string) ([]byte, bool, error) {
	var value []byte

	err := d.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("reading kv key %q: %w", key, err)
	}

	return value, true, nil
}

// Set implements KV.
func (d *DuckKV) Set(key string, value []byte) error {
	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO kv(key, value, updated_at)
		VALUES (?, ?, ?)
	`, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("writing kv key %q: %w", key, err)
	}

	return nil
}

// Delete implements KV.
func (d *DuckKV) Delete(key string) error {
	_, err := d.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting kv key %q: %w", key, err)
	}

	return nil
}
