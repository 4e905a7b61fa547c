// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package querystore opens the SQLite database that query calculations
// run against.
package querystore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// MemoryPath opens a private in-process database.
const MemoryPath = ":memory:"

// Store wraps the SQLite connection.
type Store struct {
	db *sql.DB
}

// Open opens the database at cfg.Path (":memory:" when empty) and runs
// cfg.InitScripts in order.
func Open(ctx context.Context, cfg types.QueryStoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = MemoryPath
	}
	dsn := path
	if path != MemoryPath {
		dsn = "file:" + path + "?_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	for _, script := range cfg.InitScripts {
		data, err := os.ReadFile(script)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("reading init script: %w", err)
		}
		if err := s.Exec(ctx, string(data)); err != nil {
			db.Close()
			return nil, fmt.Errorf("running init script %s: %w", script, err)
		}
	}
	return s, nil
}

// Exec runs one or more statements separated by semicolons.
func (s *Store) Exec(ctx context.Context, statements string) error {
	if strings.TrimSpace(statements) == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, statements); err != nil {
		return fmt.Errorf("executing statements: %w", err)
	}
	return nil
}

// QueryContext runs a read query.
func (s *Store) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
