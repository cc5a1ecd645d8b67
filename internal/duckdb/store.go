// Package duckdb stores the combined gene and transcript cache in DuckDB.
package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"

	goduckdb "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding the reference cache.
type Store struct {
	db *sql.DB
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS chromosomes (
		chrom_index BIGINT PRIMARY KEY,
		name VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS genes (
		gene_index BIGINT PRIMARY KEY,
		chrom_index BIGINT,
		start BIGINT,
		end_ BIGINT,
		reverse_strand BOOLEAN,
		ensembl_id VARCHAR,
		entrez_gene_id VARCHAR,
		symbol VARCHAR,
		hgnc_id BIGINT,
		source VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS transcripts (
		id VARCHAR,
		gene_id VARCHAR,
		gene_name VARCHAR,
		chrom VARCHAR,
		start BIGINT,
		end_ BIGINT,
		strand BIGINT,
		biotype VARCHAR,
		source VARCHAR,
		is_canonical BOOLEAN,
		is_mane_select BOOLEAN,
		gene_index BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS sources (
		name VARCHAR PRIMARY KEY,
		path VARCHAR,
		size BIGINT,
		mod_time VARCHAR
	)`,
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes all cached data.
func (s *Store) Clear() error {
	for _, table := range []string{"chromosomes", "genes", "transcripts", "sources"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// replaceRows deletes every row of table and appends rows through the
// DuckDB Appender API on a single connection.
func (s *Store) replaceRows(table string, n int, row func(i int) []driver.Value) error {
	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for i := 0; i < n; i++ {
		if err := appender.AppendRow(row(i)...); err != nil {
			return fmt.Errorf("append %s row: %w", table, err)
		}
	}

	return appender.Flush()
}
