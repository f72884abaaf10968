// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

// Package dataset loads the toolkit's CSV inputs through DuckDB.
//
// DuckDB's read_csv does the heavy lifting: header detection, type
// inference, quoting, and NULL handling. Each loader projects the columns
// the strategies need and drops rows missing required fields at the
// boundary, so downstream code never sees partial records.
package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/basketry/internal/logging"
	"github.com/tomtom215/basketry/internal/recommend"
)

// Store wraps an in-memory DuckDB connection used for CSV ingestion.
type Store struct {
	conn *sql.DB
}

// Open creates the in-memory DuckDB connection. Auto-install and auto-load
// of extensions are disabled to prevent hangs in restricted network
// environments; read_csv needs no extensions.
func Open() (*Store, error) {
	conn, err := sql.Open("duckdb", ":memory:?autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close releases the connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// sqlQuote escapes a value for inclusion as a SQL string literal. DuckDB
// table functions like read_csv cannot take bind parameters on all driver
// versions, so file paths are inlined with quoting.
func sqlQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// LoadTransactions reads retail invoice lines from the CSV at path.
// Expected header: Invoice, StockCode, Description, Quantity, Price,
// Customer ID, Country. Invoice and StockCode are forced to text so codes
// like "C489449" and "85123A" survive type inference. NULL fields map to
// zero values; row-level filtering is basket.Clean's job.
func (s *Store) LoadTransactions(ctx context.Context, path string) ([]recommend.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT Invoice, StockCode, Description, Quantity, Price, "Customer ID", Country
		FROM read_csv(%s, header = true, types = {'Invoice': 'VARCHAR', 'StockCode': 'VARCHAR'})`,
		sqlQuote(path))

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions from %s: %w", path, err)
	}
	defer closeQuietly(rows)

	var out []recommend.Transaction
	for rows.Next() {
		var (
			invoice, stockCode, description, country sql.NullString
			quantity, price                          sql.NullFloat64
			customerID                               sql.NullFloat64
		)
		if err := rows.Scan(&invoice, &stockCode, &description, &quantity, &price, &customerID, &country); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		out = append(out, recommend.Transaction{
			InvoiceID:  invoice.String,
			ItemID:     stockCode.String,
			ItemLabel:  strings.TrimSpace(description.String),
			Quantity:   quantity.Float64,
			UnitPrice:  price.Float64,
			CustomerID: int64(customerID.Float64),
			Country:    country.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	logging.Info().Int("rows", len(out)).Str("path", path).Msg("transactions loaded")
	return out, nil
}

// LoadMovies reads movie identifiers and titles from the CSV at path.
// Expected header: movieId, title (extra columns ignored). Rows missing
// either field are dropped.
func (s *Store) LoadMovies(ctx context.Context, path string) ([]recommend.CatalogEntry, error) {
	query := fmt.Sprintf(`
		SELECT movieId, title
		FROM read_csv(%s, header = true)
		WHERE movieId IS NOT NULL AND title IS NOT NULL`,
		sqlQuote(path))

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read movies from %s: %w", path, err)
	}
	defer closeQuietly(rows)

	var out []recommend.CatalogEntry
	for rows.Next() {
		var entry recommend.CatalogEntry
		if err := rows.Scan(&entry.ItemID, &entry.Title); err != nil {
			return nil, fmt.Errorf("failed to scan movie row: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate movies: %w", err)
	}

	logging.Info().Int("rows", len(out)).Str("path", path).Msg("movies loaded")
	return out, nil
}

// LoadOverviews reads title and overview text from the CSV at path.
// Expected header includes title and overview columns. Rows missing either
// field are dropped.
func (s *Store) LoadOverviews(ctx context.Context, path string) ([]recommend.Document, error) {
	query := fmt.Sprintf(`
		SELECT title, overview
		FROM read_csv(%s, header = true)
		WHERE title IS NOT NULL AND overview IS NOT NULL`,
		sqlQuote(path))

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read overviews from %s: %w", path, err)
	}
	defer closeQuietly(rows)

	var out []recommend.Document
	for rows.Next() {
		var doc recommend.Document
		if err := rows.Scan(&doc.Title, &doc.Body); err != nil {
			return nil, fmt.Errorf("failed to scan overview row: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate overviews: %w", err)
	}

	logging.Info().Int("rows", len(out)).Str("path", path).Msg("overviews loaded")
	return out, nil
}

// LoadRatings reads explicit ratings from the CSV at path.
// Expected header: userId, movieId, rating, timestamp. Rows missing
// user, movie, or rating are dropped; a NULL timestamp maps to zero.
func (s *Store) LoadRatings(ctx context.Context, path string) ([]recommend.Rating, error) {
	query := fmt.Sprintf(`
		SELECT userId, movieId, rating, COALESCE(timestamp, 0)
		FROM read_csv(%s, header = true)
		WHERE userId IS NOT NULL AND movieId IS NOT NULL AND rating IS NOT NULL`,
		sqlQuote(path))

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read ratings from %s: %w", path, err)
	}
	defer closeQuietly(rows)

	var out []recommend.Rating
	for rows.Next() {
		var (
			r    recommend.Rating
			unix int64
		)
		if err := rows.Scan(&r.UserID, &r.ItemID, &r.Value, &unix); err != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", err)
		}
		if unix != 0 {
			r.Timestamp = time.Unix(unix, 0).UTC()
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}

	logging.Info().Int("rows", len(out)).Str("path", path).Msg("ratings loaded")
	return out, nil
}

func closeQuietly(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logging.Warn().Err(err).Msg("failed to close result rows")
	}
}
