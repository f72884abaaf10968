// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

package recommend

import "time"

// Transaction represents a single line of a retail invoice after parsing.
// One invoice spans many transactions, one per purchased item.
type Transaction struct {
	// InvoiceID is the invoice number. A leading "C" marks a cancellation.
	InvoiceID string `json:"invoice_id"`

	// ItemID is the stock code, unique per product.
	ItemID string `json:"item_id"`

	// ItemLabel is the human-readable product description.
	ItemLabel string `json:"item_label"`

	// Quantity is the number of units sold on this line.
	Quantity float64 `json:"quantity"`

	// UnitPrice is the per-unit price.
	UnitPrice float64 `json:"unit_price"`

	// CustomerID identifies the buyer. Optional; zero when unknown.
	CustomerID int64 `json:"customer_id,omitempty"`

	// Country is the buyer's country name.
	Country string `json:"country"`
}

// Cancelled reports whether the transaction belongs to a cancelled invoice.
func (t Transaction) Cancelled() bool {
	return len(t.InvoiceID) > 0 && t.InvoiceID[0] == 'C'
}

// Rating is a single explicit user-item rating.
type Rating struct {
	// UserID is the unique rater identifier.
	UserID int64 `json:"user_id"`

	// ItemID is the rated item (movie) identifier.
	ItemID int64 `json:"item_id"`

	// Value is the rating on the dataset's bounded scale (e.g. 1-5).
	Value float64 `json:"rating"`

	// Timestamp is when the rating was given. Unused by the scoring core.
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Document is one free-text catalog entry, e.g. a movie overview.
// Position in the corpus slice is the document's stable row index.
type Document struct {
	// Title is the display title used for lookups. Titles may repeat;
	// lookup structures collapse duplicates keeping the last occurrence.
	Title string `json:"title"`

	// Body is the free text. Empty when the source field was missing.
	Body string `json:"body"`
}

// CatalogEntry maps an item identifier to its display title.
type CatalogEntry struct {
	ItemID int64  `json:"item_id"`
	Title  string `json:"title"`
}

// Catalog resolves item identifiers to display titles.
type Catalog map[int64]string

// NewCatalog builds a Catalog from entries. Duplicate IDs keep the last
// occurrence, the same policy applied to duplicate document titles.
func NewCatalog(entries []CatalogEntry) Catalog {
	c := make(Catalog, len(entries))
	for _, e := range entries {
		c[e.ItemID] = e.Title
	}
	return c
}

// ScoredTitle is a ranked result keyed by display title.
type ScoredTitle struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Recommendation is a ranked result keyed by item identifier, joined with
// its display title when the catalog knows it.
type Recommendation struct {
	ItemID int64   `json:"item_id"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
}
