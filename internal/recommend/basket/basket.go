// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

// Package basket turns raw retail transactions into the binary invoice-item
// incidence matrix consumed by the rule miner.
//
// Cleaning and matrix construction are separate steps: Clean enforces the
// row invariants (no cancellations, positive quantity and price, outliers
// clipped) and Build groups the surviving rows. Matrix memory grows with
// invoices x distinct items; matrices are built fresh per query scope and
// never persisted.
package basket

import (
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/basketry/internal/recommend"
)

// iqrMultiplier scales the interquantile range when computing clip limits.
const iqrMultiplier = 1.5

// CleanOptions controls outlier clipping during transaction cleaning.
type CleanOptions struct {
	// LowQuantile and HighQuantile bound the interquantile range used to
	// derive clip limits for quantity and unit price.
	LowQuantile  float64
	HighQuantile float64
}

// DefaultCleanOptions returns the clipping bounds used by the retail
// preparation pipeline.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		LowQuantile:  0.01,
		HighQuantile: 0.99,
	}
}

// Options controls basket matrix construction.
type Options struct {
	// Country restricts the matrix to transactions from one country.
	// Empty means no restriction.
	Country string

	// UseItemID keys columns by stock code instead of description label.
	UseItemID bool
}

// Clean returns the transactions that satisfy the basket invariants:
// identifiers present, invoice not cancelled, quantity and price positive.
// Quantity and unit price of the survivors are clipped to outlier limits
// derived from the configured quantiles.
func Clean(txs []recommend.Transaction, opts CleanOptions) []recommend.Transaction {
	if opts.LowQuantile <= 0 && opts.HighQuantile <= 0 {
		opts = DefaultCleanOptions()
	}

	kept := make([]recommend.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.InvoiceID == "" || (tx.ItemID == "" && tx.ItemLabel == "") {
			continue
		}
		if tx.Cancelled() {
			continue
		}
		if tx.Quantity <= 0 || tx.UnitPrice <= 0 {
			continue
		}
		kept = append(kept, tx)
	}

	if len(kept) == 0 {
		return kept
	}

	qtyLow, qtyHigh := outlierThresholds(kept, opts, func(t recommend.Transaction) float64 { return t.Quantity })
	priceLow, priceHigh := outlierThresholds(kept, opts, func(t recommend.Transaction) float64 { return t.UnitPrice })

	for i := range kept {
		kept[i].Quantity = clip(kept[i].Quantity, qtyLow, qtyHigh)
		kept[i].UnitPrice = clip(kept[i].UnitPrice, priceLow, priceHigh)
	}
	return kept
}

// outlierThresholds computes clip limits as quantile bounds widened by
// 1.5x the interquantile range.
func outlierThresholds(txs []recommend.Transaction, opts CleanOptions, field func(recommend.Transaction) float64) (low, high float64) {
	values := make([]float64, len(txs))
	for i, tx := range txs {
		values[i] = field(tx)
	}
	sort.Float64s(values)

	q1 := quantile(values, opts.LowQuantile)
	q3 := quantile(values, opts.HighQuantile)
	iqr := q3 - q1
	return q1 - iqrMultiplier*iqr, q3 + iqrMultiplier*iqr
}

// quantile returns the linearly interpolated q-quantile of sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func clip(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// Matrix is a binary invoice-item incidence matrix. Rows are unique per
// invoice, columns unique per item key; an entry is set when the summed
// quantity of the item on that invoice is positive.
type Matrix struct {
	invoices []string
	items    []string
	rows     map[string]map[string]struct{}

	// itemCount caches per-item invoice counts for singleton support.
	itemCount map[string]int
}

// Build groups transactions into a Matrix, optionally restricted to one
// country. Columns are keyed by stock code or description label per
// Options.UseItemID; quantities are summed per (invoice, key) and binarized.
// Callers are expected to Clean first; an item key whose summed quantity is
// not positive never becomes a column.
func Build(txs []recommend.Transaction, opts Options) (*Matrix, error) {
	sums := make(map[string]map[string]float64)
	for _, tx := range txs {
		if opts.Country != "" && tx.Country != opts.Country {
			continue
		}
		key := tx.ItemLabel
		if opts.UseItemID {
			key = tx.ItemID
		}
		if key == "" {
			continue
		}
		if sums[tx.InvoiceID] == nil {
			sums[tx.InvoiceID] = make(map[string]float64)
		}
		sums[tx.InvoiceID][key] += tx.Quantity
	}

	if len(sums) == 0 {
		return nil, fmt.Errorf("basket: no transactions to pivot: %w", recommend.ErrEmptyInput)
	}

	m := &Matrix{
		rows:      make(map[string]map[string]struct{}, len(sums)),
		itemCount: make(map[string]int),
	}
	itemSet := make(map[string]struct{})

	for invoice, itemSums := range sums {
		row := make(map[string]struct{}, len(itemSums))
		for key, qty := range itemSums {
			if qty > 0 {
				row[key] = struct{}{}
				itemSet[key] = struct{}{}
				m.itemCount[key]++
			}
		}
		if len(row) > 0 {
			m.rows[invoice] = row
			m.invoices = append(m.invoices, invoice)
		}
	}

	if len(m.rows) == 0 {
		return nil, fmt.Errorf("basket: all rows empty after binarization: %w", recommend.ErrEmptyInput)
	}

	for key := range itemSet {
		m.items = append(m.items, key)
	}
	sort.Strings(m.invoices)
	sort.Strings(m.items)
	return m, nil
}

// NumInvoices returns the number of rows.
func (m *Matrix) NumInvoices() int {
	return len(m.invoices)
}

// Items returns the column keys in lexicographic order.
func (m *Matrix) Items() []string {
	return m.items
}

// Contains reports whether the invoice row has the item column set.
func (m *Matrix) Contains(invoice, item string) bool {
	_, ok := m.rows[invoice][item]
	return ok
}

// ItemCount returns the number of invoices containing the item.
func (m *Matrix) ItemCount(item string) int {
	return m.itemCount[item]
}

// CountContaining returns the number of invoices containing every item in
// the set.
func (m *Matrix) CountContaining(items []string) int {
	if len(items) == 1 {
		return m.itemCount[items[0]]
	}
	count := 0
	for _, row := range m.rows {
		all := true
		for _, item := range items {
			if _, ok := row[item]; !ok {
				all = false
				break
			}
		}
		if all {
			count++
		}
	}
	return count
}
