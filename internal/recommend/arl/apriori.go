// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

// Package arl mines frequent itemsets and association rules from a basket
// matrix and answers cart-stage recommendation queries over the rules.
package arl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/basketry/internal/recommend"
	"github.com/tomtom215/basketry/internal/recommend/basket"
)

// Itemset is a set of item keys with its support, the fraction of invoices
// containing every member.
type Itemset struct {
	// Items is sorted lexicographically and never mutated after mining.
	Items   []string
	Support float64
}

// Key returns the canonical identity of the itemset.
func (s Itemset) Key() string {
	return strings.Join(s.Items, "\x1f")
}

// FrequentItemsets enumerates frequent itemsets level-wise (size 1, 2, 3,
// ...) over the basket matrix, pruning any candidate whose support falls
// below minSupport. Enumeration stops at the first level with no survivors.
// Anti-monotonicity holds by construction: every subset of a returned
// itemset is also returned, with support at least as large.
//
// Returns ErrEmptyInput for an empty matrix and ErrThresholdTooStrict when
// no singleton survives the first level.
func FrequentItemsets(m *basket.Matrix, minSupport float64) ([]Itemset, error) {
	if m == nil || m.NumInvoices() == 0 {
		return nil, fmt.Errorf("arl: basket matrix has no rows: %w", recommend.ErrEmptyInput)
	}
	if minSupport <= 0 || minSupport > 1 {
		return nil, fmt.Errorf("arl: min support %v outside (0, 1]", minSupport)
	}

	total := float64(m.NumInvoices())

	// Level 1: singletons in column order.
	var level []Itemset
	for _, item := range m.Items() {
		sup := float64(m.ItemCount(item)) / total
		if sup >= minSupport {
			level = append(level, Itemset{Items: []string{item}, Support: sup})
		}
	}
	if len(level) == 0 {
		return nil, fmt.Errorf("arl: no frequent itemsets at min support %v: %w",
			minSupport, recommend.ErrThresholdTooStrict)
	}

	frequent := append([]Itemset(nil), level...)
	seen := make(map[string]struct{}, len(level))
	for _, s := range level {
		seen[s.Key()] = struct{}{}
	}

	for k := 2; len(level) > 0; k++ {
		candidates := generateCandidates(level, k)

		var next []Itemset
		for _, cand := range candidates {
			if !subsetsFrequent(cand, seen) {
				continue
			}
			sup := float64(m.CountContaining(cand)) / total
			if sup >= minSupport {
				next = append(next, Itemset{Items: cand, Support: sup})
			}
		}

		for _, s := range next {
			seen[s.Key()] = struct{}{}
		}
		frequent = append(frequent, next...)
		level = next
	}

	return frequent, nil
}

// generateCandidates joins pairs of frequent (k-1)-itemsets sharing their
// first k-2 items. Both inputs and outputs are lexicographically sorted, so
// candidate order is deterministic.
func generateCandidates(level []Itemset, k int) [][]string {
	var candidates [][]string
	for i := 0; i < len(level); i++ {
		for j := i + 1; j < len(level); j++ {
			a, b := level[i].Items, level[j].Items
			if !samePrefix(a, b, k-2) {
				continue
			}
			cand := make([]string, 0, k)
			cand = append(cand, a...)
			cand = append(cand, b[k-2])
			sort.Strings(cand)
			candidates = append(candidates, cand)
		}
	}
	return candidates
}

func samePrefix(a, b []string, n int) bool {
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// subsetsFrequent checks that every (k-1)-subset of the candidate is
// already frequent, the Apriori pruning step.
func subsetsFrequent(cand []string, seen map[string]struct{}) bool {
	sub := make([]string, 0, len(cand)-1)
	for drop := range cand {
		sub = sub[:0]
		for i, item := range cand {
			if i != drop {
				sub = append(sub, item)
			}
		}
		if _, ok := seen[strings.Join(sub, "\x1f")]; !ok {
			return false
		}
	}
	return true
}
