// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

// Package neighborhood pivots explicit ratings into a sparse user-item
// matrix and computes Pearson-correlation neighborhoods for item-based and
// user-based recommendations.
package neighborhood

import (
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/basketry/internal/recommend"
)

// RatingMatrix is a sparse user-item rating matrix. A missing entry means
// "not rated", which is distinct from a rating of zero.
type RatingMatrix struct {
	byUser map[int64]map[int64]float64
	byItem map[int64]map[int64]float64
	users  []int64
	items  []int64
}

// BuildRatingMatrix pivots rating records into a RatingMatrix, dropping
// items whose distinct-rater count is at or below minRaters. Duplicate
// (user, item) pairs keep the last value, consistent with the keep-last
// identifier policy used elsewhere.
//
// Returns ErrEmptyInput when ratings is empty and ErrThresholdTooStrict
// when the rater filter removes every item.
func BuildRatingMatrix(ratings []recommend.Rating, minRaters int) (*RatingMatrix, error) {
	if len(ratings) == 0 {
		return nil, fmt.Errorf("neighborhood: no ratings to pivot: %w", recommend.ErrEmptyInput)
	}

	raters := make(map[int64]map[int64]struct{})
	for _, r := range ratings {
		if raters[r.ItemID] == nil {
			raters[r.ItemID] = make(map[int64]struct{})
		}
		raters[r.ItemID][r.UserID] = struct{}{}
	}

	keep := make(map[int64]struct{}, len(raters))
	for itemID, users := range raters {
		if len(users) > minRaters {
			keep[itemID] = struct{}{}
		}
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("neighborhood: min raters %d removes every item: %w",
			minRaters, recommend.ErrThresholdTooStrict)
	}

	m := &RatingMatrix{
		byUser: make(map[int64]map[int64]float64),
		byItem: make(map[int64]map[int64]float64, len(keep)),
	}
	for _, r := range ratings {
		if _, ok := keep[r.ItemID]; !ok {
			continue
		}
		if m.byUser[r.UserID] == nil {
			m.byUser[r.UserID] = make(map[int64]float64)
		}
		if m.byItem[r.ItemID] == nil {
			m.byItem[r.ItemID] = make(map[int64]float64)
		}
		m.byUser[r.UserID][r.ItemID] = r.Value
		m.byItem[r.ItemID][r.UserID] = r.Value
	}

	for userID := range m.byUser {
		m.users = append(m.users, userID)
	}
	for itemID := range m.byItem {
		m.items = append(m.items, itemID)
	}
	sort.Slice(m.users, func(i, j int) bool { return m.users[i] < m.users[j] })
	sort.Slice(m.items, func(i, j int) bool { return m.items[i] < m.items[j] })
	return m, nil
}

// NumUsers returns the number of distinct raters after filtering.
func (m *RatingMatrix) NumUsers() int { return len(m.users) }

// NumItems returns the number of items surviving the rater filter.
func (m *RatingMatrix) NumItems() int { return len(m.items) }

// Items returns item IDs in ascending order.
func (m *RatingMatrix) Items() []int64 { return m.items }

// Users returns user IDs in ascending order.
func (m *RatingMatrix) Users() []int64 { return m.users }

// UserRatings returns the ratings of one user, or nil if unknown.
func (m *RatingMatrix) UserRatings(userID int64) map[int64]float64 {
	return m.byUser[userID]
}

// pearson computes the Pearson correlation between two sparse rating
// vectors over their common keys, the standard pairwise semantics: rows
// missing in either vector are excluded. Returns NaN when fewer than two
// common keys exist or either side has zero variance over the overlap.
func pearson(a, b map[int64]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var common []int64
	for k := range a {
		if _, ok := b[k]; ok {
			common = append(common, k)
		}
	}
	if len(common) < 2 {
		return math.NaN()
	}

	var sumA, sumB float64
	for _, k := range common {
		sumA += a[k]
		sumB += b[k]
	}
	n := float64(len(common))
	meanA, meanB := sumA/n, sumB/n

	var num, denA, denB float64
	for _, k := range common {
		da := a[k] - meanA
		db := b[k] - meanB
		num += da * db
		denA += da * da
		denB += db * db
	}
	if denA == 0 || denB == 0 {
		return math.NaN()
	}
	return num / math.Sqrt(denA*denB)
}
