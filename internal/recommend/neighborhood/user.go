// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

package neighborhood

import (
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/basketry/internal/recommend"
)

// UserOptions parameterizes user-based recommendation.
type UserOptions struct {
	// RatioPct is the percentage of the reference user's watched items a
	// candidate must also have rated to qualify as a potential neighbor.
	// The cutoff is the count len(watched) * RatioPct / 100, exceeded
	// strictly.
	RatioPct float64

	// CorrThreshold is the minimum correlation with the reference user
	// (inclusive) for a qualifying user to become a neighbor.
	CorrThreshold float64

	// ScoreThreshold is the minimum mean weighted rating (exclusive) for
	// an item to be recommended.
	ScoreThreshold float64
}

// DefaultUserOptions returns the thresholds used by the movie
// recommendation pipeline.
func DefaultUserOptions() UserOptions {
	return UserOptions{
		RatioPct:       60,
		CorrThreshold:  0.65,
		ScoreThreshold: 3.5,
	}
}

// UserBasedRecommend recommends items for the reference user from the
// ratings of behaviorally similar users:
//
//  1. Collect the reference user's watched items.
//  2. Keep users who rated strictly more than RatioPct percent of them.
//     The reference user is removed here, which also keeps user keys
//     unique before correlation (no suffix disambiguation needed).
//  3. Correlate each qualifying user with the reference user over the
//     watched columns only.
//  4. Users at or above CorrThreshold become neighbors.
//  5. Every rating of every neighbor, on any item, contributes
//     correlation x rating; contributions are averaged per item.
//  6. Items whose mean weighted rating exceeds ScoreThreshold are
//     returned score-descending, joined with catalog titles.
//
// An empty neighbor set is a valid empty result, not an error. Only an
// unknown reference user fails, with ErrUnknownIdentifier.
func (m *RatingMatrix) UserBasedRecommend(userID int64, opts UserOptions, catalog recommend.Catalog) ([]recommend.Recommendation, error) {
	ref, ok := m.byUser[userID]
	if !ok {
		return nil, fmt.Errorf("neighborhood: user %d: %w", userID, recommend.ErrUnknownIdentifier)
	}

	required := float64(len(ref)) * opts.RatioPct / 100

	type neighborUser struct {
		userID int64
		corr   float64
	}
	var neighbors []neighborUser
	for _, other := range m.users {
		if other == userID {
			continue
		}
		ratings := m.byUser[other]

		watchedCount := 0
		for itemID := range ref {
			if _, rated := ratings[itemID]; rated {
				watchedCount++
			}
		}
		if float64(watchedCount) <= required {
			continue
		}

		// ref's keys are exactly the watched items, so the pairwise
		// overlap is already restricted to the watched columns.
		corr := pearson(ref, ratings)
		if math.IsNaN(corr) || corr < opts.CorrThreshold {
			continue
		}
		neighbors = append(neighbors, neighborUser{userID: other, corr: corr})
	}

	if len(neighbors) == 0 {
		return nil, nil
	}

	sums := make(map[int64]float64)
	counts := make(map[int64]int)
	for _, nb := range neighbors {
		for itemID, rating := range m.byUser[nb.userID] {
			sums[itemID] += nb.corr * rating
			counts[itemID]++
		}
	}

	itemIDs := make([]int64, 0, len(sums))
	for itemID := range sums {
		itemIDs = append(itemIDs, itemID)
	}
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })

	var recs []recommend.Recommendation
	for _, itemID := range itemIDs {
		score := sums[itemID] / float64(counts[itemID])
		if score <= opts.ScoreThreshold {
			continue
		}
		title, known := catalog[itemID]
		if catalog != nil && !known {
			continue
		}
		recs = append(recs, recommend.Recommendation{ItemID: itemID, Title: title, Score: score})
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	return recs, nil
}
