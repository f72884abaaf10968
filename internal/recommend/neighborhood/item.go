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

// Neighbor pairs an item with its correlation to the reference item.
type Neighbor struct {
	ItemID      int64   `json:"item_id"`
	Correlation float64 `json:"correlation"`
}

// ItemNeighbors correlates the reference item's rating column with every
// other column, pairwise over users who rated both, and returns the count
// strongest neighbors in correlation-descending order.
//
// The reference item is excluded by ID: its self-correlation is 1.0 by
// definition and carries no information. Pairs with fewer than two common
// raters or zero rating variance have undefined correlation and are
// skipped.
//
// Returns ErrUnknownIdentifier when the item has no column.
func (m *RatingMatrix) ItemNeighbors(itemID int64, count int) ([]Neighbor, error) {
	ref, ok := m.byItem[itemID]
	if !ok {
		return nil, fmt.Errorf("neighborhood: item %d: %w", itemID, recommend.ErrUnknownIdentifier)
	}
	if count <= 0 {
		return nil, nil
	}

	neighbors := make([]Neighbor, 0, len(m.items)-1)
	for _, other := range m.items {
		if other == itemID {
			continue
		}
		corr := pearson(ref, m.byItem[other])
		if math.IsNaN(corr) {
			continue
		}
		neighbors = append(neighbors, Neighbor{ItemID: other, Correlation: corr})
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Correlation > neighbors[j].Correlation
	})
	if count < len(neighbors) {
		neighbors = neighbors[:count]
	}
	return neighbors, nil
}
