// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

package arl

import "sort"

// Recommend answers a cart-stage query: given the item currently in the
// cart, scan rules in lift-descending order and collect the first
// consequent item of every rule whose antecedent contains the item, until
// count results are gathered or the rules are exhausted.
//
// Lift ties keep derivation order (the sort is stable), so output is
// reproducible. Duplicates are preserved; callers wanting distinct items
// deduplicate downstream.
func Recommend(rules []Rule, itemID string, count int) []string {
	if count <= 0 || len(rules) == 0 {
		return nil
	}

	byLift := make([]Rule, len(rules))
	copy(byLift, rules)
	sort.SliceStable(byLift, func(i, j int) bool {
		return byLift[i].Lift > byLift[j].Lift
	})

	var recs []string
	for _, r := range byLift {
		for _, item := range r.Antecedents {
			if item == itemID {
				recs = append(recs, r.Consequents[0])
				break
			}
		}
		if len(recs) == count {
			break
		}
	}
	return recs
}
