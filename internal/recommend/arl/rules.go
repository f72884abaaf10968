// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

package arl

import (
	"fmt"
	"strings"

	"github.com/tomtom215/basketry/internal/recommend"
)

// Metric selects which rule statistic is compared against the minimum
// threshold during rule derivation.
type Metric string

const (
	MetricSupport    Metric = "support"
	MetricConfidence Metric = "confidence"
	MetricLift       Metric = "lift"
)

// Rule is an immutable association rule derived from one frequent itemset.
// Antecedents and Consequents are disjoint, non-empty, and together form
// the source itemset.
type Rule struct {
	Antecedents []string `json:"antecedents"`
	Consequents []string `json:"consequents"`

	// Support is the support of antecedents union consequents.
	Support float64 `json:"support"`

	// Confidence is Support / support(antecedents), in [0, 1].
	Confidence float64 `json:"confidence"`

	// Lift is Confidence / support(consequents); > 1 indicates positive
	// association.
	Lift float64 `json:"lift"`
}

// DeriveRules partitions every frequent itemset of size >= 2 into all
// non-empty, non-total antecedent/consequent splits and keeps the rules
// whose chosen metric meets minThreshold. No (antecedent, consequent) pair
// appears twice, and every returned rule's support equals the support of
// its source itemset, so all rules satisfy the miner's minimum support.
//
// Returns ErrEmptyInput when itemsets is empty. A derivation that keeps no
// rules is a valid empty result, not an error.
func DeriveRules(itemsets []Itemset, metric Metric, minThreshold float64) ([]Rule, error) {
	if len(itemsets) == 0 {
		return nil, fmt.Errorf("arl: no itemsets to derive rules from: %w", recommend.ErrEmptyInput)
	}
	switch metric {
	case MetricSupport, MetricConfidence, MetricLift:
	case "":
		metric = MetricSupport
	default:
		return nil, fmt.Errorf("arl: unknown rule metric %q", metric)
	}

	supports := make(map[string]float64, len(itemsets))
	for _, s := range itemsets {
		supports[s.Key()] = s.Support
	}

	var rules []Rule
	for _, s := range itemsets {
		n := len(s.Items)
		if n < 2 {
			continue
		}

		// Masks 1..2^n-2 enumerate every non-empty proper subset as the
		// antecedent; the complement is the consequent. Subsets of a
		// frequent itemset are frequent, so both supports are known.
		for mask := 1; mask < (1<<n)-1; mask++ {
			var ante, cons []string
			for i, item := range s.Items {
				if mask&(1<<i) != 0 {
					ante = append(ante, item)
				} else {
					cons = append(cons, item)
				}
			}

			supA := supports[strings.Join(ante, "\x1f")]
			supC := supports[strings.Join(cons, "\x1f")]
			if supA == 0 || supC == 0 {
				continue
			}

			r := Rule{
				Antecedents: ante,
				Consequents: cons,
				Support:     s.Support,
				Confidence:  s.Support / supA,
			}
			r.Lift = r.Confidence / supC

			if metricValue(r, metric) >= minThreshold {
				rules = append(rules, r)
			}
		}
	}

	return rules, nil
}

func metricValue(r Rule, metric Metric) float64 {
	switch metric {
	case MetricConfidence:
		return r.Confidence
	case MetricLift:
		return r.Lift
	default:
		return r.Support
	}
}
