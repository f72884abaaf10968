// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

package factorization

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/tomtom215/basketry/internal/recommend"
)

// Evaluate computes root mean squared error of the model over held-out
// ratings. Pairs with an unknown user or item fall back to the baseline
// estimate (global mean plus whichever biases are known) rather than being
// skipped, so test sets with cold-start pairs still score every rating.
//
// Returns ErrEmptyInput when test is empty.
func Evaluate(m *Model, test []recommend.Rating) (float64, error) {
	if len(test) == 0 {
		return 0, fmt.Errorf("factorization: no ratings to evaluate: %w", recommend.ErrEmptyInput)
	}
	var sqErr float64
	for _, r := range test {
		err := r.Value - m.estimate(r.UserID, r.ItemID)
		sqErr += err * err
	}
	return math.Sqrt(sqErr / float64(len(test))), nil
}

// TrainTestSplit shuffles a copy of ratings with the seeded source and
// splits off the requested fraction as the test set. testFraction outside
// (0, 1) is an error; a split that would leave either side empty returns
// ErrEmptyInput.
func TrainTestSplit(ratings []recommend.Rating, testFraction float64, seed int64) (train, test []recommend.Rating, err error) {
	if len(ratings) == 0 {
		return nil, nil, fmt.Errorf("factorization: no ratings to split: %w", recommend.ErrEmptyInput)
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("factorization: test fraction %v outside (0, 1)", testFraction)
	}

	shuffled := make([]recommend.Rating, len(ratings))
	copy(shuffled, ratings)
	if seed == 0 {
		seed = defaultSeed
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	numTest := int(math.Round(testFraction * float64(len(shuffled))))
	if numTest == 0 || numTest == len(shuffled) {
		return nil, nil, fmt.Errorf("factorization: split of %d ratings at %v leaves an empty side: %w",
			len(ratings), testFraction, recommend.ErrEmptyInput)
	}

	return shuffled[numTest:], shuffled[:numTest], nil
}
