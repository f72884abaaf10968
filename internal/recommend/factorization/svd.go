// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

// Package factorization fits a biased latent-factor model to explicit
// ratings by stochastic gradient descent and predicts missing entries.
//
// The model is the classic Funk-SVD parameterization: a predicted rating
// is the global mean plus user and item biases plus the dot product of the
// user and item factor vectors. Training runs for a fixed epoch count;
// convergence is not detected automatically.
package factorization

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/tomtom215/basketry/internal/logging"
	"github.com/tomtom215/basketry/internal/recommend"
)

// convergenceTolerance is the per-epoch training RMSE improvement below
// which training is considered settled. Larger final improvements trigger
// an informational warning, never an error.
const convergenceTolerance = 1e-4

// Config contains the latent-factor hyperparameters.
type Config struct {
	// Factors is the rank k of the factorization.
	Factors int `json:"factors"`

	// Epochs is the fixed number of passes over the training triples.
	Epochs int `json:"epochs"`

	// LearningRate is the SGD step size.
	LearningRate float64 `json:"learning_rate"`

	// Regularization is the L2 penalty applied to biases and factors.
	Regularization float64 `json:"regularization"`

	// Seed seeds factor initialization and data splits. Zero selects a
	// fixed default so runs are reproducible by default.
	Seed int64 `json:"seed"`
}

// DefaultConfig returns the default hyperparameters.
func DefaultConfig() Config {
	return Config{
		Factors:        100,
		Epochs:         20,
		LearningRate:   0.005,
		Regularization: 0.02,
		Seed:           0,
	}
}

const defaultSeed = 42

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Factors <= 0 {
		c.Factors = d.Factors
	}
	if c.Epochs <= 0 {
		c.Epochs = d.Epochs
	}
	if c.LearningRate <= 0 {
		c.LearningRate = d.LearningRate
	}
	if c.Regularization <= 0 {
		c.Regularization = d.Regularization
	}
	if c.Seed == 0 {
		c.Seed = defaultSeed
	}
	return c
}

// Model is the trained latent-factor state: user and item factor matrices
// plus global, user, and item bias terms. Mutated only during Fit;
// read-only afterwards, so a fitted model is safe for concurrent Predict.
type Model struct {
	cfg Config

	globalMean float64

	userIndex   map[int64]int
	itemIndex   map[int64]int
	indexToUser []int64
	indexToItem []int64

	userBias []float64
	itemBias []float64

	// userFactors is users x k, itemFactors items x k.
	userFactors [][]float64
	itemFactors [][]float64
}

// Fit trains a model on the observed (user, item, rating) triples. Factors
// start at small random values drawn from the seeded source; each epoch
// walks the triples in input order and applies the gradient step
//
//	factor += lr * (err*otherFactor - reg*factor)
//
// with the matching bias updates. Training always runs the full epoch
// count; when the final epoch still improved training RMSE by more than
// the tolerance, a warning is logged so callers can re-run with more
// epochs.
//
// Returns ErrEmptyInput when ratings is empty.
func Fit(ratings []recommend.Rating, cfg Config) (*Model, error) {
	if len(ratings) == 0 {
		return nil, fmt.Errorf("factorization: no ratings to fit: %w", recommend.ErrEmptyInput)
	}
	cfg = cfg.withDefaults()

	m := &Model{
		cfg:       cfg,
		userIndex: make(map[int64]int),
		itemIndex: make(map[int64]int),
	}

	var sum float64
	for _, r := range ratings {
		if _, ok := m.userIndex[r.UserID]; !ok {
			m.userIndex[r.UserID] = len(m.indexToUser)
			m.indexToUser = append(m.indexToUser, r.UserID)
		}
		if _, ok := m.itemIndex[r.ItemID]; !ok {
			m.itemIndex[r.ItemID] = len(m.indexToItem)
			m.indexToItem = append(m.indexToItem, r.ItemID)
		}
		sum += r.Value
	}
	m.globalMean = sum / float64(len(ratings))

	numUsers := len(m.indexToUser)
	numItems := len(m.indexToItem)
	k := cfg.Factors

	rng := rand.New(rand.NewSource(cfg.Seed))
	m.userBias = make([]float64, numUsers)
	m.itemBias = make([]float64, numItems)
	m.userFactors = make([][]float64, numUsers)
	m.itemFactors = make([][]float64, numItems)
	for u := range m.userFactors {
		m.userFactors[u] = randomVector(rng, k)
	}
	for i := range m.itemFactors {
		m.itemFactors[i] = randomVector(rng, k)
	}

	lr := cfg.LearningRate
	reg := cfg.Regularization

	prevRMSE := math.Inf(1)
	var lastImprovement float64
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		var sqErr float64
		for _, r := range ratings {
			u := m.userIndex[r.UserID]
			i := m.itemIndex[r.ItemID]

			pu := m.userFactors[u]
			qi := m.itemFactors[i]

			est := m.globalMean + m.userBias[u] + m.itemBias[i] + dot(pu, qi)
			err := r.Value - est
			sqErr += err * err

			m.userBias[u] += lr * (err - reg*m.userBias[u])
			m.itemBias[i] += lr * (err - reg*m.itemBias[i])
			for f := 0; f < k; f++ {
				puf := pu[f]
				pu[f] += lr * (err*qi[f] - reg*puf)
				qi[f] += lr * (err*puf - reg*qi[f])
			}
		}

		rmse := math.Sqrt(sqErr / float64(len(ratings)))
		lastImprovement = prevRMSE - rmse
		prevRMSE = rmse
	}

	if lastImprovement > convergenceTolerance {
		logging.Warn().
			Float64("last_epoch_improvement", lastImprovement).
			Int("epochs", cfg.Epochs).
			Msg("training RMSE still improving after final epoch; convergence not guaranteed")
	}

	return m, nil
}

func randomVector(rng *rand.Rand, k int) []float64 {
	v := make([]float64, k)
	for f := range v {
		v[f] = rng.NormFloat64() * 0.1
	}
	return v
}

func dot(a, b []float64) float64 {
	var sum float64
	for f := range a {
		sum += a[f] * b[f]
	}
	return sum
}

// Predict returns the estimated rating for the (user, item) pair. The
// estimate is deliberately NOT clamped to the rating scale, matching the
// reference behavior; callers needing bounded output clamp downstream.
//
// Returns ErrUnknownIdentifier when either side was absent from training.
func (m *Model) Predict(userID, itemID int64) (float64, error) {
	u, okU := m.userIndex[userID]
	if !okU {
		return 0, fmt.Errorf("factorization: user %d: %w", userID, recommend.ErrUnknownIdentifier)
	}
	i, okI := m.itemIndex[itemID]
	if !okI {
		return 0, fmt.Errorf("factorization: item %d: %w", itemID, recommend.ErrUnknownIdentifier)
	}
	return m.globalMean + m.userBias[u] + m.itemBias[i] + dot(m.userFactors[u], m.itemFactors[i]), nil
}

// estimate is Predict with a baseline fallback: unknown users or items
// contribute only the components the model knows (at minimum the global
// mean). Used for held-out evaluation, where unseen pairs are expected.
func (m *Model) estimate(userID, itemID int64) float64 {
	est := m.globalMean
	u, okU := m.userIndex[userID]
	if okU {
		est += m.userBias[u]
	}
	i, okI := m.itemIndex[itemID]
	if okI {
		est += m.itemBias[i]
	}
	if okU && okI {
		est += dot(m.userFactors[u], m.itemFactors[i])
	}
	return est
}

// GlobalMean returns the mean of the training ratings.
func (m *Model) GlobalMean() float64 { return m.globalMean }

// NumUsers returns the number of distinct users seen during training.
func (m *Model) NumUsers() int { return len(m.indexToUser) }

// NumItems returns the number of distinct items seen during training.
func (m *Model) NumItems() int { return len(m.indexToItem) }

// Config returns the hyperparameters the model was fitted with.
func (m *Model) Config() Config { return m.cfg }
