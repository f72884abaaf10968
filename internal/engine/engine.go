// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

// Package engine ties the four recommendation strategies behind one
// concurrency-safe facade. Each strategy is built independently from its
// own input; queries against a strategy that has not been built return
// ErrNotTrained.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/basketry/internal/config"
	"github.com/tomtom215/basketry/internal/recommend"
	"github.com/tomtom215/basketry/internal/recommend/arl"
	"github.com/tomtom215/basketry/internal/recommend/basket"
	"github.com/tomtom215/basketry/internal/recommend/content"
	"github.com/tomtom215/basketry/internal/recommend/factorization"
	"github.com/tomtom215/basketry/internal/recommend/neighborhood"
)

// Engine coordinates the association-rule, content, neighborhood, and
// factorization strategies. It is safe for concurrent use: builds take the
// write lock, queries the read lock.
type Engine struct {
	cfg    *config.Config
	logger zerolog.Logger

	mu         sync.RWMutex
	rules      []arl.Rule
	rulesBuilt bool
	index      *content.SimilarityIndex
	ratings    *neighborhood.RatingMatrix
	model      *factorization.Model
	catalog    recommend.Catalog
}

// New creates an engine. A nil cfg uses defaults.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg *config.Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Engine{
		cfg:    cfg,
		logger: logger.With().Str("component", "engine").Logger(),
	}, nil
}

// BuildRules cleans the transactions, builds the basket matrix, mines
// frequent itemsets, and derives association rules with the configured
// metric and thresholds.
func (e *Engine) BuildRules(txs []recommend.Transaction) error {
	start := time.Now()

	cleaned := basket.Clean(txs, basket.CleanOptions{
		LowQuantile:  e.cfg.Basket.LowQuantile,
		HighQuantile: e.cfg.Basket.HighQuantile,
	})

	m, err := basket.Build(cleaned, basket.Options{
		Country:   e.cfg.Basket.Country,
		UseItemID: e.cfg.Basket.UseItemID,
	})
	if err != nil {
		return fmt.Errorf("build basket matrix: %w", err)
	}

	itemsets, err := arl.FrequentItemsets(m, e.cfg.Rules.MinSupport)
	if err != nil {
		return fmt.Errorf("mine frequent itemsets: %w", err)
	}

	rules, err := arl.DeriveRules(itemsets, arl.Metric(e.cfg.Rules.Metric), e.cfg.Rules.MinThreshold)
	if err != nil {
		return fmt.Errorf("derive rules: %w", err)
	}

	e.mu.Lock()
	e.rules = rules
	e.rulesBuilt = true
	e.mu.Unlock()

	e.logger.Info().
		Int("transactions", len(txs)).
		Int("cleaned", len(cleaned)).
		Int("invoices", m.NumInvoices()).
		Int("itemsets", len(itemsets)).
		Int("rules", len(rules)).
		Dur("elapsed", time.Since(start)).
		Msg("association rules built")
	return nil
}

// BuildSimilarity builds the TF-IDF similarity index over the documents.
func (e *Engine) BuildSimilarity(docs []recommend.Document) error {
	start := time.Now()

	idx, err := content.BuildIndex(docs)
	if err != nil {
		return fmt.Errorf("build similarity index: %w", err)
	}

	e.mu.Lock()
	e.index = idx
	e.mu.Unlock()

	e.logger.Info().
		Int("documents", len(docs)).
		Int("titles", idx.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("similarity index built")
	return nil
}

// BuildRatings builds the rating matrix used by the neighborhood
// strategies and stores the catalog used to resolve titles.
func (e *Engine) BuildRatings(ratings []recommend.Rating, entries []recommend.CatalogEntry) error {
	start := time.Now()

	m, err := neighborhood.BuildRatingMatrix(ratings, e.cfg.Neighborhood.MinRaters)
	if err != nil {
		return fmt.Errorf("build rating matrix: %w", err)
	}

	e.mu.Lock()
	e.ratings = m
	e.catalog = recommend.NewCatalog(entries)
	e.mu.Unlock()

	e.logger.Info().
		Int("ratings", len(ratings)).
		Int("users", m.NumUsers()).
		Int("items", m.NumItems()).
		Dur("elapsed", time.Since(start)).
		Msg("rating matrix built")
	return nil
}

// FitModel trains the latent-factor model on the ratings.
func (e *Engine) FitModel(ratings []recommend.Rating) error {
	start := time.Now()

	model, err := factorization.Fit(ratings, factorization.Config{
		Factors:        e.cfg.Factorization.Factors,
		Epochs:         e.cfg.Factorization.Epochs,
		LearningRate:   e.cfg.Factorization.LearningRate,
		Regularization: e.cfg.Factorization.Regularization,
		Seed:           e.cfg.Factorization.Seed,
	})
	if err != nil {
		return fmt.Errorf("fit model: %w", err)
	}

	e.mu.Lock()
	e.model = model
	e.mu.Unlock()

	e.logger.Info().
		Int("ratings", len(ratings)).
		Int("users", model.NumUsers()).
		Int("items", model.NumItems()).
		Dur("elapsed", time.Since(start)).
		Msg("latent-factor model fitted")
	return nil
}

// GridSearch runs a hyperparameter sweep on ratings and returns the best
// trial plus all trials sorted by RMSE. The engine's own model is not
// replaced; callers refit with the winning configuration if desired.
func (e *Engine) GridSearch(ctx context.Context, ratings []recommend.Rating, grid factorization.ParamGrid) (factorization.TrialResult, []factorization.TrialResult, error) {
	return factorization.GridSearch(ctx, ratings, grid, factorization.SearchOptions{
		TestFraction: e.cfg.Factorization.TestFraction,
		NumWorkers:   e.cfg.Factorization.NumWorkers,
		Seed:         e.cfg.Factorization.Seed,
	})
}

// CartRecommendations returns up to count items associated with itemID by
// the mined rules, strongest lift first.
func (e *Engine) CartRecommendations(itemID string, count int) ([]string, error) {
	e.mu.RLock()
	rules := e.rules
	built := e.rulesBuilt
	e.mu.RUnlock()

	// A strict metric threshold can leave zero rules; that is still a
	// completed build, not an untrained engine.
	if !built {
		return nil, fmt.Errorf("association rules not built: %w", recommend.ErrNotTrained)
	}
	if count <= 0 {
		count = e.cfg.Rules.Count
	}
	return arl.Recommend(rules, itemID, count), nil
}

// SimilarTitles returns up to count titles most similar to title by
// TF-IDF cosine similarity.
func (e *Engine) SimilarTitles(title string, count int) ([]recommend.ScoredTitle, error) {
	e.mu.RLock()
	idx := e.index
	e.mu.RUnlock()

	if idx == nil {
		return nil, fmt.Errorf("similarity index not built: %w", recommend.ErrNotTrained)
	}
	if count <= 0 {
		count = e.cfg.Content.Count
	}
	return idx.RecommendSimilar(title, count)
}

// ItemNeighbors returns up to count items whose rating columns correlate
// most strongly with itemID.
func (e *Engine) ItemNeighbors(itemID int64, count int) ([]neighborhood.Neighbor, error) {
	e.mu.RLock()
	m := e.ratings
	e.mu.RUnlock()

	if m == nil {
		return nil, fmt.Errorf("rating matrix not built: %w", recommend.ErrNotTrained)
	}
	if count <= 0 {
		count = e.cfg.Neighborhood.Count
	}
	return m.ItemNeighbors(itemID, count)
}

// UserRecommendations returns items recommended for userID by correlated
// neighbors' weighted ratings.
func (e *Engine) UserRecommendations(userID int64) ([]recommend.Recommendation, error) {
	e.mu.RLock()
	m := e.ratings
	catalog := e.catalog
	e.mu.RUnlock()

	if m == nil {
		return nil, fmt.Errorf("rating matrix not built: %w", recommend.ErrNotTrained)
	}
	return m.UserBasedRecommend(userID, neighborhood.UserOptions{
		RatioPct:       e.cfg.Neighborhood.RatioPct,
		CorrThreshold:  e.cfg.Neighborhood.CorrThreshold,
		ScoreThreshold: e.cfg.Neighborhood.ScoreThreshold,
	}, catalog)
}

// PredictRating returns the model's estimated rating for the pair.
func (e *Engine) PredictRating(userID, itemID int64) (float64, error) {
	e.mu.RLock()
	model := e.model
	e.mu.RUnlock()

	if model == nil {
		return 0, fmt.Errorf("latent-factor model not fitted: %w", recommend.ErrNotTrained)
	}
	return model.Predict(userID, itemID)
}

// SaveModel writes the fitted latent-factor model to path.
func (e *Engine) SaveModel(path string) error {
	e.mu.RLock()
	model := e.model
	e.mu.RUnlock()

	if model == nil {
		return fmt.Errorf("latent-factor model not fitted: %w", recommend.ErrNotTrained)
	}
	return model.Save(path)
}

// LoadModel replaces the engine's latent-factor model with a snapshot.
func (e *Engine) LoadModel(path string) error {
	model, err := factorization.Load(path)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.model = model
	e.mu.Unlock()
	return nil
}
