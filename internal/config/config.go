// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

// Package config loads and validates Basketry configuration.
//
// Configuration is layered with koanf v2: built-in defaults, then an
// optional YAML file, then environment variables. Precedence is
// ENV > file > defaults.
package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the toolkit.
type Config struct {
	Dataset       DatasetConfig       `koanf:"dataset"`
	Basket        BasketConfig        `koanf:"basket"`
	Rules         RulesConfig         `koanf:"rules"`
	Content       ContentConfig       `koanf:"content"`
	Neighborhood  NeighborhoodConfig  `koanf:"neighborhood"`
	Factorization FactorizationConfig `koanf:"factorization"`
	Logging       LoggingConfig       `koanf:"logging"`
}

// DatasetConfig points at the CSV inputs. Paths are only required by the
// commands that read them, so none are mandatory here.
type DatasetConfig struct {
	// TransactionsPath is the retail invoice-line CSV.
	TransactionsPath string `koanf:"transactions_path"`

	// MoviesPath is the movie metadata CSV (identifier, title, genres).
	MoviesPath string `koanf:"movies_path"`

	// OverviewsPath is the movie overview text CSV (title, overview).
	OverviewsPath string `koanf:"overviews_path"`

	// RatingsPath is the explicit ratings CSV (user, movie, rating, timestamp).
	RatingsPath string `koanf:"ratings_path"`
}

// BasketConfig controls transaction cleaning and basket construction.
type BasketConfig struct {
	// LowQuantile and HighQuantile bound the outlier clipping window.
	LowQuantile  float64 `koanf:"low_quantile" validate:"gte=0,lt=1"`
	HighQuantile float64 `koanf:"high_quantile" validate:"gt=0,lte=1,gtfield=LowQuantile"`

	// Country restricts baskets to a single invoice country when set.
	Country string `koanf:"country"`

	// UseItemID keys baskets by stock code instead of description.
	UseItemID bool `koanf:"use_item_id"`
}

// RulesConfig controls frequent-itemset mining and rule derivation.
type RulesConfig struct {
	MinSupport float64 `koanf:"min_support" validate:"gt=0,lte=1"`

	// Metric selects the rule filter: support, confidence, or lift.
	Metric       string  `koanf:"metric" validate:"omitempty,oneof=support confidence lift"`
	MinThreshold float64 `koanf:"min_threshold" validate:"gte=0"`

	// Count is the default recommendation list length.
	Count int `koanf:"count" validate:"gt=0"`
}

// ContentConfig controls the TF-IDF similarity index.
type ContentConfig struct {
	// Count is the default similar-title list length.
	Count int `koanf:"count" validate:"gt=0"`
}

// NeighborhoodConfig controls the correlation-based strategies.
type NeighborhoodConfig struct {
	// MinRaters drops items whose distinct rater count does not exceed it.
	MinRaters int `koanf:"min_raters" validate:"gte=0"`

	// RatioPct is the minimum overlap with the reference user's items,
	// as a percentage, for a user to qualify as a neighbor candidate.
	RatioPct float64 `koanf:"ratio_pct" validate:"gt=0,lte=100"`

	// CorrThreshold is the minimum Pearson correlation for a neighbor.
	CorrThreshold float64 `koanf:"corr_threshold" validate:"gte=-1,lte=1"`

	// ScoreThreshold is the minimum weighted mean rating to recommend.
	ScoreThreshold float64 `koanf:"score_threshold"`

	// Count is the default neighbor list length.
	Count int `koanf:"count" validate:"gt=0"`
}

// FactorizationConfig controls the latent-factor model.
type FactorizationConfig struct {
	Factors        int     `koanf:"factors" validate:"gt=0"`
	Epochs         int     `koanf:"epochs" validate:"gt=0"`
	LearningRate   float64 `koanf:"learning_rate" validate:"gt=0"`
	Regularization float64 `koanf:"regularization" validate:"gt=0"`
	Seed           int64   `koanf:"seed"`

	// TestFraction is the held-out share for evaluation and grid search.
	TestFraction float64 `koanf:"test_fraction" validate:"gt=0,lt=1"`

	// ModelPath is where fitted model snapshots are written.
	ModelPath string `koanf:"model_path"`

	// NumWorkers bounds concurrent grid-search trials. Zero means GOMAXPROCS.
	NumWorkers int `koanf:"num_workers" validate:"gte=0"`
}

// LoggingConfig mirrors the logging package configuration.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("configuration field %s failed %q validation (value %v)",
				fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
