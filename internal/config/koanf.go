// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"basketry.yaml",
	"basketry.yml",
	"/etc/basketry/config.yaml",
	"/etc/basketry/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default returns a Config with every default applied. The rule and
// neighborhood thresholds match the reference analysis values.
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{},
		Basket: BasketConfig{
			LowQuantile:  0.01,
			HighQuantile: 0.99,
			Country:      "",
			UseItemID:    true,
		},
		Rules: RulesConfig{
			MinSupport:   0.01,
			Metric:       "support",
			MinThreshold: 0.01,
			Count:        5,
		},
		Content: ContentConfig{
			Count: 10,
		},
		Neighborhood: NeighborhoodConfig{
			MinRaters:      1000,
			RatioPct:       60,
			CorrThreshold:  0.65,
			ScoreThreshold: 3.5,
			Count:          10,
		},
		Factorization: FactorizationConfig{
			Factors:        100,
			Epochs:         20,
			LearningRate:   0.005,
			Regularization: 0.02,
			Seed:           0,
			TestFraction:   0.2,
			ModelPath:      "basketry-model.json",
			NumWorkers:     0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadWithKoanf loads configuration using koanf v2 with layered sources:
//  1. Defaults: built-in values from Default
//  2. Config file: optional YAML file, if one exists
//  3. Environment variables: override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// BASKETRY_RULES_MIN_SUPPORT -> rules.min_support
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the first file found, or empty string if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envPrefix scopes the variables this process reads so unrelated
// environment entries never pollute the configuration.
const envPrefix = "BASKETRY_"

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - BASKETRY_DATASET_TRANSACTIONS_PATH -> dataset.transactions_path
//   - BASKETRY_RULES_MIN_SUPPORT -> rules.min_support
//   - BASKETRY_LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	if !strings.HasPrefix(key, envPrefix) {
		return ""
	}
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	envMappings := map[string]string{
		"dataset_transactions_path": "dataset.transactions_path",
		"dataset_movies_path":       "dataset.movies_path",
		"dataset_overviews_path":    "dataset.overviews_path",
		"dataset_ratings_path":      "dataset.ratings_path",

		"basket_low_quantile":  "basket.low_quantile",
		"basket_high_quantile": "basket.high_quantile",
		"basket_country":       "basket.country",
		"basket_use_item_id":   "basket.use_item_id",

		"rules_min_support":   "rules.min_support",
		"rules_metric":        "rules.metric",
		"rules_min_threshold": "rules.min_threshold",
		"rules_count":         "rules.count",

		"content_count": "content.count",

		"neighborhood_min_raters":      "neighborhood.min_raters",
		"neighborhood_ratio_pct":       "neighborhood.ratio_pct",
		"neighborhood_corr_threshold":  "neighborhood.corr_threshold",
		"neighborhood_score_threshold": "neighborhood.score_threshold",
		"neighborhood_count":           "neighborhood.count",

		"factorization_factors":        "factorization.factors",
		"factorization_epochs":         "factorization.epochs",
		"factorization_learning_rate":  "factorization.learning_rate",
		"factorization_regularization": "factorization.regularization",
		"factorization_seed":           "factorization.seed",
		"factorization_test_fraction":  "factorization.test_fraction",
		"factorization_model_path":     "factorization.model_path",
		"factorization_num_workers":    "factorization.num_workers",

		"log_level":  "logging.level",
		"log_format": "logging.format",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
