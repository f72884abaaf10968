// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.Basket.LowQuantile != 0.01 || cfg.Basket.HighQuantile != 0.99 {
		t.Errorf("basket quantiles = %v/%v, want 0.01/0.99", cfg.Basket.LowQuantile, cfg.Basket.HighQuantile)
	}
	if cfg.Neighborhood.CorrThreshold != 0.65 || cfg.Neighborhood.ScoreThreshold != 3.5 {
		t.Errorf("neighborhood thresholds = %v/%v, want 0.65/3.5", cfg.Neighborhood.CorrThreshold, cfg.Neighborhood.ScoreThreshold)
	}
	if cfg.Factorization.Factors != 100 || cfg.Factorization.Epochs != 20 {
		t.Errorf("factorization = %d factors %d epochs, want 100/20", cfg.Factorization.Factors, cfg.Factorization.Epochs)
	}
	if cfg.Factorization.LearningRate != 0.005 || cfg.Factorization.Regularization != 0.02 {
		t.Errorf("factorization rates = %v/%v, want 0.005/0.02", cfg.Factorization.LearningRate, cfg.Factorization.Regularization)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min support above one", func(c *Config) { c.Rules.MinSupport = 1.5 }},
		{"zero rule count", func(c *Config) { c.Rules.Count = 0 }},
		{"unknown metric", func(c *Config) { c.Rules.Metric = "jaccard" }},
		{"quantiles inverted", func(c *Config) { c.Basket.LowQuantile = 0.9; c.Basket.HighQuantile = 0.1 }},
		{"ratio above hundred", func(c *Config) { c.Neighborhood.RatioPct = 150 }},
		{"correlation above one", func(c *Config) { c.Neighborhood.CorrThreshold = 1.5 }},
		{"test fraction one", func(c *Config) { c.Factorization.TestFraction = 1 }},
		{"negative learning rate", func(c *Config) { c.Factorization.LearningRate = -0.1 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected error")
			}
		})
	}
}

func TestLoadWithKoanfLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "basketry.yaml")
	yaml := []byte("rules:\n  min_support: 0.05\nneighborhood:\n  min_raters: 500\n")
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("BASKETRY_NEIGHBORHOOD_MIN_RATERS", "250")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	// File overrides default.
	if cfg.Rules.MinSupport != 0.05 {
		t.Errorf("Rules.MinSupport = %v, want file value 0.05", cfg.Rules.MinSupport)
	}
	// Env overrides file.
	if cfg.Neighborhood.MinRaters != 250 {
		t.Errorf("Neighborhood.MinRaters = %d, want env value 250", cfg.Neighborhood.MinRaters)
	}
	// Untouched settings keep defaults.
	if cfg.Factorization.Factors != 100 {
		t.Errorf("Factorization.Factors = %d, want default 100", cfg.Factorization.Factors)
	}
}

func TestLoadWithKoanfRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "basketry.yaml")
	if err := os.WriteFile(path, []byte("rules:\n  min_support: 7\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)

	if _, err := LoadWithKoanf(); err == nil {
		t.Error("LoadWithKoanf() with out-of-range value expected error")
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"BASKETRY_RULES_MIN_SUPPORT", "rules.min_support"},
		{"BASKETRY_DATASET_RATINGS_PATH", "dataset.ratings_path"},
		{"BASKETRY_LOG_LEVEL", "logging.level"},
		{"BASKETRY_UNKNOWN_KEY", ""},
		{"PATH", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
