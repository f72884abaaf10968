// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

package engine

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tomtom215/basketry/internal/config"
	"github.com/tomtom215/basketry/internal/logging"
	"github.com/tomtom215/basketry/internal/recommend"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Rules.MinSupport = 0.3
	cfg.Rules.MinThreshold = 0.3
	cfg.Neighborhood.MinRaters = 0

	var buf bytes.Buffer
	eng, err := New(cfg, logging.NewTestLogger(&buf))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return eng
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Rules.MinSupport = 2 // outside (0, 1]
	var buf bytes.Buffer
	if _, err := New(cfg, logging.NewTestLogger(&buf)); err == nil {
		t.Error("New() with invalid config expected error")
	}
}

func TestQueriesBeforeBuildReturnNotTrained(t *testing.T) {
	eng := testEngine(t)

	if _, err := eng.CartRecommendations("85048", 5); !errors.Is(err, recommend.ErrNotTrained) {
		t.Errorf("CartRecommendations() error = %v, want ErrNotTrained", err)
	}
	if _, err := eng.SimilarTitles("Alpha", 5); !errors.Is(err, recommend.ErrNotTrained) {
		t.Errorf("SimilarTitles() error = %v, want ErrNotTrained", err)
	}
	if _, err := eng.ItemNeighbors(10, 5); !errors.Is(err, recommend.ErrNotTrained) {
		t.Errorf("ItemNeighbors() error = %v, want ErrNotTrained", err)
	}
	if _, err := eng.UserRecommendations(1); !errors.Is(err, recommend.ErrNotTrained) {
		t.Errorf("UserRecommendations() error = %v, want ErrNotTrained", err)
	}
	if _, err := eng.PredictRating(1, 10); !errors.Is(err, recommend.ErrNotTrained) {
		t.Errorf("PredictRating() error = %v, want ErrNotTrained", err)
	}
	if err := eng.SaveModel(filepath.Join(t.TempDir(), "m.json")); !errors.Is(err, recommend.ErrNotTrained) {
		t.Errorf("SaveModel() error = %v, want ErrNotTrained", err)
	}
}

func TestBuildRulesAndQuery(t *testing.T) {
	eng := testEngine(t)

	tx := func(invoice, item string) recommend.Transaction {
		return recommend.Transaction{InvoiceID: invoice, ItemID: item, ItemLabel: item, Quantity: 1, UnitPrice: 1}
	}
	txs := []recommend.Transaction{
		tx("A", "x"), tx("A", "y"),
		tx("B", "x"), tx("B", "y"),
		tx("C", "x"),
	}
	if err := eng.BuildRules(txs); err != nil {
		t.Fatalf("BuildRules() error = %v", err)
	}

	items, err := eng.CartRecommendations("x", 5)
	if err != nil {
		t.Fatalf("CartRecommendations() error = %v", err)
	}
	if len(items) != 1 || items[0] != "y" {
		t.Errorf("CartRecommendations(x) = %v, want [y]", items)
	}

	// count <= 0 falls back to the configured default.
	if _, err := eng.CartRecommendations("x", 0); err != nil {
		t.Errorf("CartRecommendations(count=0) error = %v", err)
	}
}

func TestBuildRulesZeroRulesIsNotUntrained(t *testing.T) {
	eng := testEngine(t)
	eng.cfg.Rules.Metric = "lift"
	eng.cfg.Rules.MinThreshold = 100 // no rule can reach this lift

	tx := func(invoice, item string) recommend.Transaction {
		return recommend.Transaction{InvoiceID: invoice, ItemID: item, ItemLabel: item, Quantity: 1, UnitPrice: 1}
	}
	txs := []recommend.Transaction{
		tx("A", "x"), tx("A", "y"),
		tx("B", "x"), tx("B", "y"),
		tx("C", "x"),
	}
	if err := eng.BuildRules(txs); err != nil {
		t.Fatalf("BuildRules() error = %v", err)
	}

	items, err := eng.CartRecommendations("x", 3)
	if err != nil {
		t.Fatalf("CartRecommendations() after empty build error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("CartRecommendations(x) = %v, want empty", items)
	}
}

func TestBuildSimilarityAndQuery(t *testing.T) {
	eng := testEngine(t)

	docs := []recommend.Document{
		{Title: "Alpha", Body: "space adventure distant stars"},
		{Title: "Beta", Body: "space adventure distant stars"},
		{Title: "Gamma", Body: "romantic drama postwar paris"},
	}
	if err := eng.BuildSimilarity(docs); err != nil {
		t.Fatalf("BuildSimilarity() error = %v", err)
	}

	scored, err := eng.SimilarTitles("Alpha", 1)
	if err != nil {
		t.Fatalf("SimilarTitles() error = %v", err)
	}
	if len(scored) != 1 || scored[0].Title != "Beta" {
		t.Errorf("SimilarTitles(Alpha) = %+v, want Beta first", scored)
	}
}

func TestBuildRatingsAndQueries(t *testing.T) {
	eng := testEngine(t)

	r := func(user, item int64, v float64) recommend.Rating {
		return recommend.Rating{UserID: user, ItemID: item, Value: v}
	}
	ratings := []recommend.Rating{
		r(1, 10, 4), r(1, 20, 2),
		r(2, 10, 5), r(2, 20, 3), r(2, 30, 5),
		r(3, 10, 1), r(3, 20, 5),
	}
	entries := []recommend.CatalogEntry{{ItemID: 10, Title: "Ten"}, {ItemID: 20, Title: "Twenty"}, {ItemID: 30, Title: "Thirty"}}

	if err := eng.BuildRatings(ratings, entries); err != nil {
		t.Fatalf("BuildRatings() error = %v", err)
	}

	neighbors, err := eng.ItemNeighbors(10, 5)
	if err != nil {
		t.Fatalf("ItemNeighbors() error = %v", err)
	}
	if len(neighbors) == 0 {
		t.Error("ItemNeighbors() returned no neighbors")
	}

	recs, err := eng.UserRecommendations(1)
	if err != nil {
		t.Fatalf("UserRecommendations() error = %v", err)
	}
	for _, rec := range recs {
		if rec.Title == "" {
			t.Errorf("recommendation %+v missing catalog title", rec)
		}
	}
}

func TestFitPredictSaveLoad(t *testing.T) {
	eng := testEngine(t)

	var ratings []recommend.Rating
	for user := int64(1); user <= 4; user++ {
		for item := int64(10); item <= 13; item++ {
			v := 2.0
			if (user+item)%2 == 0 {
				v = 4.0
			}
			ratings = append(ratings, recommend.Rating{UserID: user, ItemID: item, Value: v})
		}
	}
	if err := eng.FitModel(ratings); err != nil {
		t.Fatalf("FitModel() error = %v", err)
	}

	est, err := eng.PredictRating(1, 10)
	if err != nil {
		t.Fatalf("PredictRating() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.json")
	if err := eng.SaveModel(path); err != nil {
		t.Fatalf("SaveModel() error = %v", err)
	}

	eng2 := testEngine(t)
	if err := eng2.LoadModel(path); err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}
	got, err := eng2.PredictRating(1, 10)
	if err != nil {
		t.Fatalf("PredictRating() after load error = %v", err)
	}
	if got != est {
		t.Errorf("loaded engine predicts %v, original %v", got, est)
	}

	if _, err := eng.PredictRating(999, 10); !errors.Is(err, recommend.ErrUnknownIdentifier) {
		t.Errorf("PredictRating(unknown) error = %v, want ErrUnknownIdentifier", err)
	}
}
