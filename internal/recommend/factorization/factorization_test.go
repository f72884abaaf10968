// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

package factorization

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/basketry/internal/recommend"
)

func rating(user, item int64, value float64) recommend.Rating {
	return recommend.Rating{UserID: user, ItemID: item, Value: value}
}

// trainingRatings is a small block-structured set: users 1-3 like items
// 10-12 and dislike 20-22, users 4-6 the opposite. The structure is easy
// for a low-rank model to fit.
func trainingRatings() []recommend.Rating {
	var out []recommend.Rating
	for user := int64(1); user <= 3; user++ {
		for _, item := range []int64{10, 11, 12} {
			out = append(out, rating(user, item, 5))
		}
		for _, item := range []int64{20, 21, 22} {
			out = append(out, rating(user, item, 1))
		}
	}
	for user := int64(4); user <= 6; user++ {
		for _, item := range []int64{10, 11, 12} {
			out = append(out, rating(user, item, 1))
		}
		for _, item := range []int64{20, 21, 22} {
			out = append(out, rating(user, item, 5))
		}
	}
	return out
}

func TestFitAndPredict(t *testing.T) {
	cfg := Config{Factors: 4, Epochs: 200, LearningRate: 0.05, Regularization: 0.02, Seed: 7}
	m, err := Fit(trainingRatings(), cfg)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if m.NumUsers() != 6 || m.NumItems() != 6 {
		t.Fatalf("Fit() indexed %d users and %d items, want 6 and 6", m.NumUsers(), m.NumItems())
	}
	if got := m.GlobalMean(); math.Abs(got-3.0) > 1e-9 {
		t.Errorf("GlobalMean() = %v, want 3", got)
	}

	tests := []struct {
		user, item int64
		want       float64
	}{
		{1, 10, 5},
		{1, 20, 1},
		{4, 10, 1},
		{4, 22, 5},
	}
	for _, tt := range tests {
		got, err := m.Predict(tt.user, tt.item)
		if err != nil {
			t.Fatalf("Predict(%d, %d) error = %v", tt.user, tt.item, err)
		}
		if math.Abs(got-tt.want) > 0.5 {
			t.Errorf("Predict(%d, %d) = %v, want within 0.5 of %v", tt.user, tt.item, got, tt.want)
		}
	}
}

func TestFitDeterministicForSeed(t *testing.T) {
	cfg := Config{Factors: 4, Epochs: 20, LearningRate: 0.01, Regularization: 0.02, Seed: 11}
	m1, err := Fit(trainingRatings(), cfg)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	m2, err := Fit(trainingRatings(), cfg)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	p1, _ := m1.Predict(1, 10)
	p2, _ := m2.Predict(1, 10)
	if p1 != p2 {
		t.Errorf("same seed gave different predictions: %v vs %v", p1, p2)
	}
}

func TestFitErrors(t *testing.T) {
	if _, err := Fit(nil, DefaultConfig()); !errors.Is(err, recommend.ErrEmptyInput) {
		t.Errorf("Fit(nil) error = %v, want ErrEmptyInput", err)
	}
}

func TestPredictUnknownIdentifiers(t *testing.T) {
	m, err := Fit(trainingRatings(), Config{Factors: 2, Epochs: 1, Seed: 1})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if _, err := m.Predict(999, 10); !errors.Is(err, recommend.ErrUnknownIdentifier) {
		t.Errorf("Predict(unknown user) error = %v, want ErrUnknownIdentifier", err)
	}
	if _, err := m.Predict(1, 999); !errors.Is(err, recommend.ErrUnknownIdentifier) {
		t.Errorf("Predict(unknown item) error = %v, want ErrUnknownIdentifier", err)
	}
}

func TestEvaluateFallsBackForColdPairs(t *testing.T) {
	m, err := Fit(trainingRatings(), Config{Factors: 2, Epochs: 5, Seed: 1})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	// An entirely unseen pair scores against the global mean instead of
	// erroring, so the RMSE is |3 - mean| exactly.
	rmse, err := Evaluate(m, []recommend.Rating{rating(999, 999, 3)})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if want := math.Abs(3 - m.GlobalMean()); math.Abs(rmse-want) > 1e-9 {
		t.Errorf("Evaluate() cold-pair RMSE = %v, want %v", rmse, want)
	}

	if _, err := Evaluate(m, nil); !errors.Is(err, recommend.ErrEmptyInput) {
		t.Errorf("Evaluate(nil) error = %v, want ErrEmptyInput", err)
	}
}

func TestTrainTestSplit(t *testing.T) {
	ratings := trainingRatings() // 36 ratings
	train, test, err := TrainTestSplit(ratings, 0.25, 3)
	if err != nil {
		t.Fatalf("TrainTestSplit() error = %v", err)
	}
	if len(test) != 9 || len(train) != 27 {
		t.Errorf("TrainTestSplit() sizes = %d/%d, want 27/9", len(train), len(test))
	}

	// Same seed reproduces the same split.
	_, test2, err := TrainTestSplit(ratings, 0.25, 3)
	if err != nil {
		t.Fatalf("TrainTestSplit() error = %v", err)
	}
	for i := range test {
		if test[i] != test2[i] {
			t.Fatal("TrainTestSplit() not deterministic for a fixed seed")
		}
	}

	if _, _, err := TrainTestSplit(ratings, 0, 3); err == nil {
		t.Error("TrainTestSplit(fraction=0) expected error")
	}
	if _, _, err := TrainTestSplit(ratings, 1, 3); err == nil {
		t.Error("TrainTestSplit(fraction=1) expected error")
	}
	if _, _, err := TrainTestSplit(nil, 0.2, 3); !errors.Is(err, recommend.ErrEmptyInput) {
		t.Errorf("TrainTestSplit(nil) error = %v, want ErrEmptyInput", err)
	}
}

func TestGridSearch(t *testing.T) {
	grid := ParamGrid{
		Factors:       []int{2, 4},
		Epochs:        []int{5, 20},
		LearningRates: []float64{0.05},
	}
	best, trials, err := GridSearch(context.Background(), trainingRatings(), grid, SearchOptions{
		TestFraction: 0.25,
		NumWorkers:   2,
		Seed:         5,
	})
	if err != nil {
		t.Fatalf("GridSearch() error = %v", err)
	}
	if len(trials) != 4 {
		t.Fatalf("GridSearch() ran %d trials, want 4", len(trials))
	}

	seen := make(map[string]struct{}, len(trials))
	for i, tr := range trials {
		if tr.TrialID == "" {
			t.Error("trial without an ID")
		}
		if _, dup := seen[tr.TrialID]; dup {
			t.Errorf("duplicate trial ID %s", tr.TrialID)
		}
		seen[tr.TrialID] = struct{}{}
		if tr.RMSE < best.RMSE {
			t.Errorf("best RMSE %v exceeds trial RMSE %v", best.RMSE, tr.RMSE)
		}
		if i > 0 && trials[i-1].RMSE > tr.RMSE {
			t.Error("GridSearch() trials not sorted by RMSE ascending")
		}
	}
	if best.TrialID != trials[0].TrialID {
		t.Error("GridSearch() best is not the first sorted trial")
	}
}

func TestGridSearchCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	grid := ParamGrid{Factors: []int{2}, Epochs: []int{5}}
	_, _, err := GridSearch(ctx, trainingRatings(), grid, SearchOptions{TestFraction: 0.25, NumWorkers: 1, Seed: 5})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("GridSearch(cancelled ctx) error = %v, want context.Canceled", err)
	}
}

func TestGridSearchEmptyRatings(t *testing.T) {
	_, _, err := GridSearch(context.Background(), nil, ParamGrid{}, SearchOptions{})
	if !errors.Is(err, recommend.ErrEmptyInput) {
		t.Errorf("GridSearch(nil ratings) error = %v, want ErrEmptyInput", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	m, err := Fit(trainingRatings(), Config{Factors: 3, Epochs: 10, Seed: 9})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.json")
	if err := m.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.NumUsers() != m.NumUsers() || loaded.NumItems() != m.NumItems() {
		t.Errorf("Load() sizes = %d/%d, want %d/%d",
			loaded.NumUsers(), loaded.NumItems(), m.NumUsers(), m.NumItems())
	}

	want, _ := m.Predict(1, 10)
	got, err := loaded.Predict(1, 10)
	if err != nil {
		t.Fatalf("Predict() after Load error = %v", err)
	}
	if got != want {
		t.Errorf("loaded model predicts %v, original %v", got, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Load(missing file) expected error")
	}
}

func TestLoadRejectsShortFactorRow(t *testing.T) {
	m, err := Fit(trainingRatings(), Config{Factors: 3, Epochs: 5, Seed: 9})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.json")
	if err := m.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	snap.ItemFactors[0] = snap.ItemFactors[0][:1]
	data, err = json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() with truncated factor row expected error")
	}
}
