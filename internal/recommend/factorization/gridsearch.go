// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

package factorization

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tomtom215/basketry/internal/logging"
	"github.com/tomtom215/basketry/internal/recommend"
)

// ParamGrid enumerates the hyperparameter values to sweep. Empty
// dimensions fall back to the single default value, so a grid varying one
// axis needs to list only that axis.
type ParamGrid struct {
	Factors         []int
	Epochs          []int
	LearningRates   []float64
	Regularizations []float64
}

// configs returns the cartesian product of the grid dimensions.
func (g ParamGrid) configs(seed int64) []Config {
	d := DefaultConfig()
	factors := g.Factors
	if len(factors) == 0 {
		factors = []int{d.Factors}
	}
	epochs := g.Epochs
	if len(epochs) == 0 {
		epochs = []int{d.Epochs}
	}
	rates := g.LearningRates
	if len(rates) == 0 {
		rates = []float64{d.LearningRate}
	}
	regs := g.Regularizations
	if len(regs) == 0 {
		regs = []float64{d.Regularization}
	}

	out := make([]Config, 0, len(factors)*len(epochs)*len(rates)*len(regs))
	for _, f := range factors {
		for _, e := range epochs {
			for _, lr := range rates {
				for _, reg := range regs {
					out = append(out, Config{
						Factors:        f,
						Epochs:         e,
						LearningRate:   lr,
						Regularization: reg,
						Seed:           seed,
					})
				}
			}
		}
	}
	return out
}

// TrialResult records one fitted configuration and its held-out RMSE.
type TrialResult struct {
	// TrialID uniquely labels the trial across runs for log correlation.
	TrialID string  `json:"trial_id"`
	Config  Config  `json:"config"`
	RMSE    float64 `json:"rmse"`
}

// SearchOptions controls the grid search.
type SearchOptions struct {
	// TestFraction is the held-out share of ratings. Zero means 0.2.
	TestFraction float64

	// NumWorkers bounds concurrent trials. Zero means GOMAXPROCS.
	NumWorkers int

	// Seed seeds the shared train/test split and every trial's
	// initialization. Zero selects the fixed default.
	Seed int64
}

// GridSearch fits and evaluates every configuration in the grid on a
// single shared train/test split and returns the best trial (lowest RMSE,
// earliest grid position on ties) together with all trials sorted by RMSE
// ascending. Trials run on a bounded worker pool; cancelling ctx abandons
// unstarted trials and returns the context error.
func GridSearch(ctx context.Context, ratings []recommend.Rating, grid ParamGrid, opts SearchOptions) (TrialResult, []TrialResult, error) {
	if len(ratings) == 0 {
		return TrialResult{}, nil, fmt.Errorf("factorization: no ratings to search over: %w", recommend.ErrEmptyInput)
	}
	if opts.TestFraction == 0 {
		opts.TestFraction = 0.2
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = runtime.GOMAXPROCS(0)
	}

	configs := grid.configs(opts.Seed)
	train, test, err := TrainTestSplit(ratings, opts.TestFraction, opts.Seed)
	if err != nil {
		return TrialResult{}, nil, err
	}

	logging.Info().
		Int("trials", len(configs)).
		Int("workers", opts.NumWorkers).
		Int("train", len(train)).
		Int("test", len(test)).
		Msg("starting hyperparameter grid search")

	type job struct {
		pos int
		cfg Config
	}
	type outcome struct {
		pos    int
		result TrialResult
		err    error
	}

	jobs := make(chan job)
	results := make(chan outcome, len(configs))

	var wg sync.WaitGroup
	for w := 0; w < opts.NumWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					return
				}
				m, fitErr := Fit(train, j.cfg)
				if fitErr != nil {
					results <- outcome{pos: j.pos, err: fitErr}
					continue
				}
				rmse, evalErr := Evaluate(m, test)
				if evalErr != nil {
					results <- outcome{pos: j.pos, err: evalErr}
					continue
				}
				results <- outcome{pos: j.pos, result: TrialResult{
					TrialID: uuid.NewString(),
					Config:  j.cfg,
					RMSE:    rmse,
				}}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for pos, cfg := range configs {
			select {
			case jobs <- job{pos: pos, cfg: cfg}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	trials := make([]TrialResult, 0, len(configs))
	positions := make(map[string]int, len(configs))
	for out := range results {
		if out.err != nil {
			return TrialResult{}, nil, out.err
		}
		positions[out.result.TrialID] = out.pos
		trials = append(trials, out.result)
		logging.Debug().
			Str("trial_id", out.result.TrialID).
			Int("factors", out.result.Config.Factors).
			Int("epochs", out.result.Config.Epochs).
			Float64("learning_rate", out.result.Config.LearningRate).
			Float64("regularization", out.result.Config.Regularization).
			Float64("rmse", out.result.RMSE).
			Msg("grid search trial complete")
	}
	if ctx.Err() != nil {
		return TrialResult{}, nil, ctx.Err()
	}

	sort.SliceStable(trials, func(i, j int) bool {
		if trials[i].RMSE != trials[j].RMSE {
			return trials[i].RMSE < trials[j].RMSE
		}
		return positions[trials[i].TrialID] < positions[trials[j].TrialID]
	})

	best := trials[0]
	logging.Info().
		Str("trial_id", best.TrialID).
		Float64("rmse", best.RMSE).
		Int("factors", best.Config.Factors).
		Int("epochs", best.Config.Epochs).
		Msg("grid search complete")

	return best, trials, nil
}
