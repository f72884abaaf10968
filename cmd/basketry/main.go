// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

// Package main is the entry point for the basketry command line tool.
//
// Basketry runs four recommendation strategies over CSV datasets loaded
// through DuckDB:
//
//	rules    mine association rules from retail invoices and suggest
//	         items for a product already in the cart
//	similar  rank movie titles by TF-IDF overview similarity
//	item     rank movies whose rating columns correlate with a movie
//	user     recommend movies from correlated neighbors' ratings
//	fit      train the latent-factor rating model and report held-out
//	         RMSE, optionally saving a model snapshot
//	search   sweep latent-factor hyperparameters on a shared split
//	predict  estimate a single user's rating for a movie from a snapshot
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables with the BASKETRY_ prefix
//   - Config file (basketry.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// Dataset paths come from configuration; per-run parameters such as the
// query item and list length come from subcommand flags.
//
// # Example Usage
//
//	export BASKETRY_DATASET_TRANSACTIONS_PATH=online_retail_II.csv
//	basketry rules -item 21987 -count 5
//
//	export BASKETRY_DATASET_OVERVIEWS_PATH=movies_metadata.csv
//	basketry similar -title "Sherlock Holmes" -count 10
//
//	export BASKETRY_DATASET_RATINGS_PATH=ratings.csv
//	basketry fit -save model.json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tomtom215/basketry/internal/config"
	"github.com/tomtom215/basketry/internal/dataset"
	"github.com/tomtom215/basketry/internal/engine"
	"github.com/tomtom215/basketry/internal/logging"
	"github.com/tomtom215/basketry/internal/recommend"
	"github.com/tomtom215/basketry/internal/recommend/factorization"
)

const usage = `Usage: basketry <command> [flags]

Commands:
  rules    association-rule recommendations for a cart item
  similar  TF-IDF overview similarity for a movie title
  item     item-based correlation neighbors for a movie
  user     user-based recommendations from correlated neighbors
  fit      train the latent-factor model and report held-out RMSE
  search   grid-search latent-factor hyperparameters
  predict  estimate a rating from a saved model snapshot

Run "basketry <command> -h" for command flags.
`

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("no command given")
	}

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Timestamp: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := engine.New(cfg, logging.Logger())
	if err != nil {
		return err
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "rules":
		return runRules(ctx, cfg, eng, args)
	case "similar":
		return runSimilar(ctx, cfg, eng, args)
	case "item":
		return runItem(ctx, cfg, eng, args)
	case "user":
		return runUser(ctx, cfg, eng, args)
	case "fit":
		return runFit(ctx, cfg, args)
	case "search":
		return runSearch(ctx, cfg, args)
	case "predict":
		return runPredict(cfg, eng, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runRules(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string) error {
	fs := flag.NewFlagSet("rules", flag.ExitOnError)
	item := fs.String("item", "", "stock code (or description) of the item in the cart")
	count := fs.Int("count", cfg.Rules.Count, "number of recommendations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *item == "" {
		return errors.New("rules: -item is required")
	}

	store, err := dataset.Open()
	if err != nil {
		return err
	}
	defer closeStore(store)

	txs, err := store.LoadTransactions(ctx, cfg.Dataset.TransactionsPath)
	if err != nil {
		return err
	}
	if err := eng.BuildRules(txs); err != nil {
		return err
	}

	items, err := eng.CartRecommendations(*item, *count)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Printf("no rule recommends items alongside %s\n", *item)
		return nil
	}
	for i, id := range items {
		fmt.Printf("%2d. %s\n", i+1, id)
	}
	return nil
}

func runSimilar(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string) error {
	fs := flag.NewFlagSet("similar", flag.ExitOnError)
	title := fs.String("title", "", "movie title to find similar overviews for")
	count := fs.Int("count", cfg.Content.Count, "number of similar titles")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" {
		return errors.New("similar: -title is required")
	}

	store, err := dataset.Open()
	if err != nil {
		return err
	}
	defer closeStore(store)

	docs, err := store.LoadOverviews(ctx, cfg.Dataset.OverviewsPath)
	if err != nil {
		return err
	}
	if err := eng.BuildSimilarity(docs); err != nil {
		return err
	}

	scored, err := eng.SimilarTitles(*title, *count)
	if err != nil {
		return err
	}
	for i, st := range scored {
		fmt.Printf("%2d. %-50s %.4f\n", i+1, st.Title, st.Score)
	}
	return nil
}

func runItem(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string) error {
	fs := flag.NewFlagSet("item", flag.ExitOnError)
	movie := fs.Int64("movie", 0, "movie identifier to find correlated movies for")
	count := fs.Int("count", cfg.Neighborhood.Count, "number of neighbors")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *movie == 0 {
		return errors.New("item: -movie is required")
	}

	store, err := dataset.Open()
	if err != nil {
		return err
	}
	defer closeStore(store)

	ratings, entries, err := loadRatingData(ctx, cfg, store)
	if err != nil {
		return err
	}
	if err := eng.BuildRatings(ratings, entries); err != nil {
		return err
	}

	neighbors, err := eng.ItemNeighbors(*movie, *count)
	if err != nil {
		return err
	}
	catalog := recommend.NewCatalog(entries)
	for i, n := range neighbors {
		title := catalog[n.ItemID]
		if title == "" {
			title = fmt.Sprintf("movie %d", n.ItemID)
		}
		fmt.Printf("%2d. %-50s %.4f\n", i+1, title, n.Correlation)
	}
	return nil
}

func runUser(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string) error {
	fs := flag.NewFlagSet("user", flag.ExitOnError)
	user := fs.Int64("user", 0, "user identifier to recommend for")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == 0 {
		return errors.New("user: -user is required")
	}

	store, err := dataset.Open()
	if err != nil {
		return err
	}
	defer closeStore(store)

	ratings, entries, err := loadRatingData(ctx, cfg, store)
	if err != nil {
		return err
	}
	if err := eng.BuildRatings(ratings, entries); err != nil {
		return err
	}

	recs, err := eng.UserRecommendations(*user)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Printf("no neighbors correlate strongly enough with user %d\n", *user)
		return nil
	}
	for i, r := range recs {
		fmt.Printf("%2d. %-50s %.4f\n", i+1, r.Title, r.Score)
	}
	return nil
}

func runFit(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("fit", flag.ExitOnError)
	save := fs.String("save", "", "write the fitted model snapshot to this path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := dataset.Open()
	if err != nil {
		return err
	}
	defer closeStore(store)

	ratings, err := store.LoadRatings(ctx, cfg.Dataset.RatingsPath)
	if err != nil {
		return err
	}

	train, test, err := factorization.TrainTestSplit(ratings, cfg.Factorization.TestFraction, cfg.Factorization.Seed)
	if err != nil {
		return err
	}
	model, err := factorization.Fit(train, factorization.Config{
		Factors:        cfg.Factorization.Factors,
		Epochs:         cfg.Factorization.Epochs,
		LearningRate:   cfg.Factorization.LearningRate,
		Regularization: cfg.Factorization.Regularization,
		Seed:           cfg.Factorization.Seed,
	})
	if err != nil {
		return err
	}
	rmse, err := factorization.Evaluate(model, test)
	if err != nil {
		return err
	}
	fmt.Printf("held-out RMSE: %.4f (train %d, test %d)\n", rmse, len(train), len(test))

	if *save != "" {
		if err := model.Save(*save); err != nil {
			return err
		}
		fmt.Printf("model saved to %s\n", *save)
	}
	return nil
}

func runSearch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	factors := fs.String("factors", "50,100", "comma-separated factor counts")
	epochs := fs.String("epochs", "5,10,20", "comma-separated epoch counts")
	rates := fs.String("lr", "0.002,0.005,0.01", "comma-separated learning rates")
	regs := fs.String("reg", "0.02,0.1", "comma-separated regularization strengths")
	if err := fs.Parse(args); err != nil {
		return err
	}

	grid := factorization.ParamGrid{}
	var err error
	if grid.Factors, err = parseInts(*factors); err != nil {
		return fmt.Errorf("search: -factors: %w", err)
	}
	if grid.Epochs, err = parseInts(*epochs); err != nil {
		return fmt.Errorf("search: -epochs: %w", err)
	}
	if grid.LearningRates, err = parseFloats(*rates); err != nil {
		return fmt.Errorf("search: -lr: %w", err)
	}
	if grid.Regularizations, err = parseFloats(*regs); err != nil {
		return fmt.Errorf("search: -reg: %w", err)
	}

	store, err := dataset.Open()
	if err != nil {
		return err
	}
	defer closeStore(store)

	ratings, err := store.LoadRatings(ctx, cfg.Dataset.RatingsPath)
	if err != nil {
		return err
	}

	best, trials, err := factorization.GridSearch(ctx, ratings, grid, factorization.SearchOptions{
		TestFraction: cfg.Factorization.TestFraction,
		NumWorkers:   cfg.Factorization.NumWorkers,
		Seed:         cfg.Factorization.Seed,
	})
	if err != nil {
		return err
	}

	for _, t := range trials {
		fmt.Printf("factors=%-4d epochs=%-3d lr=%-6g reg=%-5g rmse=%.4f\n",
			t.Config.Factors, t.Config.Epochs, t.Config.LearningRate, t.Config.Regularization, t.RMSE)
	}
	fmt.Printf("best: factors=%d epochs=%d lr=%g reg=%g rmse=%.4f\n",
		best.Config.Factors, best.Config.Epochs, best.Config.LearningRate, best.Config.Regularization, best.RMSE)
	return nil
}

func runPredict(cfg *config.Config, eng *engine.Engine, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	user := fs.Int64("user", 0, "user identifier")
	movie := fs.Int64("movie", 0, "movie identifier")
	model := fs.String("model", cfg.Factorization.ModelPath, "model snapshot path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == 0 || *movie == 0 {
		return errors.New("predict: -user and -movie are required")
	}

	if err := eng.LoadModel(*model); err != nil {
		return err
	}
	est, err := eng.PredictRating(*user, *movie)
	if err != nil {
		return err
	}
	fmt.Printf("estimated rating for user %d on movie %d: %.4f\n", *user, *movie, est)
	return nil
}

// loadRatingData loads ratings plus the movie catalog when a movies path
// is configured. The catalog is optional for item neighbors but required
// to resolve titles in user-based output.
func loadRatingData(ctx context.Context, cfg *config.Config, store *dataset.Store) ([]recommend.Rating, []recommend.CatalogEntry, error) {
	ratings, err := store.LoadRatings(ctx, cfg.Dataset.RatingsPath)
	if err != nil {
		return nil, nil, err
	}
	var entries []recommend.CatalogEntry
	if cfg.Dataset.MoviesPath != "" {
		entries, err = store.LoadMovies(ctx, cfg.Dataset.MoviesPath)
		if err != nil {
			return nil, nil, err
		}
	}
	return ratings, entries, nil
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var v int
		if _, err := fmt.Sscanf(part, "%d", &v); err != nil {
			return nil, fmt.Errorf("invalid integer %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var v float64
		if _, err := fmt.Sscanf(part, "%g", &v); err != nil {
			return nil, fmt.Errorf("invalid number %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}

func closeStore(store *dataset.Store) {
	if err := store.Close(); err != nil {
		logging.Warn().Err(err).Msg("failed to close dataset store")
	}
}
