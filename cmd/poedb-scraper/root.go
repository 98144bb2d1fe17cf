package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/purplecofe/poedb-scraper/checkpoint"
	"github.com/purplecofe/poedb-scraper/config"
	"github.com/purplecofe/poedb-scraper/engine"
	"github.com/purplecofe/poedb-scraper/harvest"
	"github.com/purplecofe/poedb-scraper/models"
	"github.com/purplecofe/poedb-scraper/pacing"
	"github.com/purplecofe/poedb-scraper/runner"
	"github.com/purplecofe/poedb-scraper/scraper"
	"github.com/purplecofe/poedb-scraper/webhook"
	"github.com/spf13/cobra"
)

var (
	configPath string
	categories []string
	scrapeAll  bool
	listOnly   bool
)

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "scraper_configs.json", "Category config file.")
	rootCmd.Flags().StringSliceVar(&categories, "category", nil, "Category keys to scrape (repeatable or comma separated).")
	rootCmd.Flags().BoolVar(&scrapeAll, "all", false, "Scrape every configured category.")
	rootCmd.Flags().BoolVar(&listOnly, "list", false, "List the configured categories and exit.")
}

var rootCmd = &cobra.Command{
	Use:   "poedb-scraper [--config <file>] (--all | --category <key>... | --list)",
	Short: "poedb-scraper collects item base types from PoeDB category pages.",
	Long: `poedb-scraper walks PoeDB category listings, visits every item page and
writes the English name, Chinese name and type of each item to JSON.

Runtime settings come from POEDB_* environment variables; per-category
settings come from the config file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger := initLogger(cfg.Log)
		out := cmd.OutOrStdout()

		cats, err := config.LoadCategories(configPath)
		if err != nil {
			fmt.Fprintln(out, "No valid config file found.")
			return err
		}

		if listOnly {
			listCategories(out, cats)
			return nil
		}

		// Extra positional words belong to --category, as in
		// "--category rings amulets".
		requested := append(append([]string{}, categories...), args...)
		if !scrapeAll && len(requested) == 0 {
			fmt.Fprintln(out, "Specify categories with --category or use --all.")
			fmt.Fprintln(out, "Use --list to see the available categories.")
			return nil
		}

		jobs := selectJobs(out, cats, scrapeAll, requested)
		if len(jobs) == 0 {
			fmt.Fprintln(out, "No valid categories to scrape.")
			return nil
		}
		keys := make([]string, len(jobs))
		for i, j := range jobs {
			keys[i] = j.Key
		}
		fmt.Fprintf(out, "Preparing to scrape %d categories: %s\n", len(jobs), strings.Join(keys, ", "))

		renderer, closeRenderer, err := newRenderer(cfg, logger)
		if err != nil {
			return err
		}
		defer closeRenderer()

		batch := newBatch(cfg, renderer, logger)
		summary := batch.Run(cmd.Context(), jobs)
		summary.Print(out)
		return nil
	},
}

func listCategories(w io.Writer, cats *config.Categories) {
	fmt.Fprintln(w, "Available categories:")
	for _, key := range cats.Keys() {
		cfg, _ := cats.Get(key)
		fmt.Fprintf(w, "  - %s: %s\n", key, cfg.CategoryName)
	}
}

// selectJobs resolves the requested keys. --all takes every category in
// the order the config file defines them; unknown keys are reported and
// skipped.
func selectJobs(w io.Writer, cats *config.Categories, all bool, requested []string) []runner.Job {
	keys := cats.Keys()
	if !all {
		var unknown []string
		keys, unknown = cats.Select(requested)
		for _, key := range unknown {
			fmt.Fprintf(w, "Unknown category: %s\n", key)
		}
		if len(unknown) > 0 {
			fmt.Fprintf(w, "Available categories: %s\n", strings.Join(cats.Keys(), ", "))
		}
	}

	jobs := make([]runner.Job, 0, len(keys))
	for _, key := range keys {
		cfg, _ := cats.Get(key)
		jobs = append(jobs, runner.Job{Key: key, Config: cfg})
	}
	return jobs
}

// newRenderer builds the configured renderer and its cleanup.
func newRenderer(cfg *config.Config, logger *slog.Logger) (engine.Renderer, func(), error) {
	switch cfg.Scraper.Engine {
	case "http":
		r := engine.NewHTTPRenderer(engine.HTTPOptions{
			UserAgent:         cfg.Browser.UserAgent,
			Timeout:           cfg.Scraper.NavigationTimeout,
			RequestsPerSecond: cfg.Scraper.HTTPRequestsPerSecond,
			Logger:            logger,
		})
		logger.Info("using static http renderer", "rps", cfg.Scraper.HTTPRequestsPerSecond)
		return r, func() {}, nil
	case "browser", "rod", "":
		r, err := scraper.NewRodRenderer(cfg.Browser, cfg.Scraper, logger)
		if err != nil {
			return nil, nil, err
		}
		return r, func() {
			if err := r.Close(); err != nil {
				logger.Warn("browser close failed", "error", err)
			}
		}, nil
	default:
		return nil, nil, models.NewScrapeError(models.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown POEDB_ENGINE %q (want browser or http)", cfg.Scraper.Engine), nil)
	}
}

func newBatch(cfg *config.Config, renderer engine.Renderer, logger *slog.Logger) *runner.Batch {
	r := &runner.Runner{
		Renderer: renderer,
		Harvester: &harvest.Harvester{
			ListingWait: cfg.Scraper.NavigationTimeout,
			Logger:      logger,
		},
		Extractor: &harvest.Extractor{
			TableWait: cfg.Scraper.TableWait,
			Logger:    logger,
		},
		Store:           checkpoint.New(cfg.Output.CheckpointDir),
		Pacer:           pacing.NewFixed(cfg.Pacing.ItemDelay),
		CheckpointEvery: cfg.Pacing.CheckpointEvery,
		Resume:          cfg.Output.Resume,
		Logger:          logger,
	}

	b := &runner.Batch{
		Runner:  r,
		Between: pacing.NewFixed(cfg.Pacing.CategoryDelay),
		Logger:  logger,
	}
	if cfg.Webhook.URL != "" {
		n := &webhook.Notifier{URL: cfg.Webhook.URL, Secret: cfg.Webhook.Secret, Logger: logger}
		b.OnComplete = func(ctx context.Context, s runner.Summary) error {
			return n.Send(ctx, &webhook.Event{
				Type:      "batch.completed",
				RunID:     "batch-" + uuid.NewString(),
				Timestamp: time.Now().Unix(),
				Data:      s.Report(),
			})
		}
	}
	return b
}
