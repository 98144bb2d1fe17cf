// Package runner drives category runs: harvest the listing, extract every
// item sequentially, checkpoint on a fixed cadence and write the final
// output.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/purplecofe/poedb-scraper/engine"
	"github.com/purplecofe/poedb-scraper/harvest"
	"github.com/purplecofe/poedb-scraper/models"
	"github.com/purplecofe/poedb-scraper/pacing"
)

// State is the lifecycle position of a category run.
type State int

const (
	Idle State = iota
	LinksHarvested
	Processing
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LinksHarvested:
		return "links_harvested"
	case Processing:
		return "processing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultCheckpointEvery is the progress checkpoint cadence in URLs.
const DefaultCheckpointEvery = 10

// Checkpointer persists records. checkpoint.Store is the production
// implementation.
type Checkpointer interface {
	ProgressPath(categoryName string) string
	Save(path string, records []models.RawItemRecord) error
	SaveFinal(path string, records []models.RawItemRecord) error
	Load(path string) ([]models.RawItemRecord, error)
}

// Runner processes one category at a time. It holds no per-run state, so
// one Runner serves a whole batch.
type Runner struct {
	Renderer  engine.Renderer
	Harvester *harvest.Harvester
	Extractor *harvest.Extractor
	Store     Checkpointer

	// Pacer runs after every fetched item.
	Pacer pacing.Pacer

	// CheckpointEvery is the progress cadence; <= 0 means DefaultCheckpointEvery.
	CheckpointEvery int

	// Resume seeds the run from an existing progress checkpoint and skips
	// URLs already recorded there.
	Resume bool

	Logger *slog.Logger
}

// Result summarises one category run.
type Result struct {
	Category   string
	OutputFile string
	State      State

	// Records holds every accumulated record, resumed ones included.
	Records []models.RawItemRecord

	Links int
	// Processed is the loop position reached, resumed URLs included.
	Processed int
	Scraped   int // successful extractions in this run
	NoData    int
	Errors    int
	Resumed   int

	// Success is false when the run failed or accumulated no records.
	Success  bool
	Err      error
	Duration time.Duration
}

// Run executes one category. It never panics on per-item failures; the
// outcome is reported through Result.
func (r *Runner) Run(ctx context.Context, cfg models.ScrapeConfig) Result {
	start := time.Now()
	logger := r.logger().With("category", cfg.CategoryName)
	res := Result{Category: cfg.CategoryName, OutputFile: cfg.OutputFile, State: Idle}

	fail := func(err error) Result {
		res.State = Failed
		res.Err = err
		res.Duration = time.Since(start)
		logger.Error("category run failed", "code", models.ErrorCode(err), "error", err)
		return res
	}

	if err := cfg.Validate(); err != nil {
		return fail(err)
	}

	session, err := r.Renderer.Open(ctx)
	if err != nil {
		return fail(err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close render session", "error", err)
		}
	}()

	harvester := r.Harvester.WithLogger(logger)
	extractor := r.Extractor.WithLogger(logger)

	links, err := harvester.Harvest(ctx, session, cfg)
	if err != nil {
		return fail(err)
	}
	res.Links = len(links)
	if len(links) == 0 {
		return fail(models.NewScrapeError(models.ErrCodeNoLinks,
			fmt.Sprintf("no item links found on %s", cfg.BaseURL), nil))
	}
	res.State = LinksHarvested

	progressPath := r.Store.ProgressPath(cfg.CategoryName)
	records, done := r.resume(progressPath, logger)
	res.Resumed = len(records)

	res.State = Processing
	every := r.CheckpointEvery
	if every <= 0 {
		every = DefaultCheckpointEvery
	}
	logger.Info("processing items", "total", len(links), "resumed", res.Resumed)

	for i, url := range links {
		idx := i + 1

		if _, skip := done[url]; !skip {
			if err := ctx.Err(); err != nil {
				res.Records = records
				return fail(engine.CategorizeError(err, "run interrupted"))
			}

			logger.Info("processing item", "index", idx, "total", len(links), "url", url)
			out := extractor.Extract(ctx, session, url)
			switch out.Kind {
			case models.OutcomeSuccess:
				records = append(records, *out.Record)
				res.Scraped++
				logger.Info("item scraped",
					"base_type_en", out.Record.BaseTypeEn,
					"base_type_zh", models.StringOrEmpty(out.Record.BaseTypeZh))
			case models.OutcomeNoData:
				res.NoData++
				logger.Warn("item has no extractable data", "url", url, "reason", out.Reason)
			default:
				res.Errors++
				logger.Error("item extraction failed", "url", url, "code", out.Reason, "error", out.Err)
			}
		}

		res.Processed = idx
		if idx%every == 0 {
			if err := r.Store.Save(progressPath, records); err != nil {
				logger.Warn("progress checkpoint failed", "path", progressPath, "error", err)
			} else {
				logger.Info("progress saved", "path", progressPath, "records", len(records), "index", idx)
			}
		}

		if _, skip := done[url]; skip {
			continue
		}
		if err := r.Pacer.Pause(ctx); err != nil {
			res.Records = records
			return fail(engine.CategorizeError(err, "run interrupted"))
		}
	}

	res.State = Completed
	res.Records = records
	res.Duration = time.Since(start)

	if err := r.Store.SaveFinal(cfg.OutputFile, records); err != nil {
		res.Err = err
		logger.Error("final save failed", "path", cfg.OutputFile, "error", err)
		return res
	}
	logger.Info("category completed",
		"output", cfg.OutputFile,
		"records", len(records),
		"scraped", res.Scraped,
		"no_data", res.NoData,
		"errors", res.Errors,
		"duration", res.Duration)

	if len(records) == 0 {
		res.Err = models.NewScrapeError(models.ErrCodeNoData, "no records accumulated", nil)
		logger.Warn("category produced no records")
		return res
	}
	res.Success = true
	return res
}

// resume loads the previous progress checkpoint when enabled. A missing
// checkpoint starts from scratch; an unreadable one is logged and ignored.
func (r *Runner) resume(path string, logger *slog.Logger) ([]models.RawItemRecord, map[string]struct{}) {
	done := make(map[string]struct{})
	if !r.Resume {
		return nil, done
	}

	records, err := r.Store.Load(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Info("no progress checkpoint to resume", "path", path)
		return nil, done
	case err != nil:
		logger.Warn("ignoring unreadable progress checkpoint", "path", path, "error", err)
		return nil, done
	}

	for _, rec := range records {
		done[rec.URL] = struct{}{}
	}
	logger.Info("resuming from progress checkpoint", "path", path, "records", len(records))
	return records, done
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
