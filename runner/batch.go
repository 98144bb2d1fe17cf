package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/purplecofe/poedb-scraper/engine"
	"github.com/purplecofe/poedb-scraper/models"
	"github.com/purplecofe/poedb-scraper/pacing"
)

// Job is one queued category.
type Job struct {
	Key    string
	Config models.ScrapeConfig
}

// Batch runs categories in caller order with a pause between them.
type Batch struct {
	Runner *Runner

	// Between runs between consecutive categories, never after the last.
	Between pacing.Pacer

	// OnComplete, when set, receives the summary once every job has run.
	OnComplete func(ctx context.Context, s Summary) error

	Logger *slog.Logger
}

// Summary aggregates a batch.
type Summary struct {
	Results   []Result
	Succeeded int
	Failed    int
	Skipped   []string // jobs not started because the batch was interrupted
	Duration  time.Duration
}

// Run processes jobs sequentially. A failed category never stops the
// batch; a cancelled context does.
func (b *Batch) Run(ctx context.Context, jobs []Job) Summary {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	var s Summary

	for i, job := range jobs {
		if i > 0 && b.Between != nil {
			if err := b.Between.Pause(ctx); err != nil {
				logger.Warn("batch interrupted between categories", "error", err)
				s.Skipped = remainingKeys(jobs[i:])
				break
			}
		}
		if ctx.Err() != nil {
			s.Skipped = remainingKeys(jobs[i:])
			break
		}

		logger.Info("starting category", "key", job.Key, "category", job.Config.CategoryName,
			"position", i+1, "total", len(jobs))
		res := b.Runner.Run(ctx, job.Config)
		s.Results = append(s.Results, res)
		if res.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	s.Duration = time.Since(start)

	logger.Info("batch finished", "succeeded", s.Succeeded, "failed", s.Failed,
		"skipped", len(s.Skipped), "duration", s.Duration)

	if b.OnComplete != nil {
		// The batch context may already be cancelled; the notification
		// still goes out.
		notifyCtx := context.WithoutCancel(ctx)
		if err := b.OnComplete(notifyCtx, s); err != nil {
			logger.Warn("batch completion hook failed", "error", err)
		}
	}
	return s
}

func remainingKeys(jobs []Job) []string {
	keys := make([]string, 0, len(jobs))
	for _, j := range jobs {
		keys = append(keys, j.Key)
	}
	return keys
}

// Print writes the human-readable summary.
func (s Summary) Print(w io.Writer) {
	for _, r := range s.Results {
		switch {
		case r.Success:
			fmt.Fprintf(w, "\n%s completed: %d records saved to %s\n", r.Category, len(r.Records), r.OutputFile)
		case r.Err != nil:
			fmt.Fprintf(w, "\n%s failed: %s\n", r.Category, describe(r.Err))
		default:
			fmt.Fprintf(w, "\n%s failed: no records collected\n", r.Category)
		}
	}
	if len(s.Skipped) > 0 {
		fmt.Fprintf(w, "\nNot started: %v\n", s.Skipped)
	}
	fmt.Fprintf(w, "\nSummary:\n")
	fmt.Fprintf(w, "Succeeded: %d categories\n", s.Succeeded)
	fmt.Fprintf(w, "Failed: %d categories\n", s.Failed)
}

// describe renders an error without the wrapped chain noise.
func describe(err error) string {
	code := models.ErrorCode(err)
	if engine.IsTimeout(err) {
		return code + " (timed out)"
	}
	return fmt.Sprintf("%s (%v)", code, err)
}

// Report is the JSON shape of a summary, used by the completion webhook.
type Report struct {
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	Skipped    []string         `json:"skipped,omitempty"`
	DurationMs int64            `json:"duration_ms"`
	Categories []CategoryReport `json:"categories"`
}

// CategoryReport is one category line of a Report.
type CategoryReport struct {
	Category   string `json:"category"`
	Success    bool   `json:"success"`
	State      string `json:"state"`
	Records    int    `json:"records"`
	Links      int    `json:"links"`
	OutputFile string `json:"output_file"`
	ErrorCode  string `json:"error_code,omitempty"`
}

// Report builds the JSON-friendly view of s.
func (s Summary) Report() Report {
	rep := Report{
		Succeeded:  s.Succeeded,
		Failed:     s.Failed,
		Skipped:    s.Skipped,
		DurationMs: s.Duration.Milliseconds(),
		Categories: make([]CategoryReport, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		cr := CategoryReport{
			Category:   r.Category,
			Success:    r.Success,
			State:      r.State.String(),
			Records:    len(r.Records),
			Links:      r.Links,
			OutputFile: r.OutputFile,
		}
		if r.Err != nil {
			cr.ErrorCode = models.ErrorCode(r.Err)
		}
		rep.Categories = append(rep.Categories, cr)
	}
	return rep
}
