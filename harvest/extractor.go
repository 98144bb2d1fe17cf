package harvest

import (
	"context"
	"log/slog"
	"time"

	"github.com/purplecofe/poedb-scraper/engine"
	"github.com/purplecofe/poedb-scraper/models"
)

// Extractor loads one item page and parses its detail table. Failures never
// escape as errors; they come back as a TransientError outcome.
type Extractor struct {
	// TableWait bounds the wait for the first table. Expiry is tolerated.
	TableWait time.Duration
	Logger    *slog.Logger
}

// WithLogger returns a copy of e that logs to l.
func (e *Extractor) WithLogger(l *slog.Logger) *Extractor {
	c := *e
	c.Logger = l
	return &c
}

// Extract navigates to url and returns the parsed outcome.
func (e *Extractor) Extract(ctx context.Context, s engine.Session, url string) models.Outcome {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := s.Navigate(ctx, url); err != nil {
		return models.TransientError(err)
	}

	if err := s.WaitElement(ctx, "table", e.TableWait); err != nil {
		if ctx.Err() != nil {
			return models.TransientError(engine.CategorizeError(ctx.Err(), "table wait aborted"))
		}
		logger.Warn("table wait timed out, parsing current DOM", "url", url, "error", err)
	}

	page, err := s.Snapshot(ctx)
	if err != nil {
		return models.TransientError(err)
	}
	doc, err := page.Document()
	if err != nil {
		return models.TransientError(models.NewScrapeError(models.ErrCodeInternal, "failed to parse item page", err))
	}

	finalURL := page.URL
	if finalURL == "" {
		finalURL = url
	}
	return ParseItem(doc, finalURL)
}
