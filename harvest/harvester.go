package harvest

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/purplecofe/poedb-scraper/engine"
	"github.com/purplecofe/poedb-scraper/models"
)

// Harvester loads a category listing page and collects its item links.
type Harvester struct {
	// ListingWait bounds the wait for the container anchor element.
	ListingWait time.Duration
	Logger      *slog.Logger
}

// AnchorSelector returns the part of a container selector before the first
// " > " combinator. Waiting on it tolerates containers whose inner structure
// is still being rendered.
func AnchorSelector(containerSel string) string {
	anchor, _, _ := strings.Cut(containerSel, " > ")
	return strings.TrimSpace(anchor)
}

// Harvest navigates to cfg.BaseURL and returns the deduplicated item URLs.
// A navigation or snapshot failure is returned; a missing container is not
// an error and yields an empty result.
func (h *Harvester) Harvest(ctx context.Context, s engine.Session, cfg models.ScrapeConfig) ([]string, error) {
	logger := h.logger()
	logger.Info("loading listing page", "url", cfg.BaseURL)

	if err := s.Navigate(ctx, cfg.BaseURL); err != nil {
		return nil, err
	}

	anchor := AnchorSelector(cfg.ContainerSelector)
	if err := s.WaitElement(ctx, anchor, h.ListingWait); err != nil {
		if ctx.Err() != nil {
			return nil, engine.CategorizeError(ctx.Err(), "listing wait aborted")
		}
		logger.Warn("listing container did not appear, parsing current DOM",
			"selector", anchor, "error", err)
	}

	page, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := page.Document()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "failed to parse listing page", err)
	}

	links := Links(doc, page.URL, cfg.ContainerSelector, cfg.LinkSelector)
	logger.Info("item links harvested", "count", len(links))
	return links, nil
}

// WithLogger returns a copy of h that logs to l.
func (h *Harvester) WithLogger(l *slog.Logger) *Harvester {
	c := *h
	c.Logger = l
	return &c
}

func (h *Harvester) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
