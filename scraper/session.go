package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/purplecofe/poedb-scraper/engine"
	"github.com/purplecofe/poedb-scraper/models"
	"github.com/ysmood/gson"
)

// defaultHeaders are sent with every request of a tab.
var defaultHeaders = map[string]string{
	"Accept-Language": "en-US,en;q=0.9,zh-TW;q=0.8",
}

// rodSession drives one tab at a time. Every call binds its own context so
// a timed-out wait never poisons later calls. An unhealthy tab is swapped
// for a fresh one before the next navigation.
type rodSession struct {
	openTab    func(context.Context) (*tab, error)
	tab        *tab // nil after a failed replacement
	health     *tabHealth
	navTimeout time.Duration
	logger     *slog.Logger
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	if s.tab == nil || s.health.shouldRetire() {
		if err := s.recycle(ctx); err != nil {
			return err
		}
	}

	if s.navTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.navTimeout)
		defer cancel()
	}
	p, err := s.page(ctx)
	if err != nil {
		return err
	}

	if err := p.Navigate(url); err != nil {
		s.health.recordFailure()
		return engine.CategorizeError(err, "navigation to target URL failed")
	}
	if err := p.WaitLoad(); err != nil {
		s.health.recordFailure()
		return engine.CategorizeError(err, "page load did not complete")
	}
	// Listing tables are filled by scripts after load.
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		s.logger.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"url", url, "error", err)
	}
	s.health.recordSuccess()
	return nil
}

// recycle replaces the current tab. The old tab is closed even if opening
// the new one fails; the next navigation then tries again.
func (s *rodSession) recycle(ctx context.Context) error {
	if s.tab != nil {
		s.logger.Info("retiring browser tab",
			"score", s.health.errScore, "uses", s.health.uses)
		if err := s.tab.close(); err != nil {
			s.logger.Warn("failed to close retired tab", "error", err)
		}
		s.tab = nil
	}
	t, err := s.openTab(ctx)
	if err != nil {
		return err
	}
	s.tab = t
	s.health = newTabHealth(nil)
	return nil
}

func (s *rodSession) WaitElement(ctx context.Context, selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p, err := s.page(ctx)
	if err != nil {
		return err
	}
	if _, err := p.Element(selector); err != nil {
		return engine.CategorizeError(err, fmt.Sprintf("element %q not present", selector))
	}
	return nil
}

func (s *rodSession) Snapshot(ctx context.Context) (*engine.Page, error) {
	p, err := s.page(ctx)
	if err != nil {
		return nil, err
	}

	html, err := p.HTML()
	if err != nil {
		return nil, engine.CategorizeError(err, "failed to extract page HTML")
	}

	res, err := p.Eval(`() => ({ href: window.location.href, title: document.title })`)
	if err != nil {
		return nil, engine.CategorizeError(err, "failed to read page location")
	}
	return &engine.Page{
		URL:   res.Value.Get("href").Str(),
		HTML:  html,
		Title: res.Value.Get("title").Str(),
	}, nil
}

func (s *rodSession) Close() error {
	if s.tab == nil {
		return nil
	}
	t := s.tab
	s.tab = nil
	return t.close()
}

func (s *rodSession) page(ctx context.Context) (*rod.Page, error) {
	if s.tab == nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "no open browser tab", nil)
	}
	return s.tab.page.Context(ctx), nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
