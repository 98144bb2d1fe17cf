// Package enginetest provides an in-memory engine.Renderer for tests.
package enginetest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/purplecofe/poedb-scraper/engine"
	"github.com/purplecofe/poedb-scraper/models"
)

// Renderer serves canned HTML keyed by URL. It is not safe for concurrent
// use; sessions are driven from one goroutine.
type Renderer struct {
	// Pages maps a URL to the document served for it.
	Pages map[string]string

	// Redirects maps a requested URL to the URL actually served.
	Redirects map[string]string

	// Errors makes navigation to the given URL fail.
	Errors map[string]error

	// OpenErr makes Open fail.
	OpenErr error

	// Visits records every navigation in order.
	Visits []string

	Opened int
	Closed int
}

// New returns a Renderer serving pages.
func New(pages map[string]string) *Renderer {
	return &Renderer{
		Pages:     pages,
		Redirects: map[string]string{},
		Errors:    map[string]error{},
	}
}

func (r *Renderer) Name() string { return "fake" }

func (r *Renderer) Open(ctx context.Context) (engine.Session, error) {
	if r.OpenErr != nil {
		return nil, r.OpenErr
	}
	r.Opened++
	return &session{r: r}, nil
}

type session struct {
	r       *Renderer
	current *engine.Page
}

func (s *session) Navigate(ctx context.Context, url string) error {
	s.r.Visits = append(s.r.Visits, url)
	if err := ctx.Err(); err != nil {
		return engine.CategorizeError(err, "navigation aborted")
	}
	if err, ok := s.r.Errors[url]; ok {
		return err
	}

	target := url
	if to, ok := s.r.Redirects[url]; ok {
		target = to
	}
	body, ok := s.r.Pages[target]
	if !ok {
		return models.NewScrapeError(models.ErrCodeNavigation, fmt.Sprintf("HTTP 404 for %s", url), nil)
	}
	s.current = &engine.Page{URL: target, HTML: body}
	return nil
}

func (s *session) WaitElement(ctx context.Context, selector string, timeout time.Duration) error {
	if s.current == nil {
		return models.NewScrapeError(models.ErrCodeNavigation, "no page loaded", nil)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.current.HTML))
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return models.NewScrapeError(models.ErrCodeTimeout,
			fmt.Sprintf("element %q not present", selector), context.DeadlineExceeded)
	}
	return nil
}

func (s *session) Snapshot(ctx context.Context) (*engine.Page, error) {
	if s.current == nil {
		return nil, models.NewScrapeError(models.ErrCodeNavigation, "no page loaded", nil)
	}
	p := *s.current
	return &p, nil
}

func (s *session) Close() error {
	s.r.Closed++
	s.current = nil
	return nil
}
