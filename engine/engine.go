package engine

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Renderer opens rendering sessions. A session is one tab (or one static
// client) that is reused for every page of a single category run.
type Renderer interface {
	// Name returns the renderer identifier ("rod" or "http").
	Name() string

	// Open acquires a session. The caller must Close it.
	Open(ctx context.Context) (Session, error)
}

// Session is the capability the scraper consumes from a renderer. At most
// one call is outstanding at any time.
type Session interface {
	// Navigate loads url and waits for it to settle.
	Navigate(ctx context.Context, url string) error

	// WaitElement waits up to timeout for selector to be present.
	WaitElement(ctx context.Context, selector string, timeout time.Duration) error

	// Snapshot returns the current DOM and the final resolved URL.
	Snapshot(ctx context.Context) (*Page, error)

	// Close releases the session.
	Close() error
}

// Page is a DOM snapshot of the currently loaded document.
type Page struct {
	// URL is the final URL after redirects.
	URL string

	// HTML is the serialized document.
	HTML string

	// Title is the document title (best effort).
	Title string
}

// Document parses the snapshot for querying.
func (p *Page) Document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
}
