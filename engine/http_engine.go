package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/purplecofe/poedb-scraper/models"
	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

// HTTPRenderer is a lightweight renderer that fetches pages with net/http
// and a Chrome-like TLS fingerprint. It runs no JavaScript, so it only suits
// categories whose listing and item tables are present in the served HTML.
type HTTPRenderer struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	timeout   time.Duration
	logger    *slog.Logger
}

// HTTPOptions configures an HTTPRenderer.
type HTTPOptions struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Logger            *slog.Logger
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// NewHTTPRenderer creates an HTTPRenderer. A non-positive RequestsPerSecond
// disables the request cap.
func NewHTTPRenderer(opts HTTPOptions) *HTTPRenderer {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPRenderer{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: opts.UserAgent,
		timeout:   timeout,
		logger:    logger,
	}
}

func (r *HTTPRenderer) Name() string { return "http" }

// Open returns a session bound to this renderer's client and limiter.
func (r *HTTPRenderer) Open(ctx context.Context) (Session, error) {
	return &httpSession{r: r}, nil
}

type httpSession struct {
	r    *HTTPRenderer
	page *Page
}

func (s *httpSession) Navigate(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, s.r.timeout)
	defer cancel()

	if err := s.r.limiter.Wait(ctx); err != nil {
		return CategorizeError(err, "request rate wait aborted")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeNavigation, "build request", err)
	}
	if s.r.userAgent != "" {
		req.Header.Set("User-Agent", s.r.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := s.r.client.Do(req)
	if err != nil {
		return CategorizeError(err, "navigation to target URL failed")
	}
	defer resp.Body.Close()

	const maxBody = 10 << 20
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return CategorizeError(err, "failed to read response body")
	}

	if resp.StatusCode >= 400 {
		return models.NewScrapeError(models.ErrCodeNavigation,
			fmt.Sprintf("HTTP %d for %s", resp.StatusCode, url), nil)
	}

	bodyStr := string(body)
	s.page = &Page{
		URL:   resp.Request.URL.String(),
		HTML:  bodyStr,
		Title: extractTitle(bodyStr),
	}
	s.r.logger.Debug("page fetched", "url", url, "finalURL", s.page.URL, "status", resp.StatusCode)
	return nil
}

// WaitElement checks the fetched document once; static content never changes,
// so a missing element is reported as a timeout straight away.
func (s *httpSession) WaitElement(ctx context.Context, selector string, timeout time.Duration) error {
	if s.page == nil {
		return models.NewScrapeError(models.ErrCodeNavigation, "no page loaded", nil)
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeInvalidConfig, "invalid selector "+selector, err)
	}
	doc, err := html.Parse(strings.NewReader(s.page.HTML))
	if err != nil {
		return models.NewScrapeError(models.ErrCodeNavigation, "failed to parse page", err)
	}
	if cascadia.Query(doc, sel) == nil {
		return models.NewScrapeError(models.ErrCodeTimeout,
			fmt.Sprintf("element %q not present", selector), context.DeadlineExceeded)
	}
	return nil
}

func (s *httpSession) Snapshot(ctx context.Context) (*Page, error) {
	if s.page == nil {
		return nil, models.NewScrapeError(models.ErrCodeNavigation, "no page loaded", nil)
	}
	p := *s.page
	return &p, nil
}

func (s *httpSession) Close() error {
	s.page = nil
	return nil
}

// extractTitle uses the Go HTML tokenizer to find the first <title> element.
func extractTitle(htmlStr string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	inTitle := false
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		case html.EndTagToken:
			if inTitle {
				return ""
			}
		}
	}
}
