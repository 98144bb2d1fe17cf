package scraper

import (
	"context"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/purplecofe/poedb-scraper/config"
	"github.com/purplecofe/poedb-scraper/engine"
	"github.com/purplecofe/poedb-scraper/models"
)

// RodRenderer owns one Chromium process. Each Open creates a fresh tab that
// serves a whole category run; tabs are never pooled because only one
// category is processed at a time.
type RodRenderer struct {
	browser    *rod.Browser
	browserCfg config.BrowserConfig
	scraperCfg config.ScraperConfig
	logger     *slog.Logger
}

// NewRodRenderer launches the browser and connects to it.
func NewRodRenderer(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig, logger *slog.Logger) (*RodRenderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.Proxy != "" {
		l = l.Proxy(browserCfg.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	logger.Info("browser launched", "controlURL", controlURL, "headless", browserCfg.Headless)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	return &RodRenderer{
		browser:    browser,
		browserCfg: browserCfg,
		scraperCfg: scraperCfg,
		logger:     logger,
	}, nil
}

func (r *RodRenderer) Name() string { return "rod" }

// Open creates a tab for one category run.
func (r *RodRenderer) Open(ctx context.Context) (engine.Session, error) {
	t, err := r.newTab(ctx)
	if err != nil {
		return nil, err
	}
	return &rodSession{
		openTab:    r.newTab,
		tab:        t,
		health:     newTabHealth(nil),
		navTimeout: r.scraperCfg.NavigationTimeout,
		logger:     r.logger,
	}, nil
}

// tab is a page plus the resource-blocking router installed on it.
type tab struct {
	page   *rod.Page
	router *rod.HijackRouter
}

func (t *tab) close() error {
	if t.router != nil {
		_ = t.router.Stop()
	}
	if t.page == nil {
		return nil
	}
	return t.page.Close()
}

// newTab opens a page with stealth, user agent, headers and resource
// blocking installed before the first navigation.
func (r *RodRenderer) newTab(ctx context.Context) (*tab, error) {
	page, err := r.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open tab", err)
	}
	// Drop the open context; the session binds a fresh one per call.
	page = page.Context(context.Background())

	if r.browserCfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			r.logger.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	if r.browserCfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: r.browserCfg.UserAgent,
		}); err != nil {
			r.logger.Warn("user agent override failed", "error", err)
		}
	}

	if err := (proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(defaultHeaders),
	}).Call(page); err != nil {
		r.logger.Debug("extra headers not applied", "error", err)
	}

	return &tab{
		page:   page,
		router: setupHijack(page, r.scraperCfg.BlockedResourceTypes),
	}, nil
}

// Close kills the browser process.
func (r *RodRenderer) Close() error {
	r.logger.Info("closing browser")
	if err := r.browser.Close(); err != nil {
		return models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to close browser", err)
	}
	return nil
}
