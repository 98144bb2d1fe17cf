package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration. Per-category settings live in the
// category file (see LoadCategories), not here.
type Config struct {
	Browser BrowserConfig
	Scraper ScraperConfig
	Pacing  PacingConfig
	Output  OutputConfig
	Log     LogConfig
	Webhook WebhookConfig
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: false

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is passed to the browser launcher.
	Proxy string

	// Stealth injects go-rod/stealth before every navigation.
	Stealth bool // default: false

	// UserAgent overrides the browser user agent.
	UserAgent string
}

// ScraperConfig controls page loading behavior.
type ScraperConfig struct {
	// Engine selects the renderer: "browser" (Rod) or "http" (static fetch).
	Engine string // default: "browser"

	// NavigationTimeout is the default timeout for a navigation.
	NavigationTimeout time.Duration // default: 30s

	// TableWait bounds the wait for the item detail table.
	TableWait time.Duration // default: 15s

	// BlockedResourceTypes lists resource types to block in the browser.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// HTTPRequestsPerSecond caps the static renderer's request rate.
	HTTPRequestsPerSecond float64 // default: 1
}

// PacingConfig controls request spacing and checkpoint cadence.
type PacingConfig struct {
	// ItemDelay is the pause after every item page.
	ItemDelay time.Duration // default: 2s

	// CategoryDelay is the pause between categories.
	CategoryDelay time.Duration // default: 5s

	// CheckpointEvery is the number of processed URLs between progress checkpoints.
	CheckpointEvery int // default: 10
}

// OutputConfig controls where progress checkpoints go.
type OutputConfig struct {
	// CheckpointDir holds the <category>_progress.json files.
	CheckpointDir string // default: "."

	// Resume seeds a run from an existing progress checkpoint.
	Resume bool // default: false
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// WebhookConfig controls the optional batch completion notification.
type WebhookConfig struct {
	URL    string
	Secret string
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:   envBoolOr("POEDB_HEADLESS", false),
			NoSandbox:  envBoolOr("POEDB_NO_SANDBOX", false),
			BrowserBin: os.Getenv("POEDB_BROWSER_BIN"),
			Proxy:      os.Getenv("POEDB_PROXY"),
			Stealth:    envBoolOr("POEDB_STEALTH", false),
			UserAgent:  envOr("POEDB_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
		},
		Scraper: ScraperConfig{
			Engine:            envOr("POEDB_ENGINE", "browser"),
			NavigationTimeout: envDurationOr("POEDB_NAV_TIMEOUT", 30*time.Second),
			TableWait:         envDurationOr("POEDB_TABLE_WAIT", 15*time.Second),
			BlockedResourceTypes: envSliceOr("POEDB_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			HTTPRequestsPerSecond: envFloatOr("POEDB_HTTP_RPS", 1.0),
		},
		Pacing: PacingConfig{
			ItemDelay:       envDurationOr("POEDB_ITEM_DELAY", 2*time.Second),
			CategoryDelay:   envDurationOr("POEDB_CATEGORY_DELAY", 5*time.Second),
			CheckpointEvery: envIntOr("POEDB_CHECKPOINT_EVERY", 10),
		},
		Output: OutputConfig{
			CheckpointDir: envOr("POEDB_CHECKPOINT_DIR", "."),
			Resume:        envBoolOr("POEDB_RESUME", false),
		},
		Log: LogConfig{
			Level:  envOr("POEDB_LOG_LEVEL", "info"),
			Format: envOr("POEDB_LOG_FORMAT", "text"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("POEDB_WEBHOOK_URL"),
			Secret: os.Getenv("POEDB_WEBHOOK_SECRET"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
