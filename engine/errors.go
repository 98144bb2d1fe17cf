package engine

import (
	"context"
	"errors"

	"github.com/purplecofe/poedb-scraper/models"
)

// CategorizeError wraps raw renderer errors into typed ScrapeErrors so the
// runner can log a stable code.
func CategorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}

// IsTimeout reports whether err carries the timeout code.
func IsTimeout(err error) bool {
	return models.ErrorCode(err) == models.ErrCodeTimeout
}
