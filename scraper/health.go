package scraper

import (
	"math"
	"time"
)

// Tab retirement thresholds. A category run reuses one tab for hundreds of
// item pages, so the tab is replaced when it keeps failing or grows old.
const (
	retireErrScore = 3.0
	retireUses     = 200
	retireAge      = 50 * time.Minute
)

// tabHealth scores a tab: a success lowers the score by 0.5 (min 0), a
// failure raises it by 1.
type tabHealth struct {
	errScore float64
	uses     int
	created  time.Time
	now      func() time.Time
}

func newTabHealth(now func() time.Time) *tabHealth {
	if now == nil {
		now = time.Now
	}
	return &tabHealth{created: now(), now: now}
}

func (h *tabHealth) recordSuccess() {
	h.uses++
	h.errScore = math.Max(0, h.errScore-0.5)
}

func (h *tabHealth) recordFailure() {
	h.uses++
	h.errScore += 1.0
}

func (h *tabHealth) shouldRetire() bool {
	return h.errScore >= retireErrScore ||
		h.uses >= retireUses ||
		h.now().Sub(h.created) >= retireAge
}
