package scraper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/purplecofe/poedb-scraper/models"
)

func TestRodSession_FailedRecycleDropsTab(t *testing.T) {
	errLaunch := errors.New("target closed")
	opens := 0
	s := &rodSession{
		openTab: func(context.Context) (*tab, error) {
			opens++
			return nil, errLaunch
		},
		tab:        &tab{},
		health:     newTabHealth(nil),
		navTimeout: time.Second,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for i := 0; i < 3; i++ {
		s.health.recordFailure()
	}

	if err := s.Navigate(context.Background(), "https://poedb.tw/us/Rings"); !errors.Is(err, errLaunch) {
		t.Fatalf("Navigate err = %v, want %v", err, errLaunch)
	}
	if s.tab != nil {
		t.Fatal("closed tab still referenced after failed replacement")
	}

	// The next navigation retries the replacement instead of using a dead tab.
	if err := s.Navigate(context.Background(), "https://poedb.tw/us/Rings"); !errors.Is(err, errLaunch) {
		t.Errorf("second Navigate err = %v, want %v", err, errLaunch)
	}
	if opens != 2 {
		t.Errorf("tab opens = %d, want 2", opens)
	}

	if err := s.WaitElement(context.Background(), "table", time.Millisecond); models.ErrorCode(err) != models.ErrCodeBrowserCrash {
		t.Errorf("WaitElement err = %v, want browser crash", err)
	}
	if _, err := s.Snapshot(context.Background()); models.ErrorCode(err) != models.ErrCodeBrowserCrash {
		t.Errorf("Snapshot err = %v, want browser crash", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close = %v, want nil", err)
	}
}
