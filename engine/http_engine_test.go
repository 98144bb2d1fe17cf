package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/purplecofe/poedb-scraper/models"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/us/Iron_Ring", func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("User-Agent = %q, want test-agent", ua)
		}
		w.Write([]byte(`<html><head><title> Iron Ring </title></head>
<body><table><tr><td>BaseType</td><td>Iron Ring</td></tr></table></body></html>`))
	})
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/us/Iron_Ring", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func openSession(t *testing.T) Session {
	t.Helper()
	r := NewHTTPRenderer(HTTPOptions{UserAgent: "test-agent", Timeout: 5 * time.Second})
	s, err := r.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHTTPSession_NavigateAndSnapshot(t *testing.T) {
	srv := newTestServer(t)
	s := openSession(t)
	ctx := context.Background()

	if err := s.Navigate(ctx, srv.URL+"/old"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	page, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if page.URL != srv.URL+"/us/Iron_Ring" {
		t.Errorf("URL = %q, want the redirect target", page.URL)
	}
	if page.Title != "Iron Ring" {
		t.Errorf("Title = %q, want Iron Ring", page.Title)
	}

	doc, err := page.Document()
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Find("td").Length(); got != 2 {
		t.Errorf("td count = %d, want 2", got)
	}
}

func TestHTTPSession_WaitElement(t *testing.T) {
	srv := newTestServer(t)
	s := openSession(t)
	ctx := context.Background()

	if err := s.Navigate(ctx, srv.URL+"/us/Iron_Ring"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if err := s.WaitElement(ctx, "table", time.Second); err != nil {
		t.Errorf("WaitElement(table): %v", err)
	}

	err := s.WaitElement(ctx, "#RingsItem", time.Second)
	if !IsTimeout(err) {
		t.Errorf("WaitElement(absent) = %v, want timeout", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("absent element error should wrap context.DeadlineExceeded")
	}
}

func TestHTTPSession_NotFound(t *testing.T) {
	srv := newTestServer(t)
	s := openSession(t)

	err := s.Navigate(context.Background(), srv.URL+"/missing")
	if code := models.ErrorCode(err); code != models.ErrCodeNavigation {
		t.Errorf("code = %s, want %s", code, models.ErrCodeNavigation)
	}
}

func TestHTTPSession_SnapshotBeforeNavigate(t *testing.T) {
	s := openSession(t)
	if _, err := s.Snapshot(context.Background()); err == nil {
		t.Error("expected error before any navigation")
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", context.DeadlineExceeded, models.ErrCodeTimeout},
		{"canceled", context.Canceled, models.ErrCodeTimeout},
		{"other", errors.New("net::ERR_NAME_NOT_RESOLVED"), models.ErrCodeNavigation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategorizeError(tt.err, "msg").Code; got != tt.want {
				t.Errorf("Code = %s, want %s", got, tt.want)
			}
		})
	}
}
