package harvest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/purplecofe/poedb-scraper/engine/enginetest"
	"github.com/purplecofe/poedb-scraper/models"
)

var ringsConfig = models.ScrapeConfig{
	BaseURL:           ringsURL,
	ContainerSelector: "#RingsItem > div > table > tbody",
	LinkSelector:      "td > a",
	OutputFile:        "rings.json",
	CategoryName:      "Rings",
}

const ringsListing = `<div id="RingsItem"><div><table><tbody>
	<tr><td><a href="/us/Iron_Ring">Iron Ring</a></td></tr>
	<tr><td><a href="/us/Coral_Ring">Coral Ring</a></td></tr>
</tbody></table></div></div>`

func TestHarvester_Harvest(t *testing.T) {
	r := enginetest.New(map[string]string{ringsURL: ringsListing})
	s, err := r.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	h := &Harvester{ListingWait: time.Second}
	got, err := h.Harvest(context.Background(), s, ringsConfig)
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}
	want := []string{"https://poedb.tw/us/Iron_Ring", "https://poedb.tw/us/Coral_Ring"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestHarvester_MissingContainer(t *testing.T) {
	r := enginetest.New(map[string]string{ringsURL: `<p>maintenance</p>`})
	s, _ := r.Open(context.Background())
	defer s.Close()

	h := &Harvester{ListingWait: time.Second}
	got, err := h.Harvest(context.Background(), s, ringsConfig)
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d links, want none", len(got))
	}
}

func TestHarvester_NavigationError(t *testing.T) {
	r := enginetest.New(nil)
	r.Errors[ringsURL] = models.NewScrapeError(models.ErrCodeNavigation, "net::ERR_CONNECTION_RESET", nil)
	s, _ := r.Open(context.Background())
	defer s.Close()

	h := &Harvester{ListingWait: time.Second}
	if _, err := h.Harvest(context.Background(), s, ringsConfig); models.ErrorCode(err) != models.ErrCodeNavigation {
		t.Errorf("err = %v, want navigation failure", err)
	}
}

func TestExtractor_Extract(t *testing.T) {
	const item = `<table>
		<tr><td>BaseType</td><td>Iron Ring</td></tr>
		<tr><td>BaseType</td><td>鐵環</td></tr>
		<tr><td>Type</td><td>Ring</td></tr>
	</table>`

	r := enginetest.New(map[string]string{
		"https://poedb.tw/us/Iron_Ring": item,
		"https://poedb.tw/us/Blank":     `<p>nothing here</p>`,
	})
	r.Redirects["https://poedb.tw/us/iron_ring"] = "https://poedb.tw/us/Iron_Ring"
	r.Errors["https://poedb.tw/us/Broken"] = errors.New("net::ERR_TIMED_OUT")

	s, _ := r.Open(context.Background())
	defer s.Close()
	e := &Extractor{TableWait: time.Second}
	ctx := context.Background()

	t.Run("redirect records final url", func(t *testing.T) {
		out := e.Extract(ctx, s, "https://poedb.tw/us/iron_ring")
		if !out.OK() {
			t.Fatalf("Kind = %s, want success", out.Kind)
		}
		want := &models.RawItemRecord{
			BaseTypeEn: "Iron Ring", BaseTypeZh: str("鐵環"), Type: str("Ring"),
			URL: "https://poedb.tw/us/Iron_Ring",
		}
		if diff := cmp.Diff(want, out.Record); diff != "" {
			t.Errorf("record mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing table is no data", func(t *testing.T) {
		if out := e.Extract(ctx, s, "https://poedb.tw/us/Blank"); out.Kind != models.OutcomeNoData {
			t.Errorf("Kind = %s, want no_data", out.Kind)
		}
	})

	t.Run("navigation failure is transient", func(t *testing.T) {
		out := e.Extract(ctx, s, "https://poedb.tw/us/Broken")
		if out.Kind != models.OutcomeTransientError || out.Err == nil {
			t.Errorf("outcome = %+v, want transient error", out)
		}
	})

	t.Run("cancelled context is transient", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		out := e.Extract(cctx, s, "https://poedb.tw/us/Iron_Ring")
		if out.Kind != models.OutcomeTransientError {
			t.Errorf("Kind = %s, want transient_error", out.Kind)
		}
	})
}
