package harvest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/purplecofe/poedb-scraper/models"
)

const ironRingURL = "https://poedb.tw/us/Iron_Ring"

func str(s string) *string { return &s }

func TestParseItem(t *testing.T) {
	tests := []struct {
		name string
		html string
		want *models.RawItemRecord
	}{
		{
			name: "english chinese and type",
			html: `<table>
				<tr><td>BaseType</td><td> Iron Ring </td></tr>
				<tr><td>BaseType</td><td>鐵環</td></tr>
				<tr><td>Type</td><td>Ring</td></tr>
			</table>`,
			want: &models.RawItemRecord{BaseTypeEn: "Iron Ring", BaseTypeZh: str("鐵環"), Type: str("Ring"), URL: ironRingURL},
		},
		{
			name: "primary only",
			html: `<table><tr><td>BaseType</td><td>Coral Ring</td></tr></table>`,
			want: &models.RawItemRecord{BaseTypeEn: "Coral Ring", URL: ironRingURL},
		},
		{
			name: "third BaseType row ignored",
			html: `<table>
				<tr><td>BaseType</td><td>Iron Ring</td></tr>
				<tr><td>BaseType</td><td>鐵環</td></tr>
				<tr><td>BaseType</td><td>鉄の指輪</td></tr>
			</table>`,
			want: &models.RawItemRecord{BaseTypeEn: "Iron Ring", BaseTypeZh: str("鐵環"), URL: ironRingURL},
		},
		{
			name: "last Type row wins",
			html: `<table>
				<tr><td>Item Type</td><td>Jewellery</td></tr>
				<tr><td>BaseType</td><td>Iron Ring</td></tr>
				<tr><td>Type</td><td>Ring</td></tr>
			</table>`,
			want: &models.RawItemRecord{BaseTypeEn: "Iron Ring", Type: str("Ring"), URL: ironRingURL},
		},
		{
			name: "first BaseType table wins",
			html: `<table><tr><td>Level</td><td>1</td></tr></table>
				<table><tr><td>BaseType</td><td>Iron Ring</td></tr></table>
				<table><tr><td>BaseType</td><td>Ruby Ring</td></tr></table>`,
			want: &models.RawItemRecord{BaseTypeEn: "Iron Ring", URL: ironRingURL},
		},
		{
			name: "single cell rows skipped",
			html: `<table>
				<tr><td>BaseType header</td></tr>
				<tr><td>BaseType</td><td>Iron Ring</td></tr>
			</table>`,
			want: &models.RawItemRecord{BaseTypeEn: "Iron Ring", URL: ironRingURL},
		},
		{
			name: "no BaseType table",
			html: `<table><tr><td>Level</td><td>1</td></tr></table>`,
		},
		{
			name: "no tables at all",
			html: `<p>Item not found</p>`,
		},
		{
			name: "empty primary",
			html: `<table><tr><td>BaseType</td><td>  </td></tr><tr><td>Type</td><td>Ring</td></tr></table>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseItem(mustDoc(t, tt.html), ironRingURL)

			if tt.want == nil {
				if got.Kind != models.OutcomeNoData {
					t.Fatalf("Kind = %s, want no_data", got.Kind)
				}
				return
			}
			if !got.OK() {
				t.Fatalf("Kind = %s (%s), want success", got.Kind, got.Reason)
			}
			if diff := cmp.Diff(tt.want, got.Record); diff != "" {
				t.Errorf("record mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
