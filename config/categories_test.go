package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/purplecofe/poedb-scraper/models"
)

const ringsAndAmulets = `{
	// trailing commas and comments are tolerated
	"rings": {
		"base_url": "https://poedb.tw/us/Rings",
		"container_selector": "#RingsItem > div > table > tbody",
		"link_selector": "td > a",
		"output_file": "rings.json",
		"category_name": "Rings",
	},
	"amulets": {
		"base_url": "https://poedb.tw/us/Amulets",
		"container_selector": "#AmuletsItem > div.row",
		"link_selector": "a.item_unique",
		"output_file": "amulets.json",
		"category_name": "Amulets"
	}
}`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scraper_configs.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCategories(t *testing.T) {
	cats, err := LoadCategories(writeFile(t, ringsAndAmulets))
	if err != nil {
		t.Fatalf("LoadCategories: %v", err)
	}

	if diff := cmp.Diff([]string{"rings", "amulets"}, cats.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	want := models.ScrapeConfig{
		BaseURL:           "https://poedb.tw/us/Rings",
		ContainerSelector: "#RingsItem > div > table > tbody",
		LinkSelector:      "td > a",
		OutputFile:        "rings.json",
		CategoryName:      "Rings",
	}
	got, ok := cats.Get("rings")
	if !ok {
		t.Fatal("rings missing")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rings mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCategories_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }},
		{"malformed", func(t *testing.T) string { return writeFile(t, `{"rings": {`) }},
		{"empty mapping", func(t *testing.T) string { return writeFile(t, `{}`) }},
		{"invalid entry", func(t *testing.T) string {
			return writeFile(t, `{"rings": {"base_url": "https://poedb.tw/us/Rings"}}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cats, err := LoadCategories(tt.path(t))
			if err == nil {
				t.Fatalf("expected error, got %d categories", cats.Len())
			}
			if code := models.ErrorCode(err); code != models.ErrCodeInvalidConfig {
				t.Errorf("code = %s, want %s", code, models.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestLoadCategories_DefinitionOrder(t *testing.T) {
	const file = `{
		zeta: {base_url: "https://poedb.tw/us/Zeta", container_selector: "#Z", link_selector: "a", output_file: "z.json", category_name: "Zeta"},
		necklaces: {base_url: "https://poedb.tw/us/N", container_selector: "#N", link_selector: "a", output_file: "n.json", category_name: "N"},
		alpha: {base_url: "https://poedb.tw/us/A", container_selector: "#A", link_selector: "a", output_file: "a.json", category_name: "A"},
		zeta: {base_url: "https://poedb.tw/us/Zeta2", container_selector: "#Z", link_selector: "a", output_file: "z.json", category_name: "Zeta"},
	}`
	cats, err := LoadCategories(writeFile(t, file))
	if err != nil {
		t.Fatalf("LoadCategories: %v", err)
	}
	if diff := cmp.Diff([]string{"zeta", "necklaces", "alpha"}, cats.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if z, _ := cats.Get("zeta"); z.BaseURL != "https://poedb.tw/us/Zeta2" {
		t.Errorf("duplicate key kept %q, want the last value", z.BaseURL)
	}
}

func TestCategories_Select(t *testing.T) {
	cats, err := LoadCategories(writeFile(t, ringsAndAmulets))
	if err != nil {
		t.Fatal(err)
	}

	known, unknown := cats.Select([]string{"rings", "belts", "amulets", "rings"})
	if diff := cmp.Diff([]string{"rings", "amulets"}, known); diff != "" {
		t.Errorf("known mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"belts"}, unknown); diff != "" {
		t.Errorf("unknown mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	if cfg.Pacing.CheckpointEvery != 10 {
		t.Errorf("CheckpointEvery = %d, want 10", cfg.Pacing.CheckpointEvery)
	}
	if cfg.Scraper.Engine != "browser" {
		t.Errorf("Engine = %q, want browser", cfg.Scraper.Engine)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("POEDB_ITEM_DELAY", "250ms")
	t.Setenv("POEDB_BLOCKED_RESOURCES", "Image, Script ,")
	t.Setenv("POEDB_HEADLESS", "true")

	cfg := Load()
	if cfg.Pacing.ItemDelay.String() != "250ms" {
		t.Errorf("ItemDelay = %s, want 250ms", cfg.Pacing.ItemDelay)
	}
	if diff := cmp.Diff([]string{"Image", "Script"}, cfg.Scraper.BlockedResourceTypes); diff != "" {
		t.Errorf("blocked resources mismatch (-want +got):\n%s", diff)
	}
	if !cfg.Browser.Headless {
		t.Error("Headless should be true")
	}
}
