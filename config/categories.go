package config

import (
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"github.com/purplecofe/poedb-scraper/models"
	"github.com/titanous/json5"
)

// Categories maps a category key (e.g. "rings") to its scrape settings and
// remembers the order in which the keys were defined.
type Categories struct {
	order []string
	byKey map[string]models.ScrapeConfig
}

// keySeq stamps decoded keys so file order survives the map decode.
var keySeq atomic.Uint64

// orderedKey is a category key tagged with its decode position.
type orderedKey struct {
	name string
	seq  uint64
}

func (k *orderedKey) UnmarshalText(b []byte) error {
	k.name = string(b)
	k.seq = keySeq.Add(1)
	return nil
}

// LoadCategories reads the category file. The file is JSON; JSON5 comments
// and trailing commas are tolerated. A missing file, malformed content, an
// empty mapping or an invalid entry are all configuration errors. A key
// defined twice keeps its first position and its last value.
func LoadCategories(path string) (*Categories, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidConfig,
			fmt.Sprintf("config file %s could not be read", path), err)
	}

	var raw map[orderedKey]models.ScrapeConfig
	if err := json5.Unmarshal(data, &raw); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidConfig,
			fmt.Sprintf("config file %s is malformed", path), err)
	}
	if len(raw) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeInvalidConfig,
			fmt.Sprintf("config file %s defines no categories", path), nil)
	}

	keys := make([]orderedKey, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].seq < keys[j].seq })

	cats := &Categories{}
	for _, k := range keys {
		cats.Add(k.name, raw[k])
	}
	for _, key := range cats.Keys() {
		if err := cats.byKey[key].Validate(); err != nil {
			return nil, fmt.Errorf("category %q: %w", key, err)
		}
	}
	return cats, nil
}

// Add sets the config for key. A new key goes to the end of the order.
func (c *Categories) Add(key string, cfg models.ScrapeConfig) {
	if c.byKey == nil {
		c.byKey = make(map[string]models.ScrapeConfig)
	}
	if _, ok := c.byKey[key]; !ok {
		c.order = append(c.order, key)
	}
	c.byKey[key] = cfg
}

// Get returns the config for key.
func (c *Categories) Get(key string) (models.ScrapeConfig, bool) {
	cfg, ok := c.byKey[key]
	return cfg, ok
}

func (c *Categories) Len() int { return len(c.order) }

// Keys returns the category keys in definition order.
func (c *Categories) Keys() []string {
	return append([]string(nil), c.order...)
}

// Select resolves requested keys against the mapping, preserving the
// requested order and dropping duplicates. Unknown keys are returned
// separately so the caller can report them.
func (c *Categories) Select(requested []string) (known, unknown []string) {
	seen := make(map[string]struct{}, len(requested))
	for _, key := range requested {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := c.byKey[key]; ok {
			known = append(known, key)
		} else {
			unknown = append(unknown, key)
		}
	}
	return known, unknown
}
