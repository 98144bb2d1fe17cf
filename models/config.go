package models

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
)

// ScrapeConfig describes one category: where its listing page lives, how to
// find item links on it and where the final output goes.
type ScrapeConfig struct {
	// BaseURL is the category listing page.
	BaseURL string `json:"base_url"`

	// ContainerSelector locates the element holding every item entry.
	ContainerSelector string `json:"container_selector"`

	// LinkSelector locates item links inside a row or child of the container.
	LinkSelector string `json:"link_selector"`

	// OutputFile is the path of the final formatted output.
	OutputFile string `json:"output_file"`

	// CategoryName is the display name; its lowercase form names the
	// progress checkpoint file.
	CategoryName string `json:"category_name"`
}

// Validate checks that every field is set and both locators compile.
func (c ScrapeConfig) Validate() error {
	fields := []struct {
		name, value string
	}{
		{"base_url", c.BaseURL},
		{"container_selector", c.ContainerSelector},
		{"link_selector", c.LinkSelector},
		{"output_file", c.OutputFile},
		{"category_name", c.CategoryName},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return NewScrapeError(ErrCodeInvalidConfig, fmt.Sprintf("%s is required", f.name), nil)
		}
	}
	if _, err := cascadia.Compile(c.ContainerSelector); err != nil {
		return NewScrapeError(ErrCodeInvalidConfig, "invalid container_selector", err)
	}
	if _, err := cascadia.Compile(c.LinkSelector); err != nil {
		return NewScrapeError(ErrCodeInvalidConfig, "invalid link_selector", err)
	}
	return nil
}
