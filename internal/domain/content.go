package domain

import (
	"fmt"
	"strings"
)

// StructuredContent is the poster copy extracted from free-form text.
type StructuredContent struct {
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	Description  string `json:"description"`
	CallToAction string `json:"callToAction"`
}

// Validate reports the first missing field. All four are required once
// refinement succeeds.
func (c StructuredContent) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"title", c.Title},
		{"subtitle", c.Subtitle},
		{"description", c.Description},
		{"callToAction", c.CallToAction},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is empty", ErrMalformedContent, f.name)
		}
	}
	return nil
}

// GenerationRequest is the immutable input of a single pipeline call.
type GenerationRequest struct {
	Prompt    string
	Reference *ImageAsset
}
