// Package prompt turns raw promotional text into structured poster copy.
package prompt

import (
	"context"

	"postergen/internal/domain"
)

// Refiner extracts {title, subtitle, description, callToAction} from free
// text. Implementations retry quota and transient failures internally and
// return classified errors.
type Refiner interface {
	Refine(ctx context.Context, rawText string) (domain.StructuredContent, error)
}
