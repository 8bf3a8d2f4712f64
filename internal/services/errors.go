package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFetch marks scrape or network failures while loading a chapter.
	ErrFetch = errors.New("fetch error")
	// ErrNotFound marks a local source path that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrGeneration marks AI call failures, timeouts, or empty output.
	ErrGeneration = errors.New("generation error")
	// ErrStoreUnavailable marks a persistence backend that cannot be
	// opened or written.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrValidation marks inputs that violate a lineage invariant.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration discovered at runtime.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
