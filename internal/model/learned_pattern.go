package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/the-files-must-flow/internal/common"
)

// LearnedPattern is a frequency pattern observed from user filing behavior:
// files with a given extension usually end up at a given destination.
// Negative patterns record rejected suggestions and act as suppressors for
// that (extension, destination) pairing, never as proposers.
type LearnedPattern struct {
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Extension       string      `json:"extension"`
	Destination     string      `json:"destination"`
	Conditions      []Condition `json:"conditions,omitempty"`
	ID              int64       `json:"id"`
	OccurrenceCount int         `json:"occurrence_count"`
	Confidence      float64     `json:"confidence"`
	IsNegative      bool        `json:"is_negative"`
}

// Validate ensures the pattern has usable data before persistence.
func (p *LearnedPattern) Validate() error {
	if strings.TrimSpace(p.Extension) == "" {
		return common.NewValidationError("extension", "pattern extension is required")
	}
	if strings.TrimSpace(p.Destination) == "" {
		return common.NewValidationError("destination", "pattern destination is required")
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return common.NewValidationError("confidence", fmt.Sprintf("confidence must be between 0 and 1, got %g", p.Confidence))
	}
	if p.OccurrenceCount < 0 {
		return common.NewValidationError("occurrence_count", "occurrence count cannot be negative")
	}
	for i, cond := range p.Conditions {
		if err := cond.Validate(); err != nil {
			return fmt.Errorf("condition at index %d: %w", i, err)
		}
	}
	return nil
}

// MatchesExtension reports whether the pattern applies to the extension,
// case-insensitively.
func (p *LearnedPattern) MatchesExtension(extension string) bool {
	return strings.EqualFold(p.Extension, extension)
}
