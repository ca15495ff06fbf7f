package pattern

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/the-files-must-flow/internal/common"
	"github.com/Veraticus/the-files-must-flow/internal/model"
	"github.com/Veraticus/the-files-must-flow/internal/service"
)

// confidenceCeiling caps learned confidence so pattern suggestions never
// look as certain as deterministic rules.
const confidenceCeiling = 0.95

// Learner records user accept/reject decisions as learned patterns and
// training examples. Acceptance strengthens the (extension, destination)
// pattern; rejection writes or strengthens a negative pattern for the same
// pairing.
type Learner struct {
	storage service.Storage
}

// NewLearner creates a pattern learner backed by the given storage.
func NewLearner(storage service.Storage) *Learner {
	return &Learner{storage: storage}
}

// RecordAcceptance notes that the user accepted moving file to destination.
func (l *Learner) RecordAcceptance(ctx context.Context, file model.FileFact, destination string) error {
	if strings.TrimSpace(destination) == "" {
		return common.NewValidationError("destination", "destination cannot be empty")
	}

	if err := l.bumpPattern(ctx, file.Extension, destination, false); err != nil {
		return err
	}

	// Accepted decisions also feed the statistical predictor.
	example := &model.TrainingExample{
		ID:          uuid.NewString(),
		FileName:    file.Name,
		Extension:   file.Extension,
		Size:        file.Size,
		Destination: destination,
		CreatedAt:   time.Now(),
	}
	if err := l.storage.SaveTrainingExample(ctx, example); err != nil {
		return fmt.Errorf("failed to save training example: %w", err)
	}

	return nil
}

// RecordRejection notes that the user rejected a suggestion of destination
// for this file, suppressing the pairing for future suggestions.
func (l *Learner) RecordRejection(ctx context.Context, file model.FileFact, destination string) error {
	if strings.TrimSpace(destination) == "" {
		return common.NewValidationError("destination", "destination cannot be empty")
	}
	return l.bumpPattern(ctx, file.Extension, destination, true)
}

func (l *Learner) bumpPattern(ctx context.Context, extension, destination string, negative bool) error {
	existing, err := l.storage.FindPattern(ctx, extension, destination, negative)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("failed to look up pattern: %w", err)
	}

	if existing == nil {
		created := &model.LearnedPattern{
			Extension:       strings.ToLower(extension),
			Destination:     destination,
			OccurrenceCount: 1,
			Confidence:      initialConfidence(negative),
			IsNegative:      negative,
		}
		if createErr := l.storage.CreatePattern(ctx, created); createErr != nil {
			return fmt.Errorf("failed to create pattern: %w", createErr)
		}
		slog.Debug("learned new pattern",
			"extension", extension,
			"destination", destination,
			"negative", negative)
		return nil
	}

	existing.OccurrenceCount++
	existing.Confidence = recomputeConfidence(existing.OccurrenceCount)
	if updateErr := l.storage.UpdatePattern(ctx, existing); updateErr != nil {
		return fmt.Errorf("failed to update pattern: %w", updateErr)
	}

	return nil
}

func initialConfidence(negative bool) float64 {
	if negative {
		return confidenceCeiling
	}
	return 0.5
}

// recomputeConfidence grows confidence with repeated observations,
// approaching but never reaching the ceiling.
func recomputeConfidence(occurrences int) float64 {
	confidence := 1.0 - 1.0/float64(occurrences+1)
	if confidence > confidenceCeiling {
		return confidenceCeiling
	}
	return confidence
}
