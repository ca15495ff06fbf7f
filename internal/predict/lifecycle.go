package predict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/the-files-must-flow/internal/common"
	"github.com/Veraticus/the-files-must-flow/internal/model"
	"github.com/Veraticus/the-files-must-flow/internal/service"
)

// Training and acceptance thresholds.
const (
	// MinTrainingExamples is the cold-start floor on example count.
	MinTrainingExamples = 50
	// MinDistinctDestinations is the cold-start floor on label count.
	MinDistinctDestinations = 3
	// AcceptanceAccuracy is the validation accuracy a candidate model must
	// reach to become active.
	AcceptanceAccuracy = 0.70
	// MaxFalsePositiveRate is the ceiling on confident-wrong predictions a
	// candidate model may show on the holdout set.
	MaxFalsePositiveRate = 0.30
	// DefaultModelName identifies the destination classifier in history.
	DefaultModelName = "destination-classifier"

	// holdoutStride reserves every Nth example for validation.
	holdoutStride = 5
)

// activeModel pairs an accepted history record with its inference artifact.
// Instances are immutable once published.
type activeModel struct {
	predictor Predictor
	record    model.TrainedModelRecord
}

// Manager owns the model lifecycle: it trains candidates in the background,
// evaluates them against the acceptance threshold, appends history records,
// and swaps the active model atomically. Readers take an immutable snapshot
// per call and never observe a half-updated model. A rejected candidate
// leaves the previously accepted model active (rollback).
type Manager struct {
	storage   service.Storage
	now       func() time.Time
	modelName string
	active    atomic.Pointer[activeModel]
	trainMu   sync.Mutex
	training  bool
}

var _ service.TrainingScheduler = (*Manager)(nil)

// NewManager creates a model lifecycle manager backed by the given storage.
func NewManager(storage service.Storage) *Manager {
	return &Manager{
		storage:   storage,
		modelName: DefaultModelName,
		now:       time.Now,
	}
}

// Restore loads the most recently accepted model from storage, if any.
// Called once at startup; a missing model is not an error.
func (m *Manager) Restore(ctx context.Context) error {
	record, artifact, err := m.storage.GetActiveModelRecord(ctx, m.modelName)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load active model: %w", err)
	}

	predictor, err := unmarshalBayes(artifact)
	if err != nil {
		return fmt.Errorf("failed to restore model %s: %w", record.Version, err)
	}

	m.active.Store(&activeModel{record: *record, predictor: predictor})
	slog.Info("restored active model",
		"model", record.ModelName,
		"version", record.Version,
		"accuracy", record.ValidationAccuracy)
	return nil
}

// ScheduleTrainingIfNeeded checks the cold-start thresholds and, when met,
// launches a background training run. Below threshold, no training occurs
// and no history record is written. At most one training run is in flight
// at a time.
func (m *Manager) ScheduleTrainingIfNeeded(ctx context.Context) {
	examples, err := m.storage.GetTrainingExamples(ctx)
	if err != nil {
		common.LogError(err, "failed to load training examples", nil)
		return
	}

	distinct := distinctDestinations(examples)
	if len(examples) < MinTrainingExamples || distinct < MinDistinctDestinations {
		slog.Debug("skipping training below cold-start thresholds",
			"examples", len(examples),
			"destinations", distinct,
			"min_examples", MinTrainingExamples,
			"min_destinations", MinDistinctDestinations)
		return
	}

	m.trainMu.Lock()
	if m.training {
		m.trainMu.Unlock()
		slog.Debug("training already in progress")
		return
	}
	m.training = true
	m.trainMu.Unlock()

	// Training is CPU-bound and must not block suggestion requests; it runs
	// detached from the caller's context.
	go func() {
		defer func() {
			m.trainMu.Lock()
			m.training = false
			m.trainMu.Unlock()
		}()
		m.runTraining(context.WithoutCancel(ctx), examples)
	}()
}

// runTraining trains and evaluates one candidate model. A failed or
// rejected candidate never touches the active model pointer.
func (m *Manager) runTraining(ctx context.Context, examples []model.TrainingExample) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("training run panicked; active model unchanged", "panic", r)
		}
	}()

	trainSet, holdout := splitExamples(examples)
	candidate := trainBayes(trainSet)
	accuracy, falsePositiveRate := evaluateBayes(candidate, holdout)

	record := &model.TrainedModelRecord{
		ModelName:          m.modelName,
		Version:            uuid.NewString(),
		ExampleCount:       len(examples),
		DestinationCount:   distinctDestinations(examples),
		ValidationAccuracy: accuracy,
		FalsePositiveRate:  falsePositiveRate,
		Accepted:           accuracy >= AcceptanceAccuracy && falsePositiveRate <= MaxFalsePositiveRate,
		TrainedAt:          m.now(),
	}

	artifact, err := candidate.marshal()
	if err != nil {
		common.LogError(err, "failed to serialize candidate model", common.Fields{"version": record.Version})
		return
	}

	// History records are the source of truth for rollback; persist with
	// retries before any swap.
	err = common.WithRetry(ctx, func() error {
		return m.storage.SaveModelRecord(ctx, record, artifact)
	}, common.RetryOptions{MaxAttempts: 3})
	if err != nil {
		common.LogError(err, "failed to save model record; active model unchanged", common.Fields{"version": record.Version})
		return
	}

	if !record.Accepted {
		slog.Info("candidate model rejected, previous model remains active",
			"version", record.Version,
			"accuracy", accuracy,
			"false_positive_rate", falsePositiveRate)
		return
	}

	m.active.Store(&activeModel{record: *record, predictor: candidate})
	slog.Info("accepted new model",
		"version", record.Version,
		"examples", record.ExampleCount,
		"destinations", record.DestinationCount,
		"accuracy", accuracy,
		"false_positive_rate", falsePositiveRate)
}

// CurrentModelMetadata returns a copy of the active model's history record,
// or nil when no model has been accepted yet.
func (m *Manager) CurrentModelMetadata() *model.TrainedModelRecord {
	active := m.active.Load()
	if active == nil {
		return nil
	}
	record := active.record
	return &record
}

// snapshot returns the active predictor, or nil when none is accepted.
func (m *Manager) snapshot() *activeModel {
	return m.active.Load()
}

// splitExamples reserves every holdoutStride-th example for validation.
// The split is deterministic so repeated runs on the same data are
// comparable.
func splitExamples(examples []model.TrainingExample) (trainSet, holdout []model.TrainingExample) {
	trainSet = make([]model.TrainingExample, 0, len(examples))
	holdout = make([]model.TrainingExample, 0, len(examples)/holdoutStride+1)
	for i, ex := range examples {
		if i%holdoutStride == holdoutStride-1 {
			holdout = append(holdout, ex)
		} else {
			trainSet = append(trainSet, ex)
		}
	}
	if len(holdout) == 0 {
		return examples, examples
	}
	return trainSet, holdout
}

func distinctDestinations(examples []model.TrainingExample) int {
	seen := make(map[string]struct{})
	for _, ex := range examples {
		seen[ex.Destination] = struct{}{}
	}
	return len(seen)
}
