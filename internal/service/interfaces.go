// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/the-files-must-flow/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Rule operations
	CreateRule(ctx context.Context, rule *model.Rule) error
	GetRule(ctx context.Context, id int64) (*model.Rule, error)
	GetRules(ctx context.Context) ([]model.Rule, error)
	GetEnabledRules(ctx context.Context) ([]model.Rule, error)
	UpdateRule(ctx context.Context, rule *model.Rule) error
	DeleteRule(ctx context.Context, id int64) error

	// Learned pattern operations
	CreatePattern(ctx context.Context, pattern *model.LearnedPattern) error
	GetPatterns(ctx context.Context) ([]model.LearnedPattern, error)
	GetPatternsForExtension(ctx context.Context, extension string) ([]model.LearnedPattern, error)
	FindPattern(ctx context.Context, extension, destination string, negative bool) (*model.LearnedPattern, error)
	UpdatePattern(ctx context.Context, pattern *model.LearnedPattern) error
	DeletePattern(ctx context.Context, id int64) error

	// Trained model history
	SaveModelRecord(ctx context.Context, record *model.TrainedModelRecord, artifact []byte) error
	GetActiveModelRecord(ctx context.Context, modelName string) (*model.TrainedModelRecord, []byte, error)
	GetModelHistory(ctx context.Context, modelName string) ([]model.TrainedModelRecord, error)

	// Training examples
	SaveTrainingExample(ctx context.Context, example *model.TrainingExample) error
	GetTrainingExamples(ctx context.Context) ([]model.TrainingExample, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Suggester is the single entry point other subsystems use to compute a
// destination suggestion for one file.
type Suggester interface {
	Suggest(ctx context.Context, file model.FileFact, rules []model.Rule, patterns, negatives []model.LearnedPattern, predCtx model.PredictionContext) model.SuggestionResult
}

// TrainingScheduler is invoked periodically by a scheduling collaborator.
type TrainingScheduler interface {
	ScheduleTrainingIfNeeded(ctx context.Context)
	CurrentModelMetadata() *model.TrainedModelRecord
}
