package predict

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-files-must-flow/internal/model"
	"github.com/Veraticus/the-files-must-flow/internal/storage"
)

func newTestStorage(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

// newTestManager pins the clock to strictly increasing instants so history
// ordering is deterministic.
func newTestManager(store *storage.SQLiteStorage) *Manager {
	m := NewManager(store)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	step := 0
	m.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}
	return m
}

func saveExamples(t *testing.T, store *storage.SQLiteStorage, examples []model.TrainingExample) {
	t.Helper()
	ctx := context.Background()
	for i := range examples {
		require.NoError(t, store.SaveTrainingExample(ctx, &examples[i]))
	}
}

func TestScheduleTrainingColdStart(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		examples []model.TrainingExample
	}{
		{"no examples", nil},
		{"one below example floor", separableExamples(MinTrainingExamples - 1)},
		{"too few destinations", func() []model.TrainingExample {
			examples := make([]model.TrainingExample, 0, MinTrainingExamples)
			for i := 0; i < MinTrainingExamples/2; i++ {
				examples = append(examples,
					exampleOf("invoice.pdf", "pdf", "Documents"),
					exampleOf("photo.jpg", "jpg", "Pictures"))
			}
			return examples
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStorage(t)
			manager := newTestManager(store)
			saveExamples(t, store, tt.examples)

			manager.ScheduleTrainingIfNeeded(ctx)

			// Below threshold nothing trains, so no history record appears and
			// no model becomes active.
			assert.Nil(t, manager.CurrentModelMetadata())
			history, err := store.GetModelHistory(ctx, DefaultModelName)
			require.NoError(t, err)
			assert.Empty(t, history)
		})
	}
}

func TestScheduleTrainingAboveThreshold(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	manager := newTestManager(store)

	saveExamples(t, store, separableExamples(MinTrainingExamples+10))

	manager.ScheduleTrainingIfNeeded(ctx)

	require.Eventually(t, func() bool {
		return manager.CurrentModelMetadata() != nil
	}, 5*time.Second, 10*time.Millisecond, "training should accept a model on separable data")

	record := manager.CurrentModelMetadata()
	assert.True(t, record.Accepted)
	assert.Equal(t, DefaultModelName, record.ModelName)
	assert.GreaterOrEqual(t, record.ValidationAccuracy, AcceptanceAccuracy)
	assert.LessOrEqual(t, record.FalsePositiveRate, MaxFalsePositiveRate)
	assert.Equal(t, MinTrainingExamples+10, record.ExampleCount)
	assert.Equal(t, 3, record.DestinationCount)
}

func TestTrainingRejectionKeepsPreviousModel(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	manager := newTestManager(store)

	// First run on separable data produces an accepted model.
	manager.runTraining(ctx, separableExamples(60))

	first := manager.CurrentModelMetadata()
	require.NotNil(t, first)
	require.True(t, first.Accepted)

	// Second run on unlearnable data must be recorded as rejected and must
	// not displace the accepted model.
	manager.runTraining(ctx, conflictingExamples(60))

	current := manager.CurrentModelMetadata()
	require.NotNil(t, current)
	assert.Equal(t, first.Version, current.Version)

	history, err := store.GetModelHistory(ctx, DefaultModelName)
	require.NoError(t, err)
	require.Len(t, history, 2)

	var accepted, rejected int
	for _, record := range history {
		if record.Accepted {
			accepted++
		} else {
			rejected++
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, rejected)
}

func TestRestoreLoadsMostRecentAcceptedModel(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	trainer := newTestManager(store)
	trainer.runTraining(ctx, separableExamples(60))
	accepted := trainer.CurrentModelMetadata()
	require.NotNil(t, accepted)

	// A later rejected candidate sits on top of the history.
	trainer.runTraining(ctx, conflictingExamples(60))

	restored := NewManager(store)
	require.NoError(t, restored.Restore(ctx))

	record := restored.CurrentModelMetadata()
	require.NotNil(t, record)
	assert.Equal(t, accepted.Version, record.Version)
	assert.True(t, record.Accepted)

	// The restored model actually serves predictions.
	active := restored.snapshot()
	require.NotNil(t, active)
	candidates, err := active.predictor.Predict(ctx, model.FileFact{Name: "invoice_001.pdf", Extension: "pdf", Size: 4096})
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	assert.Equal(t, "Documents", candidates[0].Destination)
}

func TestRestoreWithEmptyHistory(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	manager := NewManager(store)
	require.NoError(t, manager.Restore(ctx))
	assert.Nil(t, manager.CurrentModelMetadata())
}

func TestCurrentModelMetadataReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	manager := newTestManager(store)

	manager.runTraining(ctx, separableExamples(60))

	first := manager.CurrentModelMetadata()
	require.NotNil(t, first)
	first.Version = "mutated"

	second := manager.CurrentModelMetadata()
	assert.NotEqual(t, "mutated", second.Version)
}
