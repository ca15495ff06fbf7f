package pattern

import (
	"context"
	"path/filepath"
	"testing"

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

func TestLearnerRecordAcceptance(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	learner := NewLearner(store)

	file := testFile("invoice_2024.pdf")

	require.NoError(t, learner.RecordAcceptance(ctx, file, "Finance/Invoices"))

	pattern, err := store.FindPattern(ctx, "pdf", "Finance/Invoices", false)
	require.NoError(t, err)
	assert.Equal(t, 1, pattern.OccurrenceCount)
	assert.InDelta(t, 0.5, pattern.Confidence, 1e-9)
	assert.False(t, pattern.IsNegative)

	// Repeated acceptance strengthens the same pattern.
	require.NoError(t, learner.RecordAcceptance(ctx, file, "Finance/Invoices"))
	require.NoError(t, learner.RecordAcceptance(ctx, file, "Finance/Invoices"))

	pattern, err = store.FindPattern(ctx, "pdf", "Finance/Invoices", false)
	require.NoError(t, err)
	assert.Equal(t, 3, pattern.OccurrenceCount)
	assert.InDelta(t, 0.75, pattern.Confidence, 1e-9)

	examples, err := store.GetTrainingExamples(ctx)
	require.NoError(t, err)
	require.Len(t, examples, 3)
	assert.Equal(t, "invoice_2024.pdf", examples[0].FileName)
	assert.Equal(t, "Finance/Invoices", examples[0].Destination)
	assert.NotEmpty(t, examples[0].ID)
}

func TestLearnerRecordRejection(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	learner := NewLearner(store)

	file := testFile("screenshot.png")

	require.NoError(t, learner.RecordRejection(ctx, file, "Screenshots"))

	neg, err := store.FindPattern(ctx, "png", "Screenshots", true)
	require.NoError(t, err)
	assert.True(t, neg.IsNegative)
	assert.Equal(t, 1, neg.OccurrenceCount)

	// Rejections never produce training examples.
	examples, err := store.GetTrainingExamples(ctx)
	require.NoError(t, err)
	assert.Empty(t, examples)
}

func TestLearnerPositiveAndNegativeCoexist(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	learner := NewLearner(store)

	file := testFile("screenshot.png")

	require.NoError(t, learner.RecordAcceptance(ctx, file, "Screenshots"))
	require.NoError(t, learner.RecordRejection(ctx, file, "Screenshots"))

	pos, err := store.FindPattern(ctx, "png", "Screenshots", false)
	require.NoError(t, err)
	assert.False(t, pos.IsNegative)

	neg, err := store.FindPattern(ctx, "png", "Screenshots", true)
	require.NoError(t, err)
	assert.True(t, neg.IsNegative)
}

func TestLearnerFeedsMatcher(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	learner := NewLearner(store)
	matcher := NewMatcher()

	file := testFile("screenshot.png")

	require.NoError(t, learner.RecordAcceptance(ctx, file, "Screenshots"))
	require.NoError(t, learner.RecordAcceptance(ctx, file, "Screenshots"))

	patterns, err := store.GetPatternsForExtension(ctx, "png")
	require.NoError(t, err)

	match := matcher.Match(file, patterns, splitOutNegatives(patterns))
	require.NotNil(t, match)
	assert.Equal(t, "Screenshots", match.Destination)

	// A rejection of the same pairing suppresses it end to end.
	require.NoError(t, learner.RecordRejection(ctx, file, "Screenshots"))

	patterns, err = store.GetPatternsForExtension(ctx, "png")
	require.NoError(t, err)
	assert.Nil(t, matcher.Match(file, patterns, splitOutNegatives(patterns)))
}

func TestLearnerEmptyDestination(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	learner := NewLearner(store)

	err := learner.RecordAcceptance(ctx, testFile("a.txt"), "  ")
	require.Error(t, err)

	err = learner.RecordRejection(ctx, testFile("a.txt"), "")
	require.Error(t, err)
}

func splitOutNegatives(patterns []model.LearnedPattern) []model.LearnedPattern {
	var negatives []model.LearnedPattern
	for _, p := range patterns {
		if p.IsNegative {
			negatives = append(negatives, p)
		}
	}
	return negatives
}
