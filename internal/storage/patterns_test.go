package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-files-must-flow/internal/common"
	"github.com/Veraticus/the-files-must-flow/internal/model"
)

func samplePattern(extension, destination string, negative bool) *model.LearnedPattern {
	return &model.LearnedPattern{
		Extension:       extension,
		Destination:     destination,
		OccurrenceCount: 1,
		Confidence:      0.5,
		IsNegative:      negative,
	}
}

func TestPatternRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	large, err := model.NewLargerThan(1 << 20)
	require.NoError(t, err)

	pattern := samplePattern("png", "Screenshots", false)
	pattern.Conditions = []model.Condition{large}

	require.NoError(t, store.CreatePattern(ctx, pattern))
	require.NotZero(t, pattern.ID)

	loaded, err := store.FindPattern(ctx, "png", "Screenshots", false)
	require.NoError(t, err)

	assert.Equal(t, "png", loaded.Extension)
	assert.Equal(t, "Screenshots", loaded.Destination)
	assert.Equal(t, 1, loaded.OccurrenceCount)
	assert.InDelta(t, 0.5, loaded.Confidence, 1e-9)
	assert.False(t, loaded.IsNegative)
	require.Len(t, loaded.Conditions, 1)
	assert.True(t, large.Equal(loaded.Conditions[0]))
}

func TestPatternExtensionNormalized(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	require.NoError(t, store.CreatePattern(ctx, samplePattern("PDF", "Documents", false)))

	// Lookups are case-insensitive because both sides lowercase.
	loaded, err := store.FindPattern(ctx, "pdf", "Documents", false)
	require.NoError(t, err)
	assert.Equal(t, "pdf", loaded.Extension)

	loaded, err = store.FindPattern(ctx, "Pdf", "Documents", false)
	require.NoError(t, err)
	assert.Equal(t, "pdf", loaded.Extension)
}

func TestFindPatternDistinguishesNegative(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	require.NoError(t, store.CreatePattern(ctx, samplePattern("png", "Screenshots", false)))
	require.NoError(t, store.CreatePattern(ctx, samplePattern("png", "Screenshots", true)))

	positive, err := store.FindPattern(ctx, "png", "Screenshots", false)
	require.NoError(t, err)
	assert.False(t, positive.IsNegative)

	neg, err := store.FindPattern(ctx, "png", "Screenshots", true)
	require.NoError(t, err)
	assert.True(t, neg.IsNegative)

	assert.NotEqual(t, positive.ID, neg.ID)
}

func TestFindPatternNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	_, err := store.FindPattern(ctx, "png", "Nowhere", false)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetPatternsForExtension(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	require.NoError(t, store.CreatePattern(ctx, samplePattern("png", "Screenshots", false)))
	require.NoError(t, store.CreatePattern(ctx, samplePattern("png", "Pictures", false)))
	require.NoError(t, store.CreatePattern(ctx, samplePattern("pdf", "Documents", false)))

	pngPatterns, err := store.GetPatternsForExtension(ctx, "png")
	require.NoError(t, err)
	assert.Len(t, pngPatterns, 2)

	all, err := store.GetPatterns(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdatePattern(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	pattern := samplePattern("png", "Screenshots", false)
	require.NoError(t, store.CreatePattern(ctx, pattern))

	pattern.OccurrenceCount = 5
	pattern.Confidence = 0.83
	require.NoError(t, store.UpdatePattern(ctx, pattern))

	loaded, err := store.FindPattern(ctx, "png", "Screenshots", false)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.OccurrenceCount)
	assert.InDelta(t, 0.83, loaded.Confidence, 1e-9)
}

func TestDeletePattern(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	pattern := samplePattern("png", "Screenshots", false)
	require.NoError(t, store.CreatePattern(ctx, pattern))
	require.NoError(t, store.DeletePattern(ctx, pattern.ID))

	_, err := store.FindPattern(ctx, "png", "Screenshots", false)
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.ErrorIs(t, store.DeletePattern(ctx, pattern.ID), common.ErrNotFound)
}

func TestDuplicatePatternRejected(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	require.NoError(t, store.CreatePattern(ctx, samplePattern("png", "Screenshots", false)))

	// The (extension, destination, is_negative) triple is unique.
	err := store.CreatePattern(ctx, samplePattern("png", "Screenshots", false))
	require.Error(t, err)
}
