package predict

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-files-must-flow/internal/model"
)

// exampleOf builds a training example for a synthetic filing decision.
func exampleOf(fileName, extension, destination string) model.TrainingExample {
	return model.TrainingExample{
		ID:          fileName,
		FileName:    fileName,
		Extension:   extension,
		Destination: destination,
		Size:        4096,
		CreatedAt:   time.Now(),
	}
}

// separableExamples yields n examples across three cleanly separable
// destinations, interleaved so any deterministic holdout sees every class.
func separableExamples(n int) []model.TrainingExample {
	classes := []struct {
		prefix string
		ext    string
		dest   string
	}{
		{"invoice", "pdf", "Documents"},
		{"photo", "jpg", "Pictures"},
		{"song", "mp3", "Music"},
	}

	examples := make([]model.TrainingExample, 0, n)
	for i := 0; i < n; i++ {
		c := classes[i%len(classes)]
		name := fmt.Sprintf("%s_%03d.%s", c.prefix, i, c.ext)
		examples = append(examples, exampleOf(name, c.ext, c.dest))
	}
	return examples
}

// conflictingExamples yields identical-feature examples with rotating
// labels, which no classifier can separate.
func conflictingExamples(n int) []model.TrainingExample {
	destinations := []string{"A", "B", "C"}
	examples := make([]model.TrainingExample, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("data_%03d.bin", i)
		examples = append(examples, exampleOf(name, "bin", destinations[i%len(destinations)]))
	}
	return examples
}

func TestBayesPredictsLearnedDestinations(t *testing.T) {
	m := trainBayes(separableExamples(60))

	tests := []struct {
		fileName string
		ext      string
		want     string
	}{
		{"invoice_999.pdf", "pdf", "Documents"},
		{"photo_999.jpg", "jpg", "Pictures"},
		{"song_999.mp3", "mp3", "Music"},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			file := model.FileFact{Name: tt.fileName, Extension: tt.ext, Size: 4096}
			candidates, err := m.Predict(context.Background(), file)
			require.NoError(t, err)
			require.NotEmpty(t, candidates)
			assert.Equal(t, tt.want, candidates[0].Destination)
			assert.Greater(t, candidates[0].Score, 0.5)
		})
	}
}

func TestBayesScoresAreNormalized(t *testing.T) {
	m := trainBayes(separableExamples(30))

	file := model.FileFact{Name: "invoice_001.pdf", Extension: "pdf", Size: 4096}
	candidates, err := m.Predict(context.Background(), file)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	var sum float64
	for _, c := range candidates {
		assert.GreaterOrEqual(t, c.Score, 0.0)
		assert.LessOrEqual(t, c.Score, 1.0)
		sum += c.Score
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	// Descending by score.
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Score, candidates[i].Score)
	}
}

func TestBayesEmptyModel(t *testing.T) {
	m := trainBayes(nil)

	_, err := m.Predict(context.Background(), model.FileFact{Name: "a.txt", Extension: "txt"})
	require.Error(t, err)
}

func TestBayesArtifactRoundTrip(t *testing.T) {
	trained := trainBayes(separableExamples(30))

	artifact, err := trained.marshal()
	require.NoError(t, err)

	restored, err := unmarshalBayes(artifact)
	require.NoError(t, err)

	file := model.FileFact{Name: "photo_777.jpg", Extension: "jpg", Size: 4096}
	want, err := trained.Predict(context.Background(), file)
	require.NoError(t, err)
	got, err := restored.Predict(context.Background(), file)
	require.NoError(t, err)

	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Destination, got[i].Destination)
		assert.InDelta(t, want[i].Score, got[i].Score, 1e-12)
	}
}

func TestEvaluateBayes(t *testing.T) {
	t.Run("separable data scores high", func(t *testing.T) {
		trainSet, holdout := splitExamples(separableExamples(60))
		m := trainBayes(trainSet)

		accuracy, falsePositiveRate := evaluateBayes(m, holdout)
		assert.GreaterOrEqual(t, accuracy, AcceptanceAccuracy)
		assert.LessOrEqual(t, falsePositiveRate, MaxFalsePositiveRate)
	})

	t.Run("conflicting data scores low", func(t *testing.T) {
		trainSet, holdout := splitExamples(conflictingExamples(60))
		m := trainBayes(trainSet)

		accuracy, _ := evaluateBayes(m, holdout)
		assert.Less(t, accuracy, AcceptanceAccuracy)
	})

	t.Run("empty holdout", func(t *testing.T) {
		m := trainBayes(separableExamples(10))
		accuracy, falsePositiveRate := evaluateBayes(m, nil)
		assert.Zero(t, accuracy)
		assert.Equal(t, 1.0, falsePositiveRate)
	})
}

func TestFeatureTokens(t *testing.T) {
	tokens := featureTokens("Invoice_ACME_2024.pdf", "pdf", 4096)

	assert.Contains(t, tokens, "ext:pdf")
	assert.Contains(t, tokens, "kind:document")
	assert.Contains(t, tokens, "size:small")
	assert.Contains(t, tokens, "tok:invoice")
	assert.Contains(t, tokens, "tok:acme")
	// Pure numbers and short fragments carry no signal.
	assert.NotContains(t, tokens, "tok:2024")
}

func TestFeatureTokensSizeBuckets(t *testing.T) {
	assert.Contains(t, featureTokens("a.bin", "bin", 512), "size:small")
	assert.Contains(t, featureTokens("a.bin", "bin", 50<<20), "size:medium")
	assert.Contains(t, featureTokens("a.bin", "bin", 500<<20), "size:large")

	for _, token := range featureTokens("a.bin", "bin", 0) {
		assert.NotContains(t, token, "size:")
	}
}

func TestSplitExamples(t *testing.T) {
	examples := separableExamples(20)
	trainSet, holdout := splitExamples(examples)

	assert.Len(t, holdout, 4)
	assert.Len(t, trainSet, 16)

	// Tiny sets fall back to evaluating on the training data.
	tiny := separableExamples(3)
	trainSet, holdout = splitExamples(tiny)
	assert.Len(t, trainSet, 3)
	assert.Len(t, holdout, 3)
}
