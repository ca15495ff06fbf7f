// Package predict implements the gated statistical destination predictor:
// a multinomial naive Bayes model over file features, the lifecycle manager
// that trains/accepts/rolls back models, and the prediction gate that
// filters raw predictions before they reach the suggestion pipeline.
package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Veraticus/the-files-must-flow/internal/model"
)

// Candidate is one ranked (destination, score) inference result. Scores are
// normalized probabilities in [0,1] summing to 1 across candidates.
type Candidate struct {
	Destination string
	Score       float64
}

// Predictor produces a ranked candidate list for a file.
type Predictor interface {
	Predict(ctx context.Context, file model.FileFact) ([]Candidate, error)
}

// bayesModel is a multinomial naive Bayes classifier over file name,
// extension, and kind features. The exported fields make the trained model
// serializable as the storage artifact.
type bayesModel struct {
	ClassCounts map[string]int            `json:"class_counts"`
	TokenCounts map[string]map[string]int `json:"token_counts"`
	VocabSize   int                       `json:"vocab_size"`
	Total       int                       `json:"total"`
}

var _ Predictor = (*bayesModel)(nil)

// trainBayes fits a naive Bayes model on the given examples.
func trainBayes(examples []model.TrainingExample) *bayesModel {
	m := &bayesModel{
		ClassCounts: make(map[string]int),
		TokenCounts: make(map[string]map[string]int),
	}

	vocab := make(map[string]struct{})
	for _, ex := range examples {
		m.ClassCounts[ex.Destination]++
		m.Total++

		counts := m.TokenCounts[ex.Destination]
		if counts == nil {
			counts = make(map[string]int)
			m.TokenCounts[ex.Destination] = counts
		}
		for _, token := range featureTokens(ex.FileName, ex.Extension, ex.Size) {
			counts[token]++
			vocab[token] = struct{}{}
		}
	}
	m.VocabSize = len(vocab)

	return m
}

// Predict scores every known destination for the file and returns
// candidates sorted by descending probability, with destination name as a
// deterministic tie-break.
func (m *bayesModel) Predict(_ context.Context, file model.FileFact) ([]Candidate, error) {
	if m.Total == 0 || len(m.ClassCounts) == 0 {
		return nil, fmt.Errorf("model has no training data")
	}

	tokens := featureTokens(file.Name, file.Extension, file.Size)

	// Log-space naive Bayes with Laplace smoothing.
	logScores := make(map[string]float64, len(m.ClassCounts))
	for destination, classCount := range m.ClassCounts {
		score := math.Log(float64(classCount) / float64(m.Total))

		counts := m.TokenCounts[destination]
		tokenTotal := 0
		for _, c := range counts {
			tokenTotal += c
		}
		denominator := float64(tokenTotal + m.VocabSize)

		for _, token := range tokens {
			score += math.Log(float64(counts[token]+1) / denominator)
		}
		logScores[destination] = score
	}

	// Normalize to probabilities (softmax over log scores, shifted for
	// numeric stability).
	maxLog := math.Inf(-1)
	for _, s := range logScores {
		if s > maxLog {
			maxLog = s
		}
	}
	var sum float64
	probs := make(map[string]float64, len(logScores))
	for destination, s := range logScores {
		p := math.Exp(s - maxLog)
		probs[destination] = p
		sum += p
	}

	candidates := make([]Candidate, 0, len(probs))
	for destination, p := range probs {
		candidates = append(candidates, Candidate{Destination: destination, Score: p / sum})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Destination < candidates[j].Destination
	})

	return candidates, nil
}

// marshal serializes the model as the persisted inference artifact.
func (m *bayesModel) marshal() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model: %w", err)
	}
	return data, nil
}

// unmarshalBayes restores a model from its persisted artifact.
func unmarshalBayes(data []byte) (*bayesModel, error) {
	var m bayesModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model: %w", err)
	}
	return &m, nil
}

// evaluateBayes measures holdout accuracy and the confident-wrong rate
// (predictions at or above the default confidence floor that named the
// wrong destination), which stands in for a false-positive rate.
func evaluateBayes(m *bayesModel, holdout []model.TrainingExample) (accuracy, falsePositiveRate float64) {
	if len(holdout) == 0 {
		return 0, 1
	}

	correct := 0
	confidentWrong := 0
	for _, ex := range holdout {
		file := model.FileFact{Name: ex.FileName, Extension: ex.Extension, Size: ex.Size}
		candidates, err := m.Predict(context.Background(), file)
		if err != nil || len(candidates) == 0 {
			continue
		}
		top := candidates[0]
		if top.Destination == ex.Destination {
			correct++
		} else if top.Score >= DefaultMinimumConfidence {
			confidentWrong++
		}
	}

	n := float64(len(holdout))
	return float64(correct) / n, float64(confidentWrong) / n
}

// Size bucket boundaries for feature extraction.
const (
	smallFileBytes = 1 << 20  // 1 MB
	largeFileBytes = 100 << 20 // 100 MB
)

// featureTokens extracts the feature vector for a file: extension, semantic
// kind, size bucket, and name tokens.
func featureTokens(name, extension string, size int64) []string {
	tokens := make([]string, 0, 8)

	ext := strings.ToLower(extension)
	if ext != "" {
		tokens = append(tokens, "ext:"+ext)
	}
	for _, kind := range model.AllKinds() {
		if kind.Contains(ext) {
			tokens = append(tokens, "kind:"+string(kind))
			break
		}
	}

	switch {
	case size <= 0:
	case size < smallFileBytes:
		tokens = append(tokens, "size:small")
	case size < largeFileBytes:
		tokens = append(tokens, "size:medium")
	default:
		tokens = append(tokens, "size:large")
	}

	base := strings.TrimSuffix(strings.ToLower(name), "."+ext)
	for _, word := range strings.FieldsFunc(base, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if len(word) < 3 || isNumeric(word) {
			continue
		}
		tokens = append(tokens, "tok:"+word)
	}

	return tokens
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
