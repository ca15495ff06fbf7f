// Package suggest orchestrates the destination suggestion pipeline: rules,
// then learned patterns, then the gated statistical predictor, in strict
// precedence order with first success winning.
package suggest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/the-files-must-flow/internal/model"
	"github.com/Veraticus/the-files-must-flow/internal/pattern"
	"github.com/Veraticus/the-files-must-flow/internal/predict"
	"github.com/Veraticus/the-files-must-flow/internal/rules"
	"github.com/Veraticus/the-files-must-flow/internal/service"
)

// Pipeline computes at most one destination suggestion per file. The
// precedence is a hard invariant: a pattern or prediction never overrides
// or coexists with a rule suggestion for the same file in the same run.
type Pipeline struct {
	engine  *rules.Engine
	matcher *pattern.Matcher
	gate    *predict.Gate
}

var _ service.Suggester = (*Pipeline)(nil)

// NewPipeline creates a suggestion pipeline. gate may be nil when the
// statistical predictor is unavailable; the pipeline then stops after the
// pattern stage.
func NewPipeline(engine *rules.Engine, matcher *pattern.Matcher, gate *predict.Gate) *Pipeline {
	return &Pipeline{engine: engine, matcher: matcher, gate: gate}
}

// Suggest evaluates one file against all three suggestion sources. The
// only failure mode visible to callers is "no suggestion", expressed as
// status pending.
func (p *Pipeline) Suggest(ctx context.Context, file model.FileFact, ruleSet []model.Rule, patterns, negatives []model.LearnedPattern, predCtx model.PredictionContext) model.SuggestionResult {
	// 1. Rules: deterministic ground truth; patterns and predictions are
	// never consulted once a rule matches.
	result := p.engine.EvaluateFile(file, ruleSet)
	if result.Status == model.StatusReady {
		return result
	}

	// 2. Learned patterns, with the pattern's own confidence score.
	if match := p.matcher.Match(file, patterns, negatives); match != nil {
		return model.SuggestionResult{
			FilePath:    file.Path,
			Status:      model.StatusReady,
			Destination: match.Destination,
			Confidence:  match.Confidence,
			MatchReason: fmt.Sprintf("Files with .%s usually go to %s", file.Extension, match.Destination),
			Provenance:  model.ProvenancePattern,
		}
	}

	// 3. Gated statistical prediction.
	if p.gate != nil {
		if pred := p.gate.Predict(ctx, file, predCtx, negatives); pred != nil {
			return model.SuggestionResult{
				FilePath:    file.Path,
				Status:      model.StatusReady,
				Destination: pred.Destination,
				Confidence:  pred.Confidence,
				MatchReason: fmt.Sprintf("Predicted from your filing history (%.0f%% confident)", pred.Confidence*100),
				Provenance:  model.ProvenancePrediction,
			}
		}
	}

	return model.Pending(file.Path)
}

// suggestShards bounds the fan-out of a bulk suggestion run.
const suggestShards = 8

// SuggestAll runs the pipeline over many files, sharded across goroutines.
// Results are returned in input order; per-file results are independent.
func (p *Pipeline) SuggestAll(ctx context.Context, files []model.FileFact, ruleSet []model.Rule, patterns, negatives []model.LearnedPattern, predCtx model.PredictionContext) ([]model.SuggestionResult, error) {
	results := make([]model.SuggestionResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(suggestShards)

	for i, file := range files {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = p.Suggest(ctx, file, ruleSet, patterns, negatives, predCtx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
