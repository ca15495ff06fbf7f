package rules

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/the-files-must-flow/internal/model"
)

// Engine evaluates files against an ordered rule set. It holds no mutable
// state and is safe for concurrent use across files.
type Engine struct {
	evaluator *Evaluator
}

// NewEngine creates a rule engine using the wall clock for date conditions.
func NewEngine() *Engine {
	return &Engine{evaluator: NewEvaluator()}
}

// NewEngineWithEvaluator creates a rule engine with a custom evaluator,
// used by tests to pin the clock.
func NewEngineWithEvaluator(evaluator *Evaluator) *Engine {
	return &Engine{evaluator: evaluator}
}

// EvaluateFile evaluates a file against the rule set and returns the
// first-matching enabled rule's action as a suggestion. Rules are evaluated
// in ascending sort order (lower value = higher priority); ordering
// more-specific rules first is the author's responsibility. An unmatched
// file yields the normal pending result, never an error.
func (e *Engine) EvaluateFile(file model.FileFact, ruleSet []model.Rule) model.SuggestionResult {
	for _, rule := range orderedEnabled(ruleSet) {
		matched, reason := e.evaluator.EvaluateTree(rule.Conditions, rule.Exclusions, file)
		if !matched {
			continue
		}

		ruleID := rule.ID
		slog.Debug("rule matched",
			"file", file.Name,
			"rule", rule.Name,
			"destination", rule.ResolvedDestination())

		return model.SuggestionResult{
			FilePath:    file.Path,
			Status:      model.StatusReady,
			Destination: rule.ResolvedDestination(),
			Confidence:  model.RuleConfidence,
			MatchReason: reason,
			Provenance:  model.ProvenanceRule,
			RuleID:      &ruleID,
		}
	}

	return model.Pending(file.Path)
}

// batchShards bounds how many goroutines a batch evaluation fans out to.
const batchShards = 8

// EvaluateFiles evaluates many files independently and returns results in
// input order. Per-file evaluation is pure, so the batch is sharded across
// goroutines and output order is restored by index.
func (e *Engine) EvaluateFiles(ctx context.Context, files []model.FileFact, ruleSet []model.Rule) ([]model.SuggestionResult, error) {
	results := make([]model.SuggestionResult, len(files))
	ordered := orderedEnabled(ruleSet)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchShards)

	for i, file := range files {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			for _, rule := range ordered {
				matched, reason := e.evaluator.EvaluateTree(rule.Conditions, rule.Exclusions, file)
				if !matched {
					continue
				}
				ruleID := rule.ID
				results[i] = model.SuggestionResult{
					FilePath:    file.Path,
					Status:      model.StatusReady,
					Destination: rule.ResolvedDestination(),
					Confidence:  model.RuleConfidence,
					MatchReason: reason,
					Provenance:  model.ProvenanceRule,
					RuleID:      &ruleID,
				}
				return nil
			}

			results[i] = model.Pending(file.Path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// orderedEnabled filters to enabled rules sorted by ascending sort order,
// with rule ID as a deterministic tie-break.
func orderedEnabled(ruleSet []model.Rule) []model.Rule {
	enabled := make([]model.Rule, 0, len(ruleSet))
	for _, rule := range ruleSet {
		if rule.Enabled {
			enabled = append(enabled, rule)
		}
	}

	sort.SliceStable(enabled, func(i, j int) bool {
		if enabled[i].SortOrder != enabled[j].SortOrder {
			return enabled[i].SortOrder < enabled[j].SortOrder
		}
		return enabled[i].ID < enabled[j].ID
	})

	return enabled
}
