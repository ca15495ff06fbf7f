// Package pattern provides frequency-based destination suggestions learned
// from user filing behavior, including negative patterns that suppress
// previously rejected pairings.
package pattern

import (
	"log/slog"

	"github.com/Veraticus/the-files-must-flow/internal/model"
	"github.com/Veraticus/the-files-must-flow/internal/rules"
)

// Match is a pattern-sourced destination candidate. Confidence is the
// pattern's own learned score, so weak patterns remain visibly weak.
type Match struct {
	Destination string
	Confidence  float64
	PatternID   int64
}

// Matcher evaluates files against learned patterns. Stateless and safe for
// concurrent use.
type Matcher struct {
	evaluator *rules.Evaluator
}

// NewMatcher creates a pattern matcher.
func NewMatcher() *Matcher {
	return &Matcher{evaluator: rules.NewEvaluator()}
}

// NewMatcherWithEvaluator creates a pattern matcher with a custom condition
// evaluator, used by tests to pin the clock.
func NewMatcherWithEvaluator(evaluator *rules.Evaluator) *Matcher {
	return &Matcher{evaluator: evaluator}
}

// Match returns the best learned-pattern destination for the file, or nil
// when no pattern applies. Candidates are non-negative patterns for the
// file's extension whose attached conditions all hold; the winner has the
// highest occurrence count, with confidence and then insertion order as
// tie-breaks. If a negative pattern for the same extension names the
// winner's destination, the result is suppressed entirely rather than
// falling back to a weaker pattern.
func (m *Matcher) Match(file model.FileFact, patterns, negatives []model.LearnedPattern) *Match {
	var best *model.LearnedPattern

	for i := range patterns {
		p := &patterns[i]
		if p.IsNegative || !p.MatchesExtension(file.Extension) {
			continue
		}
		if !m.conditionsHold(p.Conditions, file) {
			continue
		}
		if best == nil || betterCandidate(p, best) {
			best = p
		}
	}

	if best == nil {
		return nil
	}

	// Negative patterns are scoped to the candidate's extension; they never
	// affect files of a different extension.
	for i := range negatives {
		n := &negatives[i]
		if !n.IsNegative || !n.MatchesExtension(file.Extension) {
			continue
		}
		if n.Destination == best.Destination {
			slog.Debug("pattern suppressed by negative pattern",
				"file", file.Name,
				"extension", file.Extension,
				"destination", best.Destination)
			return nil
		}
	}

	return &Match{
		Destination: best.Destination,
		Confidence:  best.Confidence,
		PatternID:   best.ID,
	}
}

func (m *Matcher) conditionsHold(conditions []model.Condition, file model.FileFact) bool {
	for _, cond := range conditions {
		if !m.evaluator.Evaluate(cond, file) {
			return false
		}
	}
	return true
}

// betterCandidate reports whether candidate should replace current.
// Insertion order is preserved by requiring a strict improvement.
func betterCandidate(candidate, current *model.LearnedPattern) bool {
	if candidate.OccurrenceCount != current.OccurrenceCount {
		return candidate.OccurrenceCount > current.OccurrenceCount
	}
	return candidate.Confidence > current.Confidence
}
