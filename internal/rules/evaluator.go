// Package rules implements deterministic rule evaluation: single-condition
// predicates, boolean condition trees with exclusion overrides, and the
// first-match rule engine.
package rules

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/Veraticus/the-files-must-flow/internal/model"
)

// Evaluator evaluates single conditions against file metadata. It is pure
// and safe for concurrent use; the clock is injectable for tests.
type Evaluator struct {
	now func() time.Time
}

// NewEvaluator creates an evaluator using the wall clock.
func NewEvaluator() *Evaluator {
	return &Evaluator{now: time.Now}
}

// NewEvaluatorAt creates an evaluator with a fixed clock, used by tests for
// deterministic date conditions.
func NewEvaluatorAt(now func() time.Time) *Evaluator {
	return &Evaluator{now: now}
}

// Evaluate returns whether the file satisfies the condition. It is total
// for well-formed conditions: malformed values are rejected at construction
// time and never reach this switch.
func (e *Evaluator) Evaluate(cond model.Condition, file model.FileFact) bool {
	switch cond.Kind {
	case model.ConditionExtensionEquals:
		return strings.EqualFold(file.Extension, cond.Text)

	case model.ConditionNameContains:
		return strings.Contains(foldName(file.Name), foldName(cond.Text))

	case model.ConditionNameStartsWith:
		return strings.HasPrefix(foldName(file.Name), foldName(cond.Text))

	case model.ConditionNameEndsWith:
		return strings.HasSuffix(foldName(file.Name), foldName(cond.Text))

	case model.ConditionKindEquals:
		return cond.FileKind.Contains(file.Extension)

	case model.ConditionOlderThan:
		return e.evaluateOlderThan(cond, file)

	case model.ConditionLargerThan:
		return file.Size > cond.Bytes

	case model.ConditionNot:
		if cond.Negated == nil {
			return false
		}
		return !e.Evaluate(*cond.Negated, file)
	}

	return false
}

func (e *Evaluator) evaluateOlderThan(cond model.Condition, file model.FileFact) bool {
	if cond.ExtensionFilter != "" && !strings.EqualFold(file.Extension, cond.ExtensionFilter) {
		return false
	}

	var timestamp time.Time
	switch cond.DateField {
	case model.DateCreated:
		timestamp = file.CreatedAt
	case model.DateModified:
		timestamp = file.ModifiedAt
	case model.DateAccessed:
		timestamp = file.AccessedAt
	default:
		return false
	}

	if timestamp.IsZero() {
		return false
	}

	// Strict inequality: a file aged exactly days*86400 seconds does not match.
	threshold := time.Duration(cond.Days) * 24 * time.Hour
	return e.now().Sub(timestamp) > threshold
}

// foldName prepares a filename or pattern for comparison: Unicode canonical
// composition followed by lower-casing, so composed and decomposed accent
// forms and mixed case compare equal. Matching is literal throughout; no
// pattern syntax is ever interpreted.
func foldName(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
