package rules

import (
	"strings"

	"github.com/Veraticus/the-files-must-flow/internal/model"
)

// EvaluateTree evaluates a primary condition tree plus its exclusion list
// against a file. Exclusions are implicitly OR'd and always win: if the
// primary tree matches but any exclusion is true, the result is a
// non-match. On a match, the returned reason is a deterministic
// human-readable join of the conditions that matched.
func (e *Evaluator) EvaluateTree(tree model.ConditionTree, exclusions []model.Condition, file model.FileFact) (bool, string) {
	matched, reason := e.evaluatePrimary(tree, file)
	if !matched {
		return false, ""
	}

	for _, excl := range exclusions {
		if e.Evaluate(excl, file) {
			return false, ""
		}
	}

	return true, reason
}

func (e *Evaluator) evaluatePrimary(tree model.ConditionTree, file model.FileFact) (bool, string) {
	switch tree.Operator {
	case model.OperatorSingle:
		if len(tree.Conditions) != 1 {
			return false, ""
		}
		cond := tree.Conditions[0]
		if !e.Evaluate(cond, file) {
			return false, ""
		}
		return true, cond.Describe()

	case model.OperatorAnd:
		if len(tree.Conditions) == 0 {
			return false, ""
		}
		parts := make([]string, 0, len(tree.Conditions))
		for _, cond := range tree.Conditions {
			if !e.Evaluate(cond, file) {
				return false, ""
			}
			parts = append(parts, cond.Describe())
		}
		return true, strings.Join(parts, " AND ")

	case model.OperatorOr:
		for _, cond := range tree.Conditions {
			if e.Evaluate(cond, file) {
				return true, cond.Describe()
			}
		}
		return false, ""
	}

	return false, ""
}
