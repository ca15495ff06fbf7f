package model

import (
	"fmt"
	"time"

	"github.com/Veraticus/the-files-must-flow/internal/common"
)

// TreeOperator combines the conditions of a ConditionTree.
type TreeOperator string

// Tree operator constants.
const (
	OperatorAnd    TreeOperator = "and"
	OperatorOr     TreeOperator = "or"
	OperatorSingle TreeOperator = "single"
)

// ConditionTree is an ordered list of conditions combined by one logical
// operator. SINGLE requires exactly one condition; AND and OR require at
// least one.
type ConditionTree struct {
	Operator   TreeOperator `json:"operator"`
	Conditions []Condition  `json:"conditions"`
}

// Validate checks the tree's arity invariant and every condition in it.
func (t ConditionTree) Validate() error {
	switch t.Operator {
	case OperatorSingle:
		if len(t.Conditions) != 1 {
			return common.NewValidationError("conditions", fmt.Sprintf("single operator requires exactly one condition, got %d", len(t.Conditions)))
		}
	case OperatorAnd, OperatorOr:
		if len(t.Conditions) == 0 {
			return common.NewValidationError("conditions", "and/or operator requires at least one condition")
		}
	default:
		return common.NewValidationError("operator", fmt.Sprintf("unknown tree operator %q", t.Operator))
	}

	for i, cond := range t.Conditions {
		if err := cond.Validate(); err != nil {
			return fmt.Errorf("condition at index %d: %w", i, err)
		}
	}
	return nil
}

// RuleAction is what a matching rule does with a file.
type RuleAction string

// Rule action constants.
const (
	ActionMove   RuleAction = "move"
	ActionDelete RuleAction = "delete"
)

// TrashDestination is the pseudo-destination assigned to delete actions so
// that downstream rendering treats them like any other destination.
const TrashDestination = "Trash"

// Rule matches files via a primary condition tree and routes them to a
// destination (or the trash). Exclusion conditions are implicitly OR'd: any
// exclusion match vetoes the rule even when the primary tree matches.
//
// Rules are evaluated in ascending SortOrder; the engine performs no
// specificity inference, so authors must order more-specific rules before
// more-general ones.
type Rule struct {
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Name        string        `json:"name"`
	Destination string        `json:"destination,omitempty"`
	Category    string        `json:"category,omitempty"`
	Action      RuleAction    `json:"action"`
	Conditions  ConditionTree `json:"conditions"`
	Exclusions  []Condition   `json:"exclusions,omitempty"`
	ID          int64         `json:"id"`
	SortOrder   int           `json:"sort_order"`
	Enabled     bool          `json:"enabled"`
}

// Validate ensures the rule is structurally sound before it is persisted.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return common.NewValidationError("name", "rule name is required")
	}

	switch r.Action {
	case ActionMove:
		if r.Destination == "" {
			return common.NewValidationError("destination", "move rules require a destination")
		}
	case ActionDelete:
	default:
		return common.NewValidationError("action", fmt.Sprintf("unknown rule action %q", r.Action))
	}

	if err := r.Conditions.Validate(); err != nil {
		return fmt.Errorf("primary conditions: %w", err)
	}

	for i, excl := range r.Exclusions {
		if err := excl.Validate(); err != nil {
			return fmt.Errorf("exclusion at index %d: %w", i, err)
		}
	}

	return nil
}

// ResolvedDestination returns where a matching file should go: the rule's
// destination for move actions, the trash pseudo-destination for deletes.
func (r *Rule) ResolvedDestination() string {
	if r.Action == ActionDelete {
		return TrashDestination
	}
	return r.Destination
}
