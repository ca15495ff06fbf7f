package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/the-files-must-flow/internal/common"
	"github.com/Veraticus/the-files-must-flow/internal/model"
)

// CreateRule persists a new rule. The rule is validated first; validation
// failures block persistence.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	conditions, exclusions, err := encodeRuleConditions(rule)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO rules (name, action, destination, category, conditions, exclusions, sort_order, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		rule.Name, string(rule.Action), rule.Destination, rule.Category,
		conditions, exclusions, rule.SortOrder, rule.Enabled,
	)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule ID: %w", err)
	}

	rule.ID = id
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = time.Now()

	return nil
}

// GetRule retrieves a rule by ID.
func (s *SQLiteStorage) GetRule(ctx context.Context, id int64) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, ruleSelect+" WHERE id = ?", id)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
		}
		return nil, err
	}
	return rule, nil
}

// GetRules retrieves all rules ordered by sort order.
func (s *SQLiteStorage) GetRules(ctx context.Context) ([]model.Rule, error) {
	return s.queryRules(ctx, ruleSelect+" ORDER BY sort_order ASC, id ASC")
}

// GetEnabledRules retrieves enabled rules ordered by ascending sort order,
// the order the rule engine evaluates them in.
func (s *SQLiteStorage) GetEnabledRules(ctx context.Context) ([]model.Rule, error) {
	return s.queryRules(ctx, ruleSelect+" WHERE enabled = 1 ORDER BY sort_order ASC, id ASC")
}

// UpdateRule replaces a rule's definition.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	conditions, exclusions, err := encodeRuleConditions(rule)
	if err != nil {
		return err
	}

	query := `
		UPDATE rules
		SET name = ?, action = ?, destination = ?, category = ?,
			conditions = ?, exclusions = ?, sort_order = ?, enabled = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		rule.Name, string(rule.Action), rule.Destination, rule.Category,
		conditions, exclusions, rule.SortOrder, rule.Enabled, rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d: %w", rule.ID, common.ErrNotFound)
	}

	return nil
}

// DeleteRule removes a rule.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}

	return nil
}

const ruleSelect = `
	SELECT id, name, action, destination, category, conditions, exclusions,
		sort_order, enabled, created_at, updated_at
	FROM rules
`

func (s *SQLiteStorage) queryRules(ctx context.Context, query string, args ...any) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.Rule
	for rows.Next() {
		rule, scanErr := scanRule(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		result = append(result, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}

	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*model.Rule, error) {
	var rule model.Rule
	var action string
	var destination, category, conditionsJSON, exclusionsJSON sql.NullString

	err := row.Scan(
		&rule.ID, &rule.Name, &action, &destination, &category,
		&conditionsJSON, &exclusionsJSON, &rule.SortOrder, &rule.Enabled,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}

	rule.Action = model.RuleAction(action)
	rule.Destination = destination.String
	rule.Category = category.String

	if conditionsJSON.Valid && conditionsJSON.String != "" {
		if err := json.Unmarshal([]byte(conditionsJSON.String), &rule.Conditions); err != nil {
			return nil, fmt.Errorf("failed to decode rule conditions: %w", err)
		}
	}
	if exclusionsJSON.Valid && exclusionsJSON.String != "" {
		if err := json.Unmarshal([]byte(exclusionsJSON.String), &rule.Exclusions); err != nil {
			return nil, fmt.Errorf("failed to decode rule exclusions: %w", err)
		}
	}

	return &rule, nil
}

func encodeRuleConditions(rule *model.Rule) (conditions, exclusions string, err error) {
	conditionsData, err := json.Marshal(rule.Conditions)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode rule conditions: %w", err)
	}

	exclusionsData := []byte("")
	if len(rule.Exclusions) > 0 {
		exclusionsData, err = json.Marshal(rule.Exclusions)
		if err != nil {
			return "", "", fmt.Errorf("failed to encode rule exclusions: %w", err)
		}
	}

	return string(conditionsData), string(exclusionsData), nil
}
