package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/the-files-must-flow/internal/common"
	"github.com/Veraticus/the-files-must-flow/internal/model"
)

// CreatePattern persists a new learned pattern.
func (s *SQLiteStorage) CreatePattern(ctx context.Context, pattern *model.LearnedPattern) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if pattern == nil {
		return fmt.Errorf("%w: pattern", ErrNilParameter)
	}
	if err := pattern.Validate(); err != nil {
		return err
	}

	conditionsJSON, err := encodePatternConditions(pattern)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO learned_patterns (extension, destination, occurrence_count, confidence, conditions, is_negative)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		strings.ToLower(pattern.Extension), pattern.Destination,
		pattern.OccurrenceCount, pattern.Confidence, conditionsJSON, pattern.IsNegative,
	)
	if err != nil {
		return fmt.Errorf("failed to create pattern: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get pattern ID: %w", err)
	}

	pattern.ID = id
	pattern.CreatedAt = time.Now()
	pattern.UpdatedAt = time.Now()

	return nil
}

// GetPatterns retrieves all learned patterns, positive and negative, in
// insertion order.
func (s *SQLiteStorage) GetPatterns(ctx context.Context) ([]model.LearnedPattern, error) {
	return s.queryPatterns(ctx, patternSelect+" ORDER BY id ASC")
}

// GetPatternsForExtension retrieves patterns scoped to one extension.
func (s *SQLiteStorage) GetPatternsForExtension(ctx context.Context, extension string) ([]model.LearnedPattern, error) {
	return s.queryPatterns(ctx, patternSelect+" WHERE extension = ? ORDER BY id ASC", strings.ToLower(extension))
}

// FindPattern looks up the pattern for one (extension, destination,
// negative) triple, returning common.ErrNotFound when absent.
func (s *SQLiteStorage) FindPattern(ctx context.Context, extension, destination string, negative bool) (*model.LearnedPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		patternSelect+" WHERE extension = ? AND destination = ? AND is_negative = ?",
		strings.ToLower(extension), destination, negative)

	pattern, err := scanPattern(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pattern %s -> %s: %w", extension, destination, common.ErrNotFound)
		}
		return nil, err
	}
	return pattern, nil
}

// UpdatePattern updates a pattern's counters and conditions.
func (s *SQLiteStorage) UpdatePattern(ctx context.Context, pattern *model.LearnedPattern) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if pattern == nil {
		return fmt.Errorf("%w: pattern", ErrNilParameter)
	}
	if err := pattern.Validate(); err != nil {
		return err
	}

	conditionsJSON, err := encodePatternConditions(pattern)
	if err != nil {
		return err
	}

	query := `
		UPDATE learned_patterns
		SET occurrence_count = ?, confidence = ?, conditions = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		pattern.OccurrenceCount, pattern.Confidence, conditionsJSON, pattern.ID)
	if err != nil {
		return fmt.Errorf("failed to update pattern: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("pattern %d: %w", pattern.ID, common.ErrNotFound)
	}

	return nil
}

// DeletePattern removes a learned pattern.
func (s *SQLiteStorage) DeletePattern(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM learned_patterns WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete pattern: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("pattern %d: %w", id, common.ErrNotFound)
	}

	return nil
}

const patternSelect = `
	SELECT id, extension, destination, occurrence_count, confidence, conditions, is_negative,
		created_at, updated_at
	FROM learned_patterns
`

func (s *SQLiteStorage) queryPatterns(ctx context.Context, query string, args ...any) ([]model.LearnedPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.LearnedPattern
	for rows.Next() {
		pattern, scanErr := scanPattern(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		result = append(result, *pattern)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patterns: %w", err)
	}

	return result, nil
}

func scanPattern(row rowScanner) (*model.LearnedPattern, error) {
	var pattern model.LearnedPattern
	var conditionsJSON sql.NullString

	err := row.Scan(
		&pattern.ID, &pattern.Extension, &pattern.Destination,
		&pattern.OccurrenceCount, &pattern.Confidence, &conditionsJSON,
		&pattern.IsNegative, &pattern.CreatedAt, &pattern.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan pattern: %w", err)
	}

	if conditionsJSON.Valid && conditionsJSON.String != "" {
		if err := json.Unmarshal([]byte(conditionsJSON.String), &pattern.Conditions); err != nil {
			return nil, fmt.Errorf("failed to decode pattern conditions: %w", err)
		}
	}

	return &pattern, nil
}

func encodePatternConditions(pattern *model.LearnedPattern) (string, error) {
	if len(pattern.Conditions) == 0 {
		return "", nil
	}
	data, err := json.Marshal(pattern.Conditions)
	if err != nil {
		return "", fmt.Errorf("failed to encode pattern conditions: %w", err)
	}
	return string(data), nil
}
