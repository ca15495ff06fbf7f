package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/the-files-must-flow/internal/common"
	"github.com/Veraticus/the-files-must-flow/internal/model"
)

// SaveModelRecord appends a training-run record and its serialized
// inference artifact to the model history. Records are never deleted or
// updated; which one is "active" is purely a property of the query below.
func (s *SQLiteStorage) SaveModelRecord(ctx context.Context, record *model.TrainedModelRecord, artifact []byte) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if err := validateString(record.ModelName, "modelName"); err != nil {
		return err
	}
	if err := validateString(record.Version, "version"); err != nil {
		return err
	}

	query := `
		INSERT INTO trained_models (
			model_name, version, example_count, destination_count,
			validation_accuracy, false_positive_rate, accepted, artifact, trained_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		record.ModelName, record.Version, record.ExampleCount, record.DestinationCount,
		record.ValidationAccuracy, record.FalsePositiveRate, record.Accepted,
		artifact, record.TrainedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save model record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get model record ID: %w", err)
	}
	record.ID = id

	return nil
}

// GetActiveModelRecord returns the most recently trained accepted record
// for the model name, plus its artifact. Rejected records are never
// candidates regardless of recency.
func (s *SQLiteStorage) GetActiveModelRecord(ctx context.Context, modelName string) (*model.TrainedModelRecord, []byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, nil, err
	}

	query := modelSelect + `, artifact
		FROM trained_models
		WHERE model_name = ? AND accepted = 1
		ORDER BY trained_at DESC, id DESC
		LIMIT 1
	`

	var record model.TrainedModelRecord
	var artifact []byte
	err := s.db.QueryRowContext(ctx, query, modelName).Scan(
		&record.ID, &record.ModelName, &record.Version,
		&record.ExampleCount, &record.DestinationCount,
		&record.ValidationAccuracy, &record.FalsePositiveRate,
		&record.Accepted, &record.TrainedAt, &artifact,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("active model %s: %w", modelName, common.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("failed to get active model: %w", err)
	}

	return &record, artifact, nil
}

// GetModelHistory returns all training-run records for a model name, most
// recent first.
func (s *SQLiteStorage) GetModelHistory(ctx context.Context, modelName string) ([]model.TrainedModelRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := modelSelect + `
		FROM trained_models
		WHERE model_name = ?
		ORDER BY trained_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to query model history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var history []model.TrainedModelRecord
	for rows.Next() {
		var record model.TrainedModelRecord
		if err := rows.Scan(
			&record.ID, &record.ModelName, &record.Version,
			&record.ExampleCount, &record.DestinationCount,
			&record.ValidationAccuracy, &record.FalsePositiveRate,
			&record.Accepted, &record.TrainedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan model record: %w", err)
		}
		history = append(history, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate model history: %w", err)
	}

	return history, nil
}

// SaveTrainingExample persists one observed filing decision.
func (s *SQLiteStorage) SaveTrainingExample(ctx context.Context, example *model.TrainingExample) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if example == nil {
		return fmt.Errorf("%w: example", ErrNilParameter)
	}
	if err := validateString(example.ID, "id"); err != nil {
		return err
	}
	if err := validateString(example.Destination, "destination"); err != nil {
		return err
	}

	query := `
		INSERT INTO training_examples (id, file_name, extension, size, destination, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		example.ID, example.FileName, example.Extension, example.Size,
		example.Destination, example.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save training example: %w", err)
	}

	return nil
}

// GetTrainingExamples returns all training examples in insertion order.
func (s *SQLiteStorage) GetTrainingExamples(ctx context.Context) ([]model.TrainingExample, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, file_name, extension, size, destination, created_at
		FROM training_examples
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query training examples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var examples []model.TrainingExample
	for rows.Next() {
		var example model.TrainingExample
		if err := rows.Scan(
			&example.ID, &example.FileName, &example.Extension,
			&example.Size, &example.Destination, &example.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan training example: %w", err)
		}
		examples = append(examples, example)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate training examples: %w", err)
	}

	return examples, nil
}

const modelSelect = `
	SELECT id, model_name, version, example_count, destination_count,
		validation_accuracy, false_positive_rate, accepted, trained_at
`
