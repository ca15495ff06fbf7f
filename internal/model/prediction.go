package model

import "time"

// PredictionContext is per-call configuration for the prediction gate.
type PredictionContext struct {
	// AllowedDestinations restricts which destinations a prediction may
	// name. Empty means unrestricted.
	AllowedDestinations []string `json:"allowed_destinations,omitempty"`
	// MinimumConfidence is the floor for the top candidate's score. Zero
	// means "use the service default".
	MinimumConfidence float64 `json:"minimum_confidence,omitempty"`
	// MLEnabled toggles the statistical predictor for this call.
	MLEnabled bool `json:"ml_enabled"`
}

// DestinationAllowed reports whether the allow-list permits a destination.
func (c PredictionContext) DestinationAllowed(destination string) bool {
	if len(c.AllowedDestinations) == 0 {
		return true
	}
	for _, allowed := range c.AllowedDestinations {
		if allowed == destination {
			return true
		}
	}
	return false
}

// TrainedModelRecord is the history entry for one training run. Records are
// append-only: among all records for a model name, the active model is the
// most recently trained record with Accepted == true. A rejected record
// never becomes active regardless of recency.
type TrainedModelRecord struct {
	TrainedAt          time.Time `json:"trained_at"`
	ModelName          string    `json:"model_name"`
	Version            string    `json:"version"`
	ExampleCount       int       `json:"example_count"`
	DestinationCount   int       `json:"destination_count"`
	ValidationAccuracy float64   `json:"validation_accuracy"`
	FalsePositiveRate  float64   `json:"false_positive_rate"`
	ID                 int64     `json:"id"`
	Accepted           bool      `json:"accepted"`
}

// TrainingExample is one observed filing decision used to train the
// statistical predictor.
type TrainingExample struct {
	CreatedAt   time.Time `json:"created_at"`
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	Extension   string    `json:"extension"`
	Destination string    `json:"destination"`
	Size        int64     `json:"size"`
}
