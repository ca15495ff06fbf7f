package predict

import (
	"context"
	"log/slog"

	"github.com/Veraticus/the-files-must-flow/internal/common"
	"github.com/Veraticus/the-files-must-flow/internal/model"
)

// Confidence gating constants.
const (
	// DefaultMinimumConfidence applies when the prediction context does not
	// set its own floor.
	DefaultMinimumConfidence = 0.55
	// MinimumMargin is the required gap between the top two candidate
	// scores; anything smaller is an ambiguous prediction.
	MinimumMargin = 0.15
)

// Prediction is an accepted statistical prediction.
type Prediction struct {
	Destination string
	Confidence  float64
}

// Gate wraps the trained predictor with the acceptance checks that keep
// low-quality predictions away from users. Every suppression is a
// deliberate "no prediction" outcome, logged with the gate that fired,
// never an error.
type Gate struct {
	models         *Manager
	serviceEnabled bool
}

// NewGate creates a prediction gate. serviceEnabled is the service-level ML
// toggle; per-call enablement comes from the prediction context.
func NewGate(models *Manager, serviceEnabled bool) *Gate {
	return &Gate{models: models, serviceEnabled: serviceEnabled}
}

// Predict runs the gating sequence and returns an accepted prediction, or
// nil when any gate suppresses it. Checks short-circuit cheapest-first;
// inference only runs once the toggles and model presence checks pass.
func (g *Gate) Predict(ctx context.Context, file model.FileFact, predCtx model.PredictionContext, negatives []model.LearnedPattern) *Prediction {
	if !predCtx.MLEnabled || !g.serviceEnabled {
		slog.Debug("prediction suppressed", "gate", "ml_disabled", "file", file.Name)
		return nil
	}

	active := g.models.snapshot()
	if active == nil {
		slog.Debug("prediction suppressed", "gate", "no_active_model", "file", file.Name)
		return nil
	}

	// Cold-start thresholds were enforced at training time: a model below
	// threshold is never accepted, so an active model is always warm.

	candidates, err := active.predictor.Predict(ctx, file)
	if err != nil || len(candidates) == 0 {
		if err != nil {
			common.LogError(err, "inference failed", common.Fields{"file": file.Name})
		}
		return nil
	}
	top := candidates[0]

	minimumConfidence := predCtx.MinimumConfidence
	if minimumConfidence <= 0 {
		minimumConfidence = DefaultMinimumConfidence
	}
	if top.Score < minimumConfidence {
		slog.Debug("prediction suppressed",
			"gate", "below_confidence",
			"file", file.Name,
			"score", top.Score,
			"minimum", minimumConfidence)
		return nil
	}

	if len(candidates) > 1 {
		margin := top.Score - candidates[1].Score
		if margin < MinimumMargin {
			slog.Debug("prediction suppressed",
				"gate", "ambiguous_margin",
				"file", file.Name,
				"margin", margin)
			return nil
		}
	}

	if !predCtx.DestinationAllowed(top.Destination) {
		slog.Debug("prediction suppressed",
			"gate", "destination_not_allowed",
			"file", file.Name,
			"destination", top.Destination)
		return nil
	}

	for i := range negatives {
		n := &negatives[i]
		if n.IsNegative && n.MatchesExtension(file.Extension) && n.Destination == top.Destination {
			slog.Debug("prediction suppressed",
				"gate", "negative_pattern",
				"file", file.Name,
				"destination", top.Destination)
			return nil
		}
	}

	return &Prediction{Destination: top.Destination, Confidence: top.Score}
}
