package model

// SuggestionStatus is the lifecycle state of a suggestion.
type SuggestionStatus string

// Suggestion status constants.
const (
	// StatusReady means a destination was produced and awaits user review.
	StatusReady SuggestionStatus = "ready"
	// StatusPending means no source produced a destination. This is the
	// normal undecided outcome, not a failure.
	StatusPending SuggestionStatus = "pending"
	// StatusSkipped means the user dismissed the file; terminal statuses
	// are never overwritten by a later pipeline run.
	StatusSkipped SuggestionStatus = "skipped"
)

// Provenance records which suggestion source produced a result.
type Provenance string

// Provenance constants.
const (
	ProvenanceRule       Provenance = "rule"
	ProvenancePattern    Provenance = "pattern"
	ProvenancePrediction Provenance = "ml_prediction"
	ProvenanceNone       Provenance = "none"
)

// RuleConfidence is the fixed confidence assigned to rule matches. Rules
// are deterministic ground truth, so their confidence never varies.
const RuleConfidence = 1.0

// SuggestionResult is the output of the suggestion pipeline for one file.
// Exactly one of {Destination non-empty, Status == pending} holds after a
// pipeline run.
type SuggestionResult struct {
	FilePath    string           `json:"file_path"`
	Destination string           `json:"destination,omitempty"`
	MatchReason string           `json:"match_reason,omitempty"`
	Status      SuggestionStatus `json:"status"`
	Provenance  Provenance       `json:"provenance"`
	RuleID      *int64           `json:"rule_id,omitempty"`
	Confidence  float64          `json:"confidence,omitempty"`
}

// Pending returns the undecided result for a file: no destination, no
// reason, provenance none.
func Pending(filePath string) SuggestionResult {
	return SuggestionResult{
		FilePath:   filePath,
		Status:     StatusPending,
		Provenance: ProvenanceNone,
	}
}

// Terminal reports whether the status should not be overwritten.
func (r SuggestionResult) Terminal() bool {
	return r.Status == StatusReady || r.Status == StatusSkipped
}
