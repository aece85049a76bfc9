package schemas

import (
	"fmt"
	"time"
)

// -- Training Schemas --

// TrainingLabels is the supervised target attached to one feature record.
type TrainingLabels struct {
	// TokenTargets maps token name to the scale value the example considers
	// correct. Must be non-nil; may be empty only when performance targets
	// are present.
	TokenTargets map[string]float64 `json:"tokenTargets"`

	// PerformanceTargets maps output aspect name (renderTime, bundleSize,
	// memory, layoutShift) to a normalized target score in [0,1].
	PerformanceTargets map[string]float64 `json:"performanceTargets"`

	SatisfactionScore  float64 `json:"satisfactionScore"`  // User satisfaction rating in [0,1].
	AccessibilityScore float64 `json:"accessibilityScore"` // Accessibility rating in [0,1].
}

// Provenance records where a training example came from and how much to
// trust it.
type Provenance struct {
	Timestamp    time.Time `json:"timestamp"`
	Source       string    `json:"source"`       // Collector identifier.
	QualityScore float64   `json:"qualityScore"` // Label quality estimate in [0,1].
	SampleSize   int       `json:"sampleSize"`   // Observations aggregated into this example.
}

// TrainingData is one labeled example: a feature record, its targets, and
// provenance. Produced by collectors or callers; consumed only by the
// trainer.
type TrainingData struct {
	ID         string         `json:"id"`
	Features   *ModelFeatures `json:"features"`
	Labels     TrainingLabels `json:"labels"`
	Provenance Provenance     `json:"provenance"`
}

// WellFormed checks the structural invariants training requires: a feature
// record must be present and the label maps must not be nil. Numerically
// poor labels are not an error.
func (d *TrainingData) WellFormed() error {
	if d == nil {
		return fmt.Errorf("training example is nil")
	}
	if d.Features == nil {
		return fmt.Errorf("training example %q: features are missing", d.ID)
	}
	if d.Labels.TokenTargets == nil {
		return fmt.Errorf("training example %q: tokenTargets is null", d.ID)
	}
	if d.Labels.PerformanceTargets == nil {
		return fmt.Errorf("training example %q: performanceTargets is null", d.ID)
	}
	return nil
}

// TrainingMetrics is the quality report returned by every train and evaluate
// call. All ratio metrics are bounded to [0,1]; MSE is non-negative. A
// single-example training set still yields a well-formed (if statistically
// weak) record.
type TrainingMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1Score"`
	MSE       float64 `json:"mse"`

	Samples  int           `json:"samples"`  // Examples seen by this call.
	Duration time.Duration `json:"duration"` // Wall time spent in the call.
}
