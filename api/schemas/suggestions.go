package schemas

import "time"

// -- Optimization Suggestion Schemas --

// Severity grades how strongly a suggestion or warning should be acted on.
type Severity string

// Constants defining the severity levels for impacts and warnings.
const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
	SeverityInfo   Severity = "info"
)

// ImpactAspect names a predicted performance dimension.
type ImpactAspect string

// Constants for the performance aspects the model predicts.
const (
	AspectRenderTime  ImpactAspect = "renderTime"
	AspectBundleSize  ImpactAspect = "bundleSize"
	AspectMemory      ImpactAspect = "memory"
	AspectLayoutShift ImpactAspect = "layoutShift"
)

// ImpactAspects lists every predicted aspect in the canonical output order.
var ImpactAspects = [...]ImpactAspect{AspectRenderTime, AspectBundleSize, AspectMemory, AspectLayoutShift}

// SuggestedToken is one constraint-satisfying token parameter set. The
// invariant Min <= Scale <= Max with (Scale-Min) an integral multiple of
// Step holds for every value the optimizer emits, regardless of raw model
// output.
type SuggestedToken struct {
	Scale float64 `json:"scale"` // Suggested scale value, clamped and step-quantized.
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Step  float64 `json:"step"`

	Current float64 `json:"current,omitempty"` // The configured scale this suggestion replaces.
	Unit    string  `json:"unit,omitempty"`
}

// CurveRecommendation is one ranked scaling-curve adjustment.
type CurveRecommendation struct {
	Token string            `json:"token"`
	Mode  InterpolationMode `json:"mode"`
	Scale float64           `json:"scale"`

	// BreakpointAdjustments maps breakpoint name to a multiplicative
	// adjustment of the interpolated value at that breakpoint.
	BreakpointAdjustments map[string]float64 `json:"breakpointAdjustments"`

	Confidence float64 `json:"confidence"` // Bounded [0,1].
	Rationale  string  `json:"rationale"`  // Human-readable justification.
}

// PerformanceImpact compares a current baseline against the model's
// prediction for one aspect.
type PerformanceImpact struct {
	Aspect         ImpactAspect `json:"aspect"`
	Current        float64      `json:"current"`
	Predicted      float64      `json:"predicted"`
	ImprovementPct float64      `json:"improvementPct"` // Positive means predicted improvement.
	Severity       Severity     `json:"severity"`
}

// WarningType names an accessibility rule a suggestion would violate.
type WarningType string

// Constants for accessibility warning categories.
const (
	WarningFontSize  WarningType = "font-size"
	WarningTapTarget WarningType = "tap-target"
)

// AccessibilityWarning flags a suggested value that falls below a declared
// accessibility minimum.
type AccessibilityWarning struct {
	Type        WarningType `json:"type"`
	Token       string      `json:"token"`       // Token whose suggested value triggered the warning.
	Current     float64     `json:"current"`     // The offending suggested value.
	Recommended float64     `json:"recommended"` // The declared minimum to meet.
	Standard    string      `json:"standard"`    // Referenced standard (e.g., "WCAG 2.1 AA").
	Severity    Severity    `json:"severity"`
}

// ImprovementEstimate summarizes expected gains per axis as percentages.
type ImprovementEstimate struct {
	Performance         float64 `json:"performance"`
	UserExperience      float64 `json:"userExperience"`
	DeveloperExperience float64 `json:"developerExperience"`
}

// OptimizationSuggestions is the immutable result of one optimization call.
type OptimizationSuggestions struct {
	ID          string    `json:"id"`          // Unique suggestion-set identifier.
	GeneratedAt time.Time `json:"generatedAt"`

	// SuggestedTokens holds one constraint-satisfying parameter set per
	// configured token, keyed by token name.
	SuggestedTokens map[string]SuggestedToken `json:"suggestedTokens"`

	Recommendations       []CurveRecommendation  `json:"recommendations"`       // Ranked by confidence, descending.
	PerformanceImpacts    []PerformanceImpact    `json:"performanceImpacts"`
	AccessibilityWarnings []AccessibilityWarning `json:"accessibilityWarnings"`

	ConfidenceScore       float64             `json:"confidenceScore"` // Bounded [0,1].
	EstimatedImprovements ImprovementEstimate `json:"estimatedImprovements"`
}
