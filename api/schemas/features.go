package schemas

// -- Model Feature Schemas --

// FeatureVectorSize is the fixed length of the numeric vector every feature
// record flattens into. Slots beyond the populated sections are zero-padded.
const FeatureVectorSize = 128

// BreakpointRatioSlots is the fixed number of breakpoint width ratios encoded
// in the config section. Configurations with fewer breakpoints pad trailing
// slots with 1; extra breakpoints are truncated.
const BreakpointRatioSlots = 8

// ConfigFeatures are derived purely from the responsive configuration.
type ConfigFeatures struct {
	BreakpointCount    int                           `json:"breakpointCount"`
	BreakpointRatios   [BreakpointRatioSlots]float64 `json:"breakpointRatios"`   // width / base.width per breakpoint.
	TokenComplexity    float64                       `json:"tokenComplexity"`    // tokenCount * 4.
	OriginDistribution [len(OriginAxes)]float64      `json:"originDistribution"` // One-hot over OriginAxes order.
}

// ValueSummary is the five-number statistical summary used for every
// aggregated observation set.
type ValueSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stdDev"`
}

// UsageFeatures are derived from the usage records themselves.
type UsageFeatures struct {
	// BaseValues summarizes every property's base value across all records.
	// Zero-valued when no records carry properties.
	BaseValues ValueSummary `json:"baseValues"`

	// TypeShares maps component type to its share of the total component
	// count (count / total).
	TypeShares map[ComponentType]float64 `json:"typeShares"`

	// PropertyCounts holds raw occurrence counts per CSS property across all
	// usage records. Deliberately not normalized.
	PropertyCounts map[string]float64 `json:"propertyCounts"`
}

// PerformanceFeatures hold the five-number summaries for each runtime cost
// metric, computed over present (non-nil) observations only.
type PerformanceFeatures struct {
	RenderTime  ValueSummary `json:"renderTime"`
	BundleSize  ValueSummary `json:"bundleSize"`
	Memory      ValueSummary `json:"memory"`
	LayoutShift ValueSummary `json:"layoutShift"`
}

// Archetype labels the inferred application category.
type Archetype string

// Constants for the inferred application archetypes.
const (
	ArchetypeFormApp         Archetype = "form-app"         // Dominated by inputs and forms.
	ArchetypeContentApp      Archetype = "content-app"      // Dominated by cards, lists, text.
	ArchetypeDashboard       Archetype = "dashboard"        // Dominated by charts and tables.
	ArchetypeNavigationHeavy Archetype = "navigation-heavy" // Dominated by navigation chrome.
	ArchetypeMediaApp        Archetype = "media-app"        // Dominated by images and media.
	ArchetypeGenericMixed    Archetype = "generic-mixed"    // No single dominant component type.
)

// Archetypes lists every archetype in the canonical order used by one-hot
// feature encodings.
var Archetypes = [...]Archetype{
	ArchetypeFormApp,
	ArchetypeContentApp,
	ArchetypeDashboard,
	ArchetypeNavigationHeavy,
	ArchetypeMediaApp,
	ArchetypeGenericMixed,
}

// DeviceMix is the inferred distribution of traffic across device classes.
// Shares sum to 1 when any usage records exist.
type DeviceMix struct {
	Desktop float64 `json:"desktop"`
	Tablet  float64 `json:"tablet"`
	Mobile  float64 `json:"mobile"`
	Other   float64 `json:"other"`
}

// ContextFeatures are inferred signals about the application the components
// belong to.
type ContextFeatures struct {
	Archetype     Archetype `json:"archetype"`
	Devices       DeviceMix `json:"devices"`
	Engagement    float64   `json:"engagement"`    // Mean interaction rate across records.
	Accessibility float64   `json:"accessibility"` // Mean accessibility score across records.
	Performance   float64   `json:"performance"`   // Normalized aggregate performance score.
	Industry      string    `json:"industry"`      // Defaults to "general" absent explicit signal.
}

// ModelFeatures is the structured feature record produced by one extraction
// call. It is immutable once built; every extraction produces a fresh value.
type ModelFeatures struct {
	Config      ConfigFeatures      `json:"config"`
	Usage       UsageFeatures       `json:"usage"`
	Performance PerformanceFeatures `json:"performance"`
	Context     ContextFeatures     `json:"context"`
}

// -- Prediction Result Schemas --

// ConfidenceEstimate is the output of repeated stochastic inference on a
// single input: sample statistics of the outputs plus a bounded confidence.
type ConfidenceEstimate struct {
	Mean       float64 `json:"mean"`       // Sample mean across passes.
	Variance   float64 `json:"variance"`   // Sample variance across passes.
	Confidence float64 `json:"confidence"` // Monotone decreasing in variance, in [0,1].
}

// FeatureImportance scores one named input feature's contribution to a
// prediction.
type FeatureImportance struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// PredictionExplanation is the result of occlusion sensitivity analysis.
type PredictionExplanation struct {
	Importance  map[string]float64  `json:"importance"`  // Score per feature name.
	TopFeatures []FeatureImportance `json:"topFeatures"` // Ranked highest-impact subset.
}

// ValueRange is an inclusive [Min, Max] interval.
type ValueRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PredictionValidation reports range containment for a named prediction.
type PredictionValidation struct {
	IsValid    bool     `json:"isValid"`
	Violations []string `json:"violations"` // Names of out-of-range dimensions; empty when valid.
	Confidence float64  `json:"confidence"` // Share of dimensions inside their declared range.
}

// TokenConstraint bounds the post-processed value for one token.
type TokenConstraint struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// ScalingConstraints collects the constraints post-processing enforces.
type ScalingConstraints struct {
	Tokens      map[string]TokenConstraint `json:"tokens"`      // Keyed by token name.
	Performance map[string]ValueRange      `json:"performance"` // Keyed by output aspect name.
}

// ProcessedPrediction is raw model output forced back into domain-valid
// ranges: clamped, step-quantized token values plus clamped performance
// scores.
type ProcessedPrediction struct {
	Tokens      map[string]float64 `json:"tokens"`
	Performance map[string]float64 `json:"performance"`
}

// ModelInfo is a read-only snapshot of the model's shape. It is available in
// every lifecycle state; IsInitialized is false before initialization.
type ModelInfo struct {
	Architecture  string `json:"architecture"`  // Human-readable layer summary (e.g., "128-64-32-16").
	Parameters    int    `json:"parameters"`    // Total trainable parameter count.
	Layers        []int  `json:"layers"`        // Layer widths, input first.
	IsInitialized bool   `json:"isInitialized"`
}
