package schemas

import "fmt"

// -- Responsive Configuration Schemas --

// OriginAxis identifies which viewport dimension drives scaling interpolation.
type OriginAxis string

// Constants for the supported scaling origin axes.
const (
	OriginWidth    OriginAxis = "width"    // Scale relative to viewport width.
	OriginHeight   OriginAxis = "height"   // Scale relative to viewport height.
	OriginMin      OriginAxis = "min"      // Scale relative to the smaller viewport dimension.
	OriginMax      OriginAxis = "max"      // Scale relative to the larger viewport dimension.
	OriginDiagonal OriginAxis = "diagonal" // Scale relative to the viewport diagonal.
	OriginArea     OriginAxis = "area"     // Scale relative to the viewport area.
)

// OriginAxes lists every supported axis in the canonical order used by
// one-hot feature encodings. The order is load-bearing: changing it changes
// the meaning of trained model weights.
var OriginAxes = [...]OriginAxis{OriginWidth, OriginHeight, OriginMin, OriginMax, OriginDiagonal, OriginArea}

// InterpolationMode selects the curve shape used to interpolate token values
// between breakpoints.
type InterpolationMode string

// Constants for the supported interpolation modes.
const (
	InterpolationLinear      InterpolationMode = "linear"
	InterpolationExponential InterpolationMode = "exponential"
	InterpolationLogarithmic InterpolationMode = "logarithmic"
	InterpolationGoldenRatio InterpolationMode = "golden-ratio"
	InterpolationCustom      InterpolationMode = "custom"
)

// Viewport describes a viewport size in CSS pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Breakpoint is a named viewport size the configuration scales toward.
// Breakpoints are ordered smallest to largest by convention, but the order
// supplied by the caller is preserved as-is.
type Breakpoint struct {
	Name   string  `json:"name"`   // Human-readable name (e.g., "mobile", "desktop").
	Width  float64 `json:"width"`  // Viewport width in pixels.
	Height float64 `json:"height"` // Viewport height in pixels.
}

// ScalingToken defines the scaling rule for a single named design token
// (font size, spacing, radius, etc.).
type ScalingToken struct {
	Scale float64 `json:"scale"` // Base scale factor applied at the reference viewport.
	Min   float64 `json:"min"`   // Lower bound for the computed value.
	Max   float64 `json:"max"`   // Upper bound for the computed value.
	Step  float64 `json:"step"`  // Quantization step; computed values snap to min + n*step.

	Unit       string `json:"unit,omitempty"`       // CSS unit hint (px, rem, ...).
	Responsive bool   `json:"responsive,omitempty"` // Whether the token participates in breakpoint interpolation.
}

// AccessibilityConfig carries the hard accessibility floors suggestions must
// never cross.
type AccessibilityConfig struct {
	MinFontSize      float64 `json:"minFontSize"`                // Minimum legible font size in px.
	MinTapTarget     float64 `json:"minTapTarget"`               // Minimum tap target dimension in px.
	PreserveContrast bool    `json:"preserveContrast,omitempty"` // Whether contrast ratios must be preserved when scaling.
}

// RoundingMode selects how computed token values are rounded.
type RoundingMode string

// Constants for the supported rounding modes.
const (
	RoundNearest RoundingMode = "nearest"
	RoundFloor   RoundingMode = "floor"
	RoundCeil    RoundingMode = "ceil"
)

// RoundingConfig describes the rounding policy applied to computed values.
type RoundingConfig struct {
	Mode      RoundingMode `json:"mode"`
	Precision float64      `json:"precision,omitempty"` // Decimal precision; 0 means integral.
}

// PerformanceConfig holds the calculation performance flags. These are
// pass-through signals for feature extraction; the optimizer never acts on
// them directly.
type PerformanceConfig struct {
	Memoization     bool   `json:"memoization,omitempty"`
	LazyCalculation bool   `json:"lazyCalculation,omitempty"`
	CacheStrategy   string `json:"cacheStrategy,omitempty"`
}

// ScalingStrategy bundles everything that governs how token values scale
// across breakpoints.
type ScalingStrategy struct {
	Origin        OriginAxis              `json:"origin"` // Axis driving interpolation.
	Mode          InterpolationMode       `json:"mode"`   // Curve shape between breakpoints.
	Tokens        map[string]ScalingToken `json:"tokens"` // Named design tokens keyed by token name.
	Accessibility AccessibilityConfig     `json:"accessibility"`
	Rounding      RoundingConfig          `json:"rounding"`
	Performance   PerformanceConfig       `json:"performance"`
}

// ResponsiveConfig is the read-only configuration the optimizer learns
// against. It is supplied by configuration-loading collaborators and never
// mutated by this module.
type ResponsiveConfig struct {
	Base        Viewport        `json:"base"`        // Reference viewport all ratios are computed against.
	Breakpoints []Breakpoint    `json:"breakpoints"` // Ordered target viewports.
	Strategy    ScalingStrategy `json:"strategy"`
}

// HasStrategy reports whether the configuration carries a usable strategy
// section. A strategy needs at least an origin axis or one declared token.
func (c *ResponsiveConfig) HasStrategy() bool {
	if c == nil {
		return false
	}
	return c.Strategy.Origin != "" || len(c.Strategy.Tokens) > 0
}

// Validate checks the structural invariants of the configuration: a positive
// base viewport, and for every token min <= max with a strictly positive
// step. It returns the first violation found.
func (c *ResponsiveConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("responsive config is nil")
	}
	if c.Base.Width <= 0 || c.Base.Height <= 0 {
		return fmt.Errorf("base viewport must have positive dimensions, got %gx%g", c.Base.Width, c.Base.Height)
	}
	for _, bp := range c.Breakpoints {
		if bp.Width <= 0 || bp.Height <= 0 {
			return fmt.Errorf("breakpoint %q must have positive dimensions, got %gx%g", bp.Name, bp.Width, bp.Height)
		}
	}
	for name, tok := range c.Strategy.Tokens {
		if tok.Min > tok.Max {
			return fmt.Errorf("token %q: min (%g) must not exceed max (%g)", name, tok.Min, tok.Max)
		}
		if tok.Step <= 0 {
			return fmt.Errorf("token %q: step must be positive, got %g", name, tok.Step)
		}
	}
	return nil
}
