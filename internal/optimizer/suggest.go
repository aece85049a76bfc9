// internal/optimizer/suggest.go
package optimizer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scaletuner/api/schemas"
	"github.com/xkilldash9x/scaletuner/internal/features"
	"github.com/xkilldash9x/scaletuner/internal/prediction"
)

// accessibilityStandard is the standard cited by every accessibility
// warning.
const accessibilityStandard = "WCAG 2.1 AA"

// keepCurveTolerance is the relative deviation from the configured scale
// under which a recommendation keeps the existing interpolation curve.
const keepCurveTolerance = 0.05

// OptimizeScaling runs one optimization pass: extract features from the
// config and usage, predict, and force the prediction back into the
// declared constraints. Every suggested token satisfies Min <= Scale <= Max
// with Scale on the step grid. Token suggestions cover at most the model's
// token slot capacity, taking configured tokens in name order.
//
// Safe to call concurrently; it only reads the active model's weights.
func (o *Optimizer) OptimizeScaling(ctx context.Context, rc *schemas.ResponsiveConfig, usage []schemas.ComponentUsageData) (*schemas.OptimizationSuggestions, error) {
	n, err := o.active()
	if err != nil {
		return nil, err
	}
	if err := validateInput(rc, usage); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	feats := o.extractor.Extract(rc, usage)
	vec := features.Vector(feats)

	raw, err := o.engine.Predict(ctx, n, vec)
	if err != nil {
		return nil, err
	}
	estimate, err := o.engine.Confidence(ctx, n, vec)
	if err != nil {
		return nil, err
	}
	processed, err := prediction.PostProcess(raw, constraintsFrom(rc))
	if err != nil {
		return nil, err
	}

	suggestions := assemble(rc, feats, processed, estimate)
	o.logger.Info("Optimization complete",
		zap.String("suggestion_id", suggestions.ID),
		zap.Int("tokens", len(suggestions.SuggestedTokens)),
		zap.Int("warnings", len(suggestions.AccessibilityWarnings)),
		zap.Float64("confidence", suggestions.ConfidenceScore))
	return suggestions, nil
}

// validateInput rejects inputs the pipeline cannot produce meaningful
// suggestions for.
func validateInput(rc *schemas.ResponsiveConfig, usage []schemas.ComponentUsageData) error {
	if len(usage) == 0 {
		return invalidInput("usage", "usage data is required and must be a non-empty array")
	}
	if rc == nil {
		return invalidInput("config", "responsive config is required")
	}
	if !rc.HasStrategy() {
		return invalidInput("config", "responsive config must declare a scaling strategy")
	}
	for i := range usage {
		if err := usage[i].WellFormed(); err != nil {
			return invalidInput("usage", "usage record %d: %v", i, err)
		}
	}
	return nil
}

// constraintsFrom lifts the declared token bounds into the constraint set
// post-processing enforces. Aspect scores are clamped to [0,1] without an
// explicit range.
func constraintsFrom(rc *schemas.ResponsiveConfig) *schemas.ScalingConstraints {
	sc := &schemas.ScalingConstraints{
		Tokens:      make(map[string]schemas.TokenConstraint, len(rc.Strategy.Tokens)),
		Performance: map[string]schemas.ValueRange{},
	}
	for name, tok := range rc.Strategy.Tokens {
		sc.Tokens[name] = schemas.TokenConstraint{Min: tok.Min, Max: tok.Max, Step: tok.Step}
	}
	return sc
}

// assemble builds the immutable result from the constrained prediction.
func assemble(rc *schemas.ResponsiveConfig, feats *schemas.ModelFeatures, processed *schemas.ProcessedPrediction, estimate *schemas.ConfidenceEstimate) *schemas.OptimizationSuggestions {
	tokens := suggestedTokens(rc, processed)
	impacts := performanceImpacts(feats, processed)
	return &schemas.OptimizationSuggestions{
		ID:                    uuid.NewString(),
		GeneratedAt:           time.Now().UTC(),
		SuggestedTokens:       tokens,
		Recommendations:       curveRecommendations(rc, tokens, estimate.Confidence),
		PerformanceImpacts:    impacts,
		AccessibilityWarnings: accessibilityWarnings(rc.Strategy.Accessibility, tokens),
		ConfidenceScore:       estimate.Confidence,
		EstimatedImprovements: improvementEstimate(feats, processed, impacts),
	}
}

func suggestedTokens(rc *schemas.ResponsiveConfig, processed *schemas.ProcessedPrediction) map[string]schemas.SuggestedToken {
	out := make(map[string]schemas.SuggestedToken, len(processed.Tokens))
	for name, value := range processed.Tokens {
		decl := rc.Strategy.Tokens[name]
		out[name] = schemas.SuggestedToken{
			Scale:   value,
			Min:     decl.Min,
			Max:     decl.Max,
			Step:    decl.Step,
			Current: decl.Scale,
			Unit:    decl.Unit,
		}
	}
	return out
}

// curveRecommendations derives one ranked curve adjustment per suggested
// token. The curve choice follows the direction of the suggested change:
// growth gets an exponential curve, shrinkage a logarithmic one, and values
// near the configured scale keep the current curve. Confidence starts from
// the model-wide estimate and decays with the size of the departure.
func curveRecommendations(rc *schemas.ResponsiveConfig, tokens map[string]schemas.SuggestedToken, baseConfidence float64) []schemas.CurveRecommendation {
	currentMode := rc.Strategy.Mode
	if currentMode == "" {
		currentMode = schemas.InterpolationLinear
	}

	recs := make([]schemas.CurveRecommendation, 0, len(tokens))
	for name, tok := range tokens {
		rel := relativeChange(tok.Current, tok.Scale)

		mode := currentMode
		rationale := keepRationale(tok)
		switch {
		case rel > keepCurveTolerance:
			mode = schemas.InterpolationExponential
			rationale = growRationale(tok)
		case rel < -keepCurveTolerance:
			mode = schemas.InterpolationLogarithmic
			rationale = shrinkRationale(tok)
		}

		recs = append(recs, schemas.CurveRecommendation{
			Token:                 name,
			Mode:                  mode,
			Scale:                 tok.Scale,
			BreakpointAdjustments: breakpointAdjustments(rc, rel),
			Confidence:            clampUnit(baseConfidence * (1 - math.Min(0.5, math.Abs(rel)))),
			Rationale:             rationale,
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Confidence != recs[j].Confidence {
			return recs[i].Confidence > recs[j].Confidence
		}
		return recs[i].Token < recs[j].Token
	})
	return recs
}

// relativeChange measures suggested against current, normalized so a zero
// or sub-unit configured scale cannot blow the ratio up.
func relativeChange(current, suggested float64) float64 {
	base := math.Abs(current)
	if base < 1 {
		base = 1
	}
	return (suggested - current) / base
}

// breakpointAdjustments spreads a relative change across the declared
// breakpoints in proportion to how far each viewport sits from the base
// width. The base viewport itself stays at 1.
func breakpointAdjustments(rc *schemas.ResponsiveConfig, rel float64) map[string]float64 {
	out := make(map[string]float64, len(rc.Breakpoints))
	baseWidth := rc.Base.Width
	for _, bp := range rc.Breakpoints {
		ratio := 1.0
		if baseWidth > 0 {
			ratio = bp.Width / baseWidth
		}
		out[bp.Name] = clampRange(1+rel*(ratio-1), 0.5, 1.5)
	}
	return out
}

func keepRationale(tok schemas.SuggestedToken) string {
	return fmt.Sprintf("Predicted scale %.4g stays close to the configured %.4g; keeping the current curve.", tok.Scale, tok.Current)
}

func growRationale(tok schemas.SuggestedToken) string {
	return fmt.Sprintf("Predicted scale %.4g exceeds the configured %.4g; an exponential curve gives larger viewports more headroom.", tok.Scale, tok.Current)
}

func shrinkRationale(tok schemas.SuggestedToken) string {
	return fmt.Sprintf("Predicted scale %.4g is below the configured %.4g; a logarithmic curve tapers growth on larger viewports.", tok.Scale, tok.Current)
}

// performanceImpacts compares the predicted aspect scores against the
// baselines implied by the observed usage, one entry per canonical aspect.
func performanceImpacts(feats *schemas.ModelFeatures, processed *schemas.ProcessedPrediction) []schemas.PerformanceImpact {
	baselines := features.AspectBaselines(feats)
	out := make([]schemas.PerformanceImpact, 0, len(schemas.ImpactAspects))
	for _, aspect := range schemas.ImpactAspects {
		current := baselines[string(aspect)]
		predicted := processed.Performance[string(aspect)]
		var pct float64
		if current > 0 {
			pct = (predicted - current) / current * 100
		}
		out = append(out, schemas.PerformanceImpact{
			Aspect:         aspect,
			Current:        current,
			Predicted:      predicted,
			ImprovementPct: pct,
			Severity:       impactSeverity(pct),
		})
	}
	return out
}

func impactSeverity(pct float64) schemas.Severity {
	switch abs := math.Abs(pct); {
	case abs >= 20:
		return schemas.SeverityHigh
	case abs >= 10:
		return schemas.SeverityMedium
	case abs >= 3:
		return schemas.SeverityLow
	default:
		return schemas.SeverityInfo
	}
}

// accessibilityWarnings flags suggested values that fall below a declared
// accessibility minimum. Token kind is inferred from the token name.
func accessibilityWarnings(acc schemas.AccessibilityConfig, tokens map[string]schemas.SuggestedToken) []schemas.AccessibilityWarning {
	var out []schemas.AccessibilityWarning
	for name, tok := range tokens {
		if acc.MinFontSize > 0 && isFontToken(name) && tok.Scale < acc.MinFontSize {
			out = append(out, schemas.AccessibilityWarning{
				Type:        schemas.WarningFontSize,
				Token:       name,
				Current:     tok.Scale,
				Recommended: acc.MinFontSize,
				Standard:    accessibilityStandard,
				Severity:    schemas.SeverityHigh,
			})
		}
		if acc.MinTapTarget > 0 && isTapToken(name) && tok.Scale < acc.MinTapTarget {
			out = append(out, schemas.AccessibilityWarning{
				Type:        schemas.WarningTapTarget,
				Token:       name,
				Current:     tok.Scale,
				Recommended: acc.MinTapTarget,
				Standard:    accessibilityStandard,
				Severity:    schemas.SeverityMedium,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Token != out[j].Token {
			return out[i].Token < out[j].Token
		}
		return out[i].Type < out[j].Type
	})
	return out
}

func isFontToken(name string) bool {
	return strings.Contains(strings.ToLower(name), "font")
}

func isTapToken(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "tap") || strings.Contains(lower, "touch")
}

// improvementEstimate summarizes the predicted gains per axis. Performance
// averages the per-aspect impacts. User experience compares the predicted
// engagement and accessibility scores against their observed baselines;
// satisfaction and developer experience have no measured baseline, so the
// neutral midpoint stands in.
func improvementEstimate(feats *schemas.ModelFeatures, processed *schemas.ProcessedPrediction, impacts []schemas.PerformanceImpact) schemas.ImprovementEstimate {
	var perf float64
	if len(impacts) > 0 {
		for _, im := range impacts {
			perf += im.ImprovementPct
		}
		perf /= float64(len(impacts))
	}

	ux := ((processed.Performance["engagement"] - feats.Context.Engagement) +
		(processed.Performance["satisfaction"] - 0.5) +
		(processed.Performance["accessibility"] - feats.Context.Accessibility)) / 3 * 100

	dev := (processed.Performance["devExperience"] - 0.5) * 100

	return schemas.ImprovementEstimate{
		Performance:         perf,
		UserExperience:      ux,
		DeveloperExperience: dev,
	}
}

func clampUnit(v float64) float64 { return clampRange(v, 0, 1) }

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
