// internal/features/extractor.go
package features

import (
	"math"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scaletuner/api/schemas"
)

// Extractor converts a responsive configuration plus usage observations into
// a structured feature record. Extraction is a total function over
// well-formed input: an empty observation set yields zeroed usage and
// performance sections, and missing optional metrics are excluded from
// aggregates instead of failing the call.
type Extractor struct {
	logger        *zap.Logger
	deviceBuckets map[string]DeviceBucket
	archetypes    map[schemas.ComponentType]schemas.Archetype
	industry      string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithDeviceHeuristic replaces the default layout-position to device-class
// mapping. Positions missing from the table bucket into DeviceOther.
func WithDeviceHeuristic(m map[string]DeviceBucket) Option {
	return func(e *Extractor) {
		e.deviceBuckets = m
	}
}

// WithArchetypeHeuristic replaces the default dominant-type to archetype
// mapping.
func WithArchetypeHeuristic(m map[schemas.ComponentType]schemas.Archetype) Option {
	return func(e *Extractor) {
		e.archetypes = m
	}
}

// WithIndustry provides an explicit industry signal instead of the generic
// default label.
func WithIndustry(label string) Option {
	return func(e *Extractor) {
		if label != "" {
			e.industry = label
		}
	}
}

// New builds an Extractor with the default heuristic tables. A nil logger is
// replaced with a no-op logger.
func New(logger *zap.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Extractor{
		logger:        logger.Named("features"),
		deviceBuckets: defaultDeviceBuckets,
		archetypes:    defaultArchetypes,
		industry:      defaultIndustry,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract produces a fresh feature record for the given configuration and
// usage observations. The result is never shared or mutated afterwards;
// identical inputs produce identical records.
func (e *Extractor) Extract(cfg *schemas.ResponsiveConfig, usage []schemas.ComponentUsageData) *schemas.ModelFeatures {
	f := &schemas.ModelFeatures{
		Config:      e.extractConfig(cfg),
		Usage:       e.extractUsage(usage),
		Performance: e.extractPerformance(usage),
		Context:     e.extractContext(usage),
	}
	e.logger.Debug("Extracted features",
		zap.Int("usage_records", len(usage)),
		zap.Int("breakpoints", f.Config.BreakpointCount),
		zap.String("archetype", string(f.Context.Archetype)))
	return f
}

func (e *Extractor) extractConfig(cfg *schemas.ResponsiveConfig) schemas.ConfigFeatures {
	var out schemas.ConfigFeatures
	if cfg == nil {
		for i := range out.BreakpointRatios {
			out.BreakpointRatios[i] = 1
		}
		return out
	}

	out.BreakpointCount = len(cfg.Breakpoints)

	// Fixed ratio slots: one per breakpoint up to the slot count, trailing
	// slots padded with the neutral ratio 1, extra breakpoints truncated.
	for i := range out.BreakpointRatios {
		out.BreakpointRatios[i] = 1
		if i < len(cfg.Breakpoints) && cfg.Base.Width > 0 {
			out.BreakpointRatios[i] = cfg.Breakpoints[i].Width / cfg.Base.Width
		}
	}

	out.TokenComplexity = float64(len(cfg.Strategy.Tokens)) * 4

	for i, axis := range schemas.OriginAxes {
		if cfg.Strategy.Origin == axis {
			out.OriginDistribution[i] = 1
		}
	}
	return out
}

func (e *Extractor) extractUsage(usage []schemas.ComponentUsageData) schemas.UsageFeatures {
	out := schemas.UsageFeatures{
		TypeShares:     make(map[schemas.ComponentType]float64),
		PropertyCounts: make(map[string]float64),
	}

	var baseValues []float64
	for _, rec := range usage {
		for _, prop := range rec.Properties {
			baseValues = append(baseValues, prop.BaseValue)
			out.PropertyCounts[prop.Property]++
		}
	}
	out.BaseValues = summarize(baseValues)

	if len(usage) > 0 {
		total := float64(len(usage))
		for _, rec := range usage {
			out.TypeShares[rec.ComponentType] += 1 / total
		}
	}
	return out
}

func (e *Extractor) extractPerformance(usage []schemas.ComponentUsageData) schemas.PerformanceFeatures {
	var render, bundle, memory, shift []float64
	for _, rec := range usage {
		p := rec.Performance
		if p.RenderTimeMS != nil {
			render = append(render, *p.RenderTimeMS)
		}
		if p.BundleSizeKB != nil {
			bundle = append(bundle, *p.BundleSizeKB)
		}
		if p.MemoryKB != nil {
			memory = append(memory, *p.MemoryKB)
		}
		if p.LayoutShiftScore != nil {
			shift = append(shift, *p.LayoutShiftScore)
		}
	}
	return schemas.PerformanceFeatures{
		RenderTime:  summarize(render),
		BundleSize:  summarize(bundle),
		Memory:      summarize(memory),
		LayoutShift: summarize(shift),
	}
}

func (e *Extractor) extractContext(usage []schemas.ComponentUsageData) schemas.ContextFeatures {
	out := schemas.ContextFeatures{
		Archetype: schemas.ArchetypeGenericMixed,
		Industry:  e.industry,
	}
	if len(usage) == 0 {
		return out
	}
	total := float64(len(usage))

	// Archetype: a single type carrying at least the dominance threshold
	// selects a specific archetype; anything else stays generic.
	typeCounts := make(map[schemas.ComponentType]int)
	for _, rec := range usage {
		typeCounts[rec.ComponentType]++
	}
	for typ, count := range typeCounts {
		if float64(count)/total >= dominanceThreshold {
			if arch, ok := e.archetypes[typ]; ok {
				out.Archetype = arch
			}
			break
		}
	}

	for _, rec := range usage {
		switch e.deviceBuckets[rec.Context.LayoutPosition] {
		case DeviceDesktop:
			out.Devices.Desktop += 1 / total
		case DeviceTablet:
			out.Devices.Tablet += 1 / total
		case DeviceMobile:
			out.Devices.Mobile += 1 / total
		default:
			out.Devices.Other += 1 / total
		}
	}

	var perfSum float64
	var perfN int
	for _, rec := range usage {
		out.Engagement += rec.Interaction.InteractionRate / total
		out.Accessibility += rec.Interaction.AccessibilityScore / total
		if score, ok := perfScore(rec.Performance); ok {
			perfSum += score
			perfN++
		}
	}
	if perfN > 0 {
		out.Performance = perfSum / float64(perfN)
	}
	return out
}

// perfScore collapses a performance snapshot into a single score in (0, 1].
// Each present metric contributes a saturating term anchored at a typical
// budget (100ms render, 1MB memory, 512KB bundle, CLS 1.0); absent or NaN
// metrics contribute nothing. The second return is false when no metric is
// usable.
func perfScore(p schemas.PerformanceSnapshot) (float64, bool) {
	var sum float64
	var n int
	add := func(v *float64, budget float64) {
		if v == nil || math.IsNaN(*v) {
			return
		}
		cost := *v
		if cost < 0 {
			cost = 0
		}
		sum += budget / (budget + cost)
		n++
	}
	add(p.RenderTimeMS, renderBudgetMS)
	add(p.LayoutShiftScore, layoutShiftBudget)
	add(p.MemoryKB, memoryBudgetKB)
	add(p.BundleSizeKB, bundleBudgetKB)
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
