// internal/features/baselines.go
package features

import "github.com/xkilldash9x/scaletuner/api/schemas"

// Budget anchors for normalizing raw runtime costs into (0, 1] scores. A
// metric at its budget scores 0.5; a free metric scores 1.
const (
	renderBudgetMS    = 100
	layoutShiftBudget = 1
	memoryBudgetKB    = 1024
	bundleBudgetKB    = 512
)

// AspectBaselines collapses the extracted performance summaries into one
// normalized score per predicted aspect, keyed by the aspect names the
// prediction head emits. The scoring uses the same budget anchors as the
// record-level perfScore, so a baseline and a predicted aspect score are
// directly comparable. A summary with no signal scores the neutral 0.5.
func AspectBaselines(f *schemas.ModelFeatures) map[string]float64 {
	out := make(map[string]float64, 4)
	if f == nil {
		return out
	}
	p := f.Performance
	out["renderTime"] = baselineScore(p.RenderTime, renderBudgetMS)
	out["bundleSize"] = baselineScore(p.BundleSize, bundleBudgetKB)
	out["memory"] = baselineScore(p.Memory, memoryBudgetKB)
	out["layoutShift"] = baselineScore(p.LayoutShift, layoutShiftBudget)
	return out
}

func baselineScore(s schemas.ValueSummary, budget float64) float64 {
	if s.Mean == 0 && s.Median == 0 && s.Min == 0 && s.Max == 0 && s.StdDev == 0 {
		// Nothing observed for this aspect.
		return 0.5
	}
	cost := s.Mean
	if cost < 0 {
		cost = 0
	}
	return budget / (budget + cost)
}
