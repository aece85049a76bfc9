// internal/prediction/postprocess.go
package prediction

import (
	"fmt"
	"math"

	"github.com/xkilldash9x/scaletuner/api/schemas"
	"github.com/xkilldash9x/scaletuner/internal/model"
)

// PostProcess forces a raw head back into domain-valid output. Token slots
// are matched to constrained tokens in model.TokenSlots order, clamped into
// [Min, Max], and snapped to the nearest step multiple counted from Min.
// Aspect slots are clamped scores. The result always satisfies every
// constraint it was given, whatever the model produced.
func PostProcess(raw []float64, constraints *schemas.ScalingConstraints) (*schemas.ProcessedPrediction, error) {
	if constraints == nil {
		return nil, fmt.Errorf("post-process: constraints are required")
	}
	if len(raw) != model.OutputSize {
		return nil, fmt.Errorf("post-process: expected a %d-slot prediction, got %d", model.OutputSize, len(raw))
	}

	out := &schemas.ProcessedPrediction{
		Tokens:      make(map[string]float64, len(constraints.Tokens)),
		Performance: make(map[string]float64, model.OutputSize-model.TokenOutputSlots),
	}

	names := make([]string, 0, len(constraints.Tokens))
	for name := range constraints.Tokens {
		names = append(names, name)
	}
	for i, name := range model.TokenSlots(names) {
		out.Tokens[name] = snap(raw[i], constraints.Tokens[name])
	}

	for _, name := range model.OutputNames()[model.TokenOutputSlots:] {
		slot := model.AspectSlot(name)
		score := clampRange(raw[slot], 0, 1)
		if r, ok := constraints.Performance[name]; ok {
			score = clampRange(score, r.Min, r.Max)
		}
		out.Performance[name] = score
	}

	return out, nil
}

// snap clamps v into the constraint interval and quantizes it onto the step
// grid anchored at Min. When the interval is narrower than one step the only
// grid point is Min itself.
func snap(v float64, c schemas.TokenConstraint) float64 {
	lo, hi := c.Min, c.Max
	if hi < lo {
		hi = lo
	}
	v = clampRange(v, lo, hi)
	if c.Step <= 0 {
		return v
	}

	q := lo + math.Round((v-lo)/c.Step)*c.Step
	if q > hi {
		q -= c.Step
	}
	if q < lo {
		q = lo
	}
	return q
}

func clampRange(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v), v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
