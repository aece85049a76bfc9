// internal/prediction/explain.go
package prediction

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/xkilldash9x/scaletuner/api/schemas"
)

// Explain scores feature importance by occlusion: each input slot is zeroed
// in turn and the mean absolute shift of the head becomes that slot's score.
// The model may be anything, but it must expose predict capability through
// the Predictor interface or the call fails before any inference runs.
func (e *Engine) Explain(ctx context.Context, m any, input []float64, names []string) (*schemas.PredictionExplanation, error) {
	p, ok := m.(Predictor)
	if !ok {
		return nil, &ExplanationError{Err: ErrMissingPredict}
	}
	if len(names) != len(input) {
		return nil, &ExplanationError{Err: fmt.Errorf("%d names for %d inputs", len(names), len(input))}
	}

	baseline, err := p.Predict(ctx, input)
	if err != nil {
		return nil, &ExplanationError{Err: err}
	}

	exp := &schemas.PredictionExplanation{
		Importance: make(map[string]float64, len(input)),
	}

	occluded := make([]float64, len(input))
	for i, name := range names {
		// A zero slot is already occluded; its score is zero by definition.
		if input[i] == 0 {
			exp.Importance[name] = 0
			continue
		}
		copy(occluded, input)
		occluded[i] = 0

		out, err := p.Predict(ctx, occluded)
		if err != nil {
			return nil, &ExplanationError{Err: fmt.Errorf("occluding %s: %w", name, err)}
		}
		var shift float64
		for j := range out {
			shift += math.Abs(out[j] - baseline[j])
		}
		exp.Importance[name] = shift / float64(len(out))
	}

	exp.TopFeatures = rankFeatures(exp.Importance, e.cfg.Engine().TopFeatures)
	return exp, nil
}

// rankFeatures orders scores descending, breaking ties by name so the
// ranking is deterministic, and truncates to the configured count.
func rankFeatures(scores map[string]float64, limit int) []schemas.FeatureImportance {
	ranked := make([]schemas.FeatureImportance, 0, len(scores))
	for name, score := range scores {
		ranked = append(ranked, schemas.FeatureImportance{Name: name, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
