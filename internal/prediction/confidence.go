// internal/prediction/confidence.go
package prediction

import (
	"context"

	"github.com/xkilldash9x/scaletuner/api/schemas"
	"github.com/xkilldash9x/scaletuner/internal/model"
)

// Confidence estimates how stable a prediction is by running the configured
// number of dropout-masked passes and measuring the spread of the outputs.
// Confidence is 1/(1+variance): monotone decreasing in variance and bounded
// to (0, 1].
func (e *Engine) Confidence(ctx context.Context, n *model.Network, input []float64) (*schemas.ConfidenceEstimate, error) {
	if n == nil {
		return nil, &InferenceError{Stage: "confidence", Err: errNoModel}
	}

	passes := e.cfg.Engine().ConfidencePasses
	if passes < 2 {
		passes = 2
	}
	dropRate := e.cfg.Model().DropoutRate

	rng := e.childRNG()
	s, release := n.AcquireScratch()
	defer release()

	sums := make([]float64, model.OutputSize)
	squares := make([]float64, model.OutputSize)
	for p := 0; p < passes; p++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := n.ForwardMasked(input, s, dropRate, rng)
		if err != nil {
			return nil, &InferenceError{Stage: "confidence", Err: err}
		}
		for i, v := range out {
			sums[i] += v
			squares[i] += v * v
		}
	}

	fp := float64(passes)
	var meanAcc, varAcc float64
	for i := 0; i < model.OutputSize; i++ {
		mean := sums[i] / fp
		variance := squares[i]/fp - mean*mean
		if variance < 0 {
			// Rounding can leave a tiny negative here.
			variance = 0
		}
		meanAcc += mean
		varAcc += variance
	}

	est := &schemas.ConfidenceEstimate{
		Mean:     meanAcc / float64(model.OutputSize),
		Variance: varAcc / float64(model.OutputSize),
	}
	est.Confidence = 1 / (1 + est.Variance)
	return est, nil
}
