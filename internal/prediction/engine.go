// internal/prediction/engine.go
package prediction

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/xkilldash9x/scaletuner/internal/config"
	"github.com/xkilldash9x/scaletuner/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Predictor runs a forward pass over a flattened feature vector. It is the
// capability explanations require of a model.
type Predictor interface {
	Predict(ctx context.Context, input []float64) ([]float64, error)
}

// Engine is the read side of a trained network: single and batched
// prediction, stochastic confidence estimation, and occlusion explanations.
// It never mutates weights, so any number of goroutines may share one engine
// and one network.
type Engine struct {
	cfg    config.Interface
	logger *zap.Logger

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewEngine builds an engine from the shared configuration. Stochastic
// passes are seeded from the model seed so runs can be reproduced.
func NewEngine(cfg config.Interface, logger *zap.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("prediction engine requires a config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	seed := cfg.Model().Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		cfg:    cfg,
		logger: logger.Named("prediction"),
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// childRNG derives an independent generator so concurrent callers never
// contend on the shared source mid-pass.
func (e *Engine) childRNG() *rand.Rand {
	e.mu.Lock()
	seed := e.rng.Int63()
	e.mu.Unlock()
	return rand.New(rand.NewSource(seed))
}

// Predict runs one deterministic forward pass.
func (e *Engine) Predict(ctx context.Context, n *model.Network, input []float64) ([]float64, error) {
	if n == nil {
		return nil, &InferenceError{Stage: "predict", Err: errNoModel}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, release := n.AcquireScratch()
	defer release()

	out, err := n.Forward(input, s)
	if err != nil {
		return nil, &InferenceError{Stage: "predict", Err: err}
	}
	return out, nil
}

// PredictBatch fans the inputs out over a bounded worker group and returns
// the outputs in input order. The first failure cancels the remaining work
// and is reported with its input index.
func (e *Engine) PredictBatch(ctx context.Context, n *model.Network, inputs [][]float64) ([][]float64, error) {
	if n == nil {
		return nil, &InferenceError{Stage: "batch", Err: errNoModel}
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	limit := e.cfg.Engine().BatchConcurrency
	if limit < 1 {
		limit = 1
	}

	results := make([][]float64, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, input := range inputs {
		i, input := i, input // Capture loop variables.
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := e.Predict(gctx, n, input)
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Bind couples the engine to one network behind the Predictor interface.
func (e *Engine) Bind(n *model.Network) Predictor {
	return &boundModel{engine: e, network: n}
}

type boundModel struct {
	engine  *Engine
	network *model.Network
}

func (b *boundModel) Predict(ctx context.Context, input []float64) ([]float64, error) {
	return b.engine.Predict(ctx, b.network, input)
}
