// internal/optimizer/optimizer.go

// Package optimizer is the public face of the pipeline. It owns the model
// lifecycle and composes feature extraction, training, and inference into
// the operations the CLI and library callers use.
package optimizer

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scaletuner/api/schemas"
	"github.com/xkilldash9x/scaletuner/internal/config"
	"github.com/xkilldash9x/scaletuner/internal/features"
	"github.com/xkilldash9x/scaletuner/internal/model"
	"github.com/xkilldash9x/scaletuner/internal/prediction"
	"github.com/xkilldash9x/scaletuner/internal/training"
)

// SampleArchive is the optional sink for training batches. The postgres
// store satisfies it; leaving it unset disables archiving.
type SampleArchive interface {
	SaveSamples(ctx context.Context, samples []schemas.TrainingData) error
}

// Optimizer manages a model and turns usage observations into
// constraint-satisfying scaling suggestions.
//
// Concurrent OptimizeScaling calls are safe: inference only reads weights,
// and the active network handle sits behind an atomic pointer. TrainModel
// mutates shared weights and must be serialized by the caller.
type Optimizer struct {
	cfg       config.Interface
	logger    *zap.Logger
	extractor *features.Extractor
	trainer   *training.Trainer
	engine    *prediction.Engine
	archive   SampleArchive

	network atomic.Pointer[model.Network]
}

// Option configures optional collaborators on an Optimizer.
type Option func(*Optimizer)

// WithSampleArchive attaches a sink that receives every successfully
// trained batch.
func WithSampleArchive(a SampleArchive) Option {
	return func(o *Optimizer) { o.archive = a }
}

// New wires an optimizer from its dependencies. The model itself is
// installed later by Initialize or LoadModel.
func New(cfg config.Interface, logger *zap.Logger, opts ...Option) (*Optimizer, error) {
	if cfg == nil || logger == nil {
		return nil, fmt.Errorf("cannot initialize optimizer with nil dependencies")
	}

	trainer, err := training.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("building trainer: %w", err)
	}
	engine, err := prediction.NewEngine(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("building prediction engine: %w", err)
	}

	o := &Optimizer{
		cfg:       cfg,
		logger:    logger.Named("optimizer"),
		extractor: features.New(logger),
		trainer:   trainer,
		engine:    engine,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Initialize builds a fresh network from the configured architecture and
// installs it as the active model. Calling it again replaces the model and
// discards any trained weights.
func (o *Optimizer) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mc := o.cfg.Model()
	n, err := model.NewNetwork(mc.HiddenLayers, mc.Seed)
	if err != nil {
		return fmt.Errorf("building model: %w", err)
	}
	o.network.Store(n)
	o.logger.Info("Model initialized",
		zap.String("model_id", n.ID),
		zap.String("architecture", n.Architecture()))
	return nil
}

// active returns the installed network or ErrNotInitialized.
func (o *Optimizer) active() (*model.Network, error) {
	n := o.network.Load()
	if n == nil {
		return nil, ErrNotInitialized
	}
	return n, nil
}

// TrainModel runs the configured training schedule over the batch and
// returns the final metrics. When a sample archive is attached the batch is
// persisted afterwards; archive failures are logged, not returned, since
// the weights already moved.
func (o *Optimizer) TrainModel(ctx context.Context, data []schemas.TrainingData) (schemas.TrainingMetrics, error) {
	n, err := o.active()
	if err != nil {
		return schemas.TrainingMetrics{}, err
	}
	metrics, err := o.trainer.Train(ctx, n, data)
	if err != nil {
		return schemas.TrainingMetrics{}, err
	}
	if o.archive != nil {
		if aerr := o.archive.SaveSamples(ctx, data); aerr != nil {
			o.logger.Warn("Failed to archive training batch", zap.Error(aerr))
		}
	}
	return metrics, nil
}

// EvaluateModel scores the batch without touching weights.
func (o *Optimizer) EvaluateModel(ctx context.Context, data []schemas.TrainingData) (schemas.TrainingMetrics, error) {
	n, err := o.active()
	if err != nil {
		return schemas.TrainingMetrics{}, err
	}
	return o.trainer.Evaluate(ctx, n, data)
}

// SaveModel persists the active model to path. Persistence failures
// propagate unmodified.
func (o *Optimizer) SaveModel(ctx context.Context, path string) error {
	n, err := o.active()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.Save(path); err != nil {
		return err
	}
	o.logger.Info("Model saved", zap.String("path", path))
	return nil
}

// LoadModel restores a model artifact from path and installs it as the
// active model. It works on a fresh instance; no prior Initialize is
// needed.
func (o *Optimizer) LoadModel(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := model.Load(path)
	if err != nil {
		return err
	}
	o.network.Store(n)
	o.logger.Info("Model loaded",
		zap.String("path", path),
		zap.String("model_id", n.ID),
		zap.String("architecture", n.Architecture()))
	return nil
}

// ModelInfo reports the active model's shape. Before any model is
// installed it reports the configured architecture with IsInitialized
// false.
func (o *Optimizer) ModelInfo() schemas.ModelInfo {
	if n := o.network.Load(); n != nil {
		return n.Info()
	}
	return model.PlannedInfo(o.cfg.Model().HiddenLayers)
}

// Optimize is the stateless one-shot helper: build an optimizer with a
// fresh model and run a single optimization pass over the inputs.
func Optimize(ctx context.Context, cfg config.Interface, logger *zap.Logger, rc *schemas.ResponsiveConfig, usage []schemas.ComponentUsageData, opts ...Option) (*schemas.OptimizationSuggestions, error) {
	o, err := New(cfg, logger, opts...)
	if err != nil {
		return nil, err
	}
	if err := o.Initialize(ctx); err != nil {
		return nil, err
	}
	return o.OptimizeScaling(ctx, rc, usage)
}
