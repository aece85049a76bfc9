// internal/training/trainer.go
package training

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/xkilldash9x/scaletuner/api/schemas"
	"github.com/xkilldash9x/scaletuner/internal/config"
	"github.com/xkilldash9x/scaletuner/internal/features"
	"github.com/xkilldash9x/scaletuner/internal/model"
	"go.uber.org/zap"
)

const (
	// scoreThreshold turns the sigmoid aspect outputs into binary signals
	// for the ratio metrics.
	scoreThreshold = 0.5

	// neutralScore is the target for aspect slots the labels say nothing
	// about, so unlabeled aspects neither reward nor punish the model.
	neutralScore = 0.5
)

// Trainer owns the supervised loop. It is the only component that mutates
// network weights; callers serialize access to a given network.
type Trainer struct {
	cfg    config.Interface
	logger *zap.Logger
	rng    *rand.Rand
}

// New builds a trainer from the shared configuration. The shuffle order is
// seeded from the model seed so runs can be reproduced.
func New(cfg config.Interface, logger *zap.Logger) (*Trainer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("trainer requires a config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	seed := cfg.Model().Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Trainer{
		cfg:    cfg,
		logger: logger.Named("training"),
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// Train runs the configured number of epochs over the set, updating the
// network in place, and reports metrics from a final forward-only pass.
// Weights are never reset, so successive calls keep refining the same model;
// a single-example set is a valid (if weak) session.
func (t *Trainer) Train(ctx context.Context, n *model.Network, set []schemas.TrainingData) (schemas.TrainingMetrics, error) {
	start := time.Now()
	if n == nil {
		return schemas.TrainingMetrics{}, fmt.Errorf("training requires an initialized network")
	}
	if err := checkSet(set); err != nil {
		return schemas.TrainingMetrics{}, err
	}

	tc := t.cfg.Training()
	epochs := tc.Epochs
	if epochs < 1 {
		epochs = 1
	}
	batch := tc.BatchSize
	if batch < 1 {
		batch = 1
	}

	inputs, targets := buildTensors(set)

	s, release := n.AcquireScratch()
	defer release()

	order := make([]int, len(set))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < epochs; epoch++ {
		t.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var epochMSE float64
		for b := 0; b < len(order); b += batch {
			// Cancellation is honored between batches, never mid-example,
			// so an interrupted run still holds consistent weights.
			if err := ctx.Err(); err != nil {
				return schemas.TrainingMetrics{}, fmt.Errorf("training interrupted in epoch %d: %w", epoch+1, err)
			}
			end := b + batch
			if end > len(order) {
				end = len(order)
			}
			for _, idx := range order[b:end] {
				mse, err := n.TrainStep(inputs[idx], targets[idx], tc.LearningRate, s)
				if err != nil {
					return schemas.TrainingMetrics{}, fmt.Errorf("train step for example %q: %w", set[idx].ID, err)
				}
				epochMSE += mse
			}
		}
		t.logger.Debug("Epoch finished",
			zap.Int("epoch", epoch+1),
			zap.Float64("mse", epochMSE/float64(len(order))))
	}

	metrics, err := measure(n, s, inputs, targets)
	if err != nil {
		return schemas.TrainingMetrics{}, err
	}
	metrics.Samples = len(set)
	metrics.Duration = time.Since(start)

	t.logger.Info("Training complete",
		zap.Int("samples", metrics.Samples),
		zap.Int("epochs", epochs),
		zap.Float64("mse", metrics.MSE),
		zap.Float64("f1", metrics.F1Score),
		zap.Duration("duration", metrics.Duration))
	return metrics, nil
}

// Evaluate measures the network against a labeled set without touching any
// weights.
func (t *Trainer) Evaluate(ctx context.Context, n *model.Network, set []schemas.TrainingData) (schemas.TrainingMetrics, error) {
	start := time.Now()
	if n == nil {
		return schemas.TrainingMetrics{}, fmt.Errorf("evaluation requires an initialized network")
	}
	if err := checkSet(set); err != nil {
		return schemas.TrainingMetrics{}, err
	}
	if err := ctx.Err(); err != nil {
		return schemas.TrainingMetrics{}, err
	}

	inputs, targets := buildTensors(set)

	s, release := n.AcquireScratch()
	defer release()

	metrics, err := measure(n, s, inputs, targets)
	if err != nil {
		return schemas.TrainingMetrics{}, err
	}
	metrics.Samples = len(set)
	metrics.Duration = time.Since(start)

	t.logger.Info("Evaluation complete",
		zap.Int("samples", metrics.Samples),
		zap.Float64("mse", metrics.MSE),
		zap.Float64("accuracy", metrics.Accuracy))
	return metrics, nil
}

func checkSet(set []schemas.TrainingData) error {
	if len(set) == 0 {
		return fmt.Errorf("training set is empty")
	}
	for i := range set {
		if err := set[i].WellFormed(); err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
	}
	return nil
}

func buildTensors(set []schemas.TrainingData) (inputs, targets [][]float64) {
	inputs = make([][]float64, len(set))
	targets = make([][]float64, len(set))
	for i := range set {
		inputs[i] = features.Vector(set[i].Features)
		targets[i] = targetVector(&set[i].Labels)
	}
	return inputs, targets
}

// targetVector lays the labels onto the prediction head. Token targets fill
// the positional slots in model.TokenSlots order; aspect slots start at the
// neutral score and take any matching performance target, with the dedicated
// satisfaction and accessibility ratings applied last.
func targetVector(labels *schemas.TrainingLabels) []float64 {
	vec := make([]float64, model.OutputSize)

	names := make([]string, 0, len(labels.TokenTargets))
	for name := range labels.TokenTargets {
		names = append(names, name)
	}
	for i, name := range model.TokenSlots(names) {
		if v := labels.TokenTargets[name]; !math.IsNaN(v) && !math.IsInf(v, 0) {
			vec[i] = v
		}
	}

	for i := model.TokenOutputSlots; i < model.OutputSize; i++ {
		vec[i] = neutralScore
	}
	for name, v := range labels.PerformanceTargets {
		if slot := model.AspectSlot(name); slot >= 0 {
			vec[slot] = clampScore(v)
		}
	}
	vec[model.AspectSlot("satisfaction")] = clampScore(labels.SatisfactionScore)
	vec[model.AspectSlot("accessibility")] = clampScore(labels.AccessibilityScore)
	return vec
}

// measure runs one forward pass per example. Every head slot contributes to
// MSE; only the aspect slots feed the thresholded ratio metrics, since token
// slots live on config-dependent scales.
func measure(n *model.Network, s *model.Scratch, inputs, targets [][]float64) (schemas.TrainingMetrics, error) {
	var m schemas.TrainingMetrics
	var tp, fp, tn, fn int

	for i := range inputs {
		out, err := n.Forward(inputs[i], s)
		if err != nil {
			return m, fmt.Errorf("measuring example %d: %w", i, err)
		}
		for j := 0; j < model.OutputSize; j++ {
			diff := out[j] - targets[i][j]
			m.MSE += diff * diff
			if j < model.TokenOutputSlots {
				continue
			}
			pred := out[j] >= scoreThreshold
			want := targets[i][j] >= scoreThreshold
			switch {
			case pred && want:
				tp++
			case pred && !want:
				fp++
			case !pred && want:
				fn++
			default:
				tn++
			}
		}
	}

	m.MSE /= float64(len(inputs) * model.OutputSize)
	m.Accuracy = ratio(tp+tn, tp+tn+fp+fn)
	m.Precision = ratio(tp, tp+fp)
	m.Recall = ratio(tp, tp+fn)
	if m.Precision+m.Recall > 0 {
		m.F1Score = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func clampScore(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
