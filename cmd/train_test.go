// -- cmd/train_test.go --
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scaletuner/api/schemas"
	"github.com/xkilldash9x/scaletuner/internal/optimizer"
)

func TestApplyTrainFlagOverrides(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		expectedEpoch int
		expectedLR    float64
		expectedStore bool
	}{
		{
			name:          "epochs and learning rate override defaults",
			args:          []string{"--epochs", "3", "--learning-rate", "0.2"},
			expectedEpoch: 3, expectedLR: 0.2, expectedStore: false,
		},
		{
			name:          "store flag enables the archive",
			args:          []string{"--store"},
			expectedEpoch: 15, expectedLR: 0.01, expectedStore: true,
		},
		{
			name:          "zero overrides are ignored",
			args:          []string{"--epochs", "0", "--learning-rate", "0"},
			expectedEpoch: 15, expectedLR: 0.01, expectedStore: false,
		},
		{
			name:          "no flags keeps the configured values",
			args:          []string{},
			expectedEpoch: 15, expectedLR: 0.01, expectedStore: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			trainCmd := newTrainCmd(&rootState{})
			require.NoError(t, trainCmd.ParseFlags(tt.args))

			applyTrainFlagOverrides(trainCmd, cfg)

			assert.Equal(t, tt.expectedEpoch, cfg.Training().Epochs)
			assert.InDelta(t, tt.expectedLR, cfg.Training().LearningRate, 1e-12)
			assert.Equal(t, tt.expectedStore, cfg.Store().Enabled)
		})
	}
}

func TestRunTrainEvaluateRoundtrip(t *testing.T) {
	resetForTest(t)
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	cfg := testConfig(t)
	dataPath := writeTrainingFixture(t, 8)
	savePath := filepath.Join(t.TempDir(), "tuner.json.br")

	var trainOut bytes.Buffer
	err := runTrain(ctx, logger, cfg, trainOptions{
		DataPaths: []string{dataPath},
		SavePath:  savePath,
		Stdout:    &trainOut,
	})
	require.NoError(t, err)
	require.FileExists(t, savePath)

	var metrics schemas.TrainingMetrics
	require.NoError(t, json.Unmarshal(trainOut.Bytes(), &metrics))
	assert.Equal(t, 8, metrics.Samples)
	assert.GreaterOrEqual(t, metrics.MSE, 0.0)

	var evalOut bytes.Buffer
	err = runEvaluate(ctx, logger, cfg, evaluateOptions{
		DataPaths: []string{dataPath},
		ModelPath: savePath,
		Stdout:    &evalOut,
	})
	require.NoError(t, err)

	var evalMetrics schemas.TrainingMetrics
	require.NoError(t, json.Unmarshal(evalOut.Bytes(), &evalMetrics))
	assert.Equal(t, 8, evalMetrics.Samples)

	var infoOut bytes.Buffer
	require.NoError(t, runInfo(ctx, logger, cfg, savePath, &infoOut))
	var info schemas.ModelInfo
	require.NoError(t, json.Unmarshal(infoOut.Bytes(), &info))
	assert.True(t, info.IsInitialized)
	assert.Equal(t, "128-64-32-16", info.Architecture)
}

func TestRunTrainDefaultSavePath(t *testing.T) {
	resetForTest(t)
	cfg := testConfig(t)

	err := runTrain(context.Background(), zaptest.NewLogger(t), cfg, trainOptions{
		DataPaths: []string{writeTrainingFixture(t, 4)},
		Stdout:    new(bytes.Buffer),
	})
	require.NoError(t, err)
	assert.FileExists(t, defaultModelPath(cfg))
}

func TestRunTrainRejectsMissingData(t *testing.T) {
	resetForTest(t)
	logger := zaptest.NewLogger(t)
	cfg := testConfig(t)

	t.Run("no data source", func(t *testing.T) {
		err := runTrain(context.Background(), logger, cfg, trainOptions{
			Stdout: new(bytes.Buffer),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no training data")
	})

	t.Run("empty data file", func(t *testing.T) {
		empty := filepath.Join(t.TempDir(), "empty.jsonl")
		require.NoError(t, os.WriteFile(empty, nil, 0644))

		err := runTrain(context.Background(), logger, cfg, trainOptions{
			DataPaths: []string{empty},
			Stdout:    new(bytes.Buffer),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no training samples found")
	})

	t.Run("follow without store", func(t *testing.T) {
		err := runTrain(context.Background(), logger, cfg, trainOptions{
			Follow: true,
			Stdout: new(bytes.Buffer),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store is disabled")
	})
}

// fakeSampleSource is a programmable stand-in for the postgres archive.
type fakeSampleSource struct {
	mu       sync.Mutex
	count    int64
	countErr error
	samples  []schemas.TrainingData
	loads    int
}

func (f *fakeSampleSource) CountSamples(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count, f.countErr
}

func (f *fakeSampleSource) LoadSamples(ctx context.Context, limit int) ([]schemas.TrainingData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.samples, nil
}

func (f *fakeSampleSource) set(count int64, err error, samples []schemas.TrainingData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count = count
	f.countErr = err
	f.samples = samples
}

func (f *fakeSampleSource) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

func TestRunFollowTraining(t *testing.T) {
	defer goleak.VerifyNone(t)
	resetForTest(t)

	logger := zaptest.NewLogger(t)
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opt, err := optimizer.New(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, opt.Initialize(ctx))

	samples := []schemas.TrainingData{
		trainingFixture("follow-0", 1),
		trainingFixture("follow-1", 2),
	}
	src := &fakeSampleSource{}
	src.set(2, nil, samples)

	savePath := filepath.Join(t.TempDir(), "follow.json.br")
	done := make(chan error, 1)
	go func() {
		done <- runFollowTraining(ctx, logger, opt, src, savePath, 20*time.Millisecond)
	}()

	// First pass: new samples trigger a retrain and a save.
	require.Eventually(t, func() bool {
		_, statErr := os.Stat(savePath)
		return src.loadCount() >= 1 && statErr == nil
	}, 3*time.Second, 10*time.Millisecond)

	// Count errors are tolerated; the loop keeps polling.
	src.set(2, assert.AnError, nil)
	time.Sleep(60 * time.Millisecond)

	// A changed count triggers another pass once the store recovers.
	src.set(4, nil, append(samples, trainingFixture("follow-2", 3)))
	require.Eventually(t, func() bool {
		return src.loadCount() >= 2
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
