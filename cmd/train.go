// -- cmd/train.go --
package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scaletuner/api/schemas"
	"github.com/xkilldash9x/scaletuner/internal/config"
	"github.com/xkilldash9x/scaletuner/internal/observability"
	"github.com/xkilldash9x/scaletuner/internal/optimizer"
	"github.com/xkilldash9x/scaletuner/internal/usagedata"
)

// newTrainCmd creates and configures the `train` command.
func newTrainCmd(st *rootState) *cobra.Command {
	var (
		dataPaths []string
		modelPath string
		savePath  string
		fromStore bool
		limit     int
		follow    bool
	)

	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "Train the scaling model on labeled samples",
		Long: `Train runs the configured training schedule over labeled samples from
JSONL files or the postgres archive, then saves the model artifact.
With --follow it keeps running and retrains whenever new samples reach
the archive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.Config()
			if err != nil {
				return err
			}
			logger := observability.GetLogger()
			applyTrainFlagOverrides(cmd, cfg)

			return runTrain(cmd.Context(), logger, cfg, trainOptions{
				DataPaths: dataPaths,
				ModelPath: modelPath,
				SavePath:  savePath,
				FromStore: fromStore,
				Limit:     limit,
				Follow:    follow,
				Stdout:    cmd.OutOrStdout(),
			})
		},
	}

	trainCmd.Flags().StringSliceVarP(&dataPaths, "data", "d", nil, "Training data file(s) in JSONL format. Repeatable.")
	trainCmd.Flags().StringVarP(&modelPath, "model", "m", "", "Existing model artifact to continue training. If unset, a fresh model is built.")
	trainCmd.Flags().StringVar(&savePath, "save", "", "Where to save the trained model (default <model.dir>/"+defaultModelFile+").")
	trainCmd.Flags().BoolVar(&fromStore, "from-store", false, "Train on samples archived in the postgres store.")
	trainCmd.Flags().IntVar(&limit, "limit", 0, "Maximum store samples to load; 0 loads all.")
	trainCmd.Flags().BoolVar(&follow, "follow", false, "Keep running and retrain whenever new samples reach the store.")
	trainCmd.Flags().Int("epochs", 0, "Training epochs override. (Overrides config/env)")
	trainCmd.Flags().Float64("learning-rate", 0, "Learning rate override. (Overrides config/env)")
	trainCmd.Flags().Bool("store", false, "Force-enable the sample store for this run.")

	return trainCmd
}

// applyTrainFlagOverrides maps changed flags onto the resolved config.
func applyTrainFlagOverrides(cmd *cobra.Command, cfg config.Interface) {
	if cmd.Flags().Changed("epochs") {
		if n, err := cmd.Flags().GetInt("epochs"); err == nil && n > 0 {
			cfg.SetTrainingEpochs(n)
		}
	}
	if cmd.Flags().Changed("learning-rate") {
		if lr, err := cmd.Flags().GetFloat64("learning-rate"); err == nil && lr > 0 {
			cfg.SetTrainingLearningRate(lr)
		}
	}
	if cmd.Flags().Changed("store") {
		if on, err := cmd.Flags().GetBool("store"); err == nil && on {
			cfg.SetStoreEnabled(true)
		}
	}
}

// trainOptions bundles the resolved inputs of one train run.
type trainOptions struct {
	DataPaths []string
	ModelPath string
	SavePath  string
	FromStore bool
	Limit     int
	Follow    bool
	Stdout    io.Writer
}

// sampleSource is the slice of the store the follow loop reads from.
type sampleSource interface {
	CountSamples(ctx context.Context) (int64, error)
	LoadSamples(ctx context.Context, limit int) ([]schemas.TrainingData, error)
}

// runTrain loads or builds a model, trains it, and saves the artifact.
func runTrain(ctx context.Context, logger *zap.Logger, cfg config.Interface, opts trainOptions) error {
	if opts.SavePath == "" {
		opts.SavePath = defaultModelPath(cfg)
	}

	var src *storeHandle
	if opts.FromStore || opts.Follow || cfg.Store().Enabled {
		handle, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer handle.Close()
		src = handle
	}

	var optOpts []optimizer.Option
	// Archive file-trained batches when the store is on and the samples are
	// not already coming from it.
	if src != nil && !opts.FromStore && !opts.Follow {
		optOpts = append(optOpts, optimizer.WithSampleArchive(src.Store))
	}

	opt, err := optimizer.New(cfg, logger, optOpts...)
	if err != nil {
		return err
	}
	if opts.ModelPath != "" {
		if err := opt.LoadModel(ctx, opts.ModelPath); err != nil {
			return err
		}
	} else if err := opt.Initialize(ctx); err != nil {
		return err
	}

	if opts.Follow {
		return runFollowTraining(ctx, logger, opt, src.Store, opts.SavePath, cfg.Data().FollowFlushInterval)
	}

	var samples []schemas.TrainingData
	if opts.FromStore {
		samples, err = src.Store.LoadSamples(ctx, opts.Limit)
	} else {
		if len(opts.DataPaths) == 0 {
			return fmt.Errorf("no training data: pass --data files or --from-store")
		}
		samples, err = usagedata.LoadTrainingFiles(ctx, opts.DataPaths)
	}
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no training samples found")
	}

	metrics, err := opt.TrainModel(ctx, samples)
	if err != nil {
		return err
	}
	if err := opt.SaveModel(ctx, opts.SavePath); err != nil {
		return err
	}

	logger.Info("Training complete",
		zap.Int("samples", metrics.Samples),
		zap.Float64("mse", metrics.MSE),
		zap.String("model", opts.SavePath))
	return writeJSON(opts.Stdout, "", metrics)
}

// runFollowTraining retrains whenever the archived sample count changes, at
// most once per flush interval, and saves the model after every pass.
func runFollowTraining(ctx context.Context, logger *zap.Logger, opt *optimizer.Optimizer, src sampleSource, savePath string, interval time.Duration) error {
	logger.Info("Entering follow mode",
		zap.Duration("interval", interval),
		zap.String("model", savePath))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var seen int64
	for {
		select {
		case <-ctx.Done():
			logger.Info("Leaving follow mode.")
			return nil

		case <-ticker.C:
			count, err := src.CountSamples(ctx)
			if err != nil {
				logger.Warn("Failed to count archived samples", zap.Error(err))
				continue
			}
			if count == 0 || count == seen {
				continue
			}

			samples, err := src.LoadSamples(ctx, 0)
			if err != nil {
				logger.Warn("Failed to load archived samples", zap.Error(err))
				continue
			}

			metrics, err := opt.TrainModel(ctx, samples)
			if err != nil {
				if ctx.Err() != nil {
					logger.Info("Leaving follow mode.")
					return nil
				}
				logger.Error("Training pass failed", zap.Error(err))
				continue
			}
			if err := opt.SaveModel(ctx, savePath); err != nil {
				logger.Error("Failed to save model after training pass", zap.Error(err))
				continue
			}

			seen = count
			logger.Info("Training pass complete",
				zap.Int64("archived_samples", count),
				zap.Float64("mse", metrics.MSE),
				zap.Float64("accuracy", metrics.Accuracy))
		}
	}
}
