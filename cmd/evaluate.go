// -- cmd/evaluate.go --
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scaletuner/api/schemas"
	"github.com/xkilldash9x/scaletuner/internal/config"
	"github.com/xkilldash9x/scaletuner/internal/observability"
	"github.com/xkilldash9x/scaletuner/internal/optimizer"
	"github.com/xkilldash9x/scaletuner/internal/usagedata"
)

// newEvaluateCmd creates and configures the `evaluate` command.
func newEvaluateCmd(st *rootState) *cobra.Command {
	var (
		dataPaths []string
		modelPath string
		fromStore bool
		limit     int
	)

	evaluateCmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a trained model against labeled samples",
		Long: `Evaluate runs a forward pass over labeled samples without updating the
model and reports accuracy, precision, recall, F1 and MSE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.Config()
			if err != nil {
				return err
			}
			logger := observability.GetLogger()

			return runEvaluate(cmd.Context(), logger, cfg, evaluateOptions{
				DataPaths: dataPaths,
				ModelPath: modelPath,
				FromStore: fromStore,
				Limit:     limit,
				Stdout:    cmd.OutOrStdout(),
			})
		},
	}

	evaluateCmd.Flags().StringSliceVarP(&dataPaths, "data", "d", nil, "Labeled sample file(s) in JSONL format. Repeatable.")
	evaluateCmd.Flags().StringVarP(&modelPath, "model", "m", "", "Model artifact to evaluate. (Required)")
	evaluateCmd.Flags().BoolVar(&fromStore, "from-store", false, "Evaluate on samples archived in the postgres store.")
	evaluateCmd.Flags().IntVar(&limit, "limit", 0, "Maximum store samples to load; 0 loads all.")
	_ = evaluateCmd.MarkFlagRequired("model")

	return evaluateCmd
}

// evaluateOptions bundles the resolved inputs of one evaluate run.
type evaluateOptions struct {
	DataPaths []string
	ModelPath string
	FromStore bool
	Limit     int
	Stdout    io.Writer
}

// runEvaluate loads a model and scores it against held-out samples.
func runEvaluate(ctx context.Context, logger *zap.Logger, cfg config.Interface, opts evaluateOptions) error {
	opt, err := optimizer.New(cfg, logger)
	if err != nil {
		return err
	}
	if err := opt.LoadModel(ctx, opts.ModelPath); err != nil {
		return err
	}

	var samples []schemas.TrainingData
	if opts.FromStore {
		handle, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer handle.Close()
		samples, err = handle.Store.LoadSamples(ctx, opts.Limit)
		if err != nil {
			return err
		}
	} else {
		if len(opts.DataPaths) == 0 {
			return fmt.Errorf("no evaluation data: pass --data files or --from-store")
		}
		samples, err = usagedata.LoadTrainingFiles(ctx, opts.DataPaths)
		if err != nil {
			return err
		}
	}
	if len(samples) == 0 {
		return fmt.Errorf("no evaluation samples found")
	}

	metrics, err := opt.EvaluateModel(ctx, samples)
	if err != nil {
		return err
	}

	logger.Info("Evaluation complete",
		zap.Int("samples", metrics.Samples),
		zap.Float64("accuracy", metrics.Accuracy),
		zap.Float64("mse", metrics.MSE))
	return writeJSON(opts.Stdout, "", metrics)
}
