// -- cmd/optimize.go --
package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scaletuner/internal/config"
	"github.com/xkilldash9x/scaletuner/internal/observability"
	"github.com/xkilldash9x/scaletuner/internal/optimizer"
	"github.com/xkilldash9x/scaletuner/internal/usagedata"
)

// newOptimizeCmd creates and configures the `optimize` command.
func newOptimizeCmd(st *rootState) *cobra.Command {
	var (
		usagePaths []string
		modelPath  string
		outputPath string
	)

	optimizeCmd := &cobra.Command{
		Use:   "optimize <responsive-config>",
		Short: "Generate scaling suggestions from a responsive config and usage data",
		Long: `Optimize loads a responsive configuration (JSON or YAML) and one or
more usage data files (JSONL), runs the model, and emits constraint-
satisfying scaling suggestions as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.Config()
			if err != nil {
				return err
			}
			logger := observability.GetLogger()
			applyOptimizeFlagOverrides(cmd, cfg)

			return runOptimize(cmd.Context(), logger, cfg, optimizeInput{
				ConfigPath: args[0],
				UsagePaths: usagePaths,
				ModelPath:  modelPath,
				OutputPath: outputPath,
				Stdout:     cmd.OutOrStdout(),
			})
		},
	}

	optimizeCmd.Flags().StringSliceVarP(&usagePaths, "usage", "u", nil, "Usage data file(s) in JSONL format. Repeatable.")
	optimizeCmd.Flags().StringVarP(&modelPath, "model", "m", "", "Trained model artifact to use. If unset, a fresh model is built.")
	optimizeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file for the suggestions JSON. If unset, prints to stdout.")
	optimizeCmd.Flags().Int("passes", 0, "Confidence passes override. (Overrides config/env)")
	_ = optimizeCmd.MarkFlagRequired("usage")

	return optimizeCmd
}

// applyOptimizeFlagOverrides maps changed flags onto the resolved config.
func applyOptimizeFlagOverrides(cmd *cobra.Command, cfg config.Interface) {
	if cmd.Flags().Changed("passes") {
		if n, err := cmd.Flags().GetInt("passes"); err == nil && n > 0 {
			cfg.SetEngineConfidencePasses(n)
		}
	}
}

// optimizeInput bundles the resolved inputs of one optimize run.
type optimizeInput struct {
	ConfigPath string
	UsagePaths []string
	ModelPath  string
	OutputPath string
	Stdout     io.Writer
}

// runOptimize executes one optimization pass end to end.
func runOptimize(ctx context.Context, logger *zap.Logger, cfg config.Interface, in optimizeInput) error {
	rc, err := config.LoadResponsiveConfig(in.ConfigPath)
	if err != nil {
		return err
	}
	usage, err := usagedata.LoadUsageFiles(ctx, in.UsagePaths)
	if err != nil {
		return err
	}
	logger.Info("Loaded optimization inputs",
		zap.String("responsive_config", in.ConfigPath),
		zap.Int("usage_records", len(usage)))

	opt, err := optimizer.New(cfg, logger)
	if err != nil {
		return err
	}
	if in.ModelPath != "" {
		if err := opt.LoadModel(ctx, in.ModelPath); err != nil {
			return err
		}
	} else if err := opt.Initialize(ctx); err != nil {
		return err
	}

	suggestions, err := opt.OptimizeScaling(ctx, rc, usage)
	if err != nil {
		return err
	}

	if err := writeJSON(in.Stdout, in.OutputPath, suggestions); err != nil {
		return err
	}
	if in.OutputPath != "" {
		logger.Info("Suggestions written", zap.String("path", in.OutputPath))
	}
	return nil
}
