// -- cmd/info.go --
package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scaletuner/internal/config"
	"github.com/xkilldash9x/scaletuner/internal/observability"
	"github.com/xkilldash9x/scaletuner/internal/optimizer"
)

// newInfoCmd creates and configures the `info` command.
func newInfoCmd(st *rootState) *cobra.Command {
	var modelPath string

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Describe the configured or a saved model",
		Long: `Info prints the model architecture, layer sizes and parameter count.
Without --model it describes the architecture the current configuration
would build.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.Config()
			if err != nil {
				return err
			}
			logger := observability.GetLogger()

			return runInfo(cmd.Context(), logger, cfg, modelPath, cmd.OutOrStdout())
		},
	}

	infoCmd.Flags().StringVarP(&modelPath, "model", "m", "", "Model artifact to describe. If unset, describes the configured architecture.")

	return infoCmd
}

// runInfo reports architecture details for a saved or planned model.
func runInfo(ctx context.Context, logger *zap.Logger, cfg config.Interface, modelPath string, out io.Writer) error {
	opt, err := optimizer.New(cfg, logger)
	if err != nil {
		return err
	}
	if modelPath != "" {
		if err := opt.LoadModel(ctx, modelPath); err != nil {
			return err
		}
	}
	return writeJSON(out, "", opt.ModelInfo())
}
