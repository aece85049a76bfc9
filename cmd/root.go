// -- cmd/root.go --
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scaletuner/internal/config"
	"github.com/xkilldash9x/scaletuner/internal/observability"
)

// defaultModelFile is the artifact name used when no explicit model path is
// given.
const defaultModelFile = "model.json.br"

// rootState carries what the root command resolves before any subcommand
// runs: the viper instance backing configuration and the validated config
// built from it. A fresh state is created per command tree so tests can
// build pristine instances.
type rootState struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

// Config returns the resolved configuration. Subcommands call it from RunE,
// after PersistentPreRunE has populated it.
func (st *rootState) Config() (*config.Config, error) {
	if st.cfg == nil {
		return nil, fmt.Errorf("configuration has not been resolved")
	}
	return st.cfg, nil
}

// newRootCmd builds the full command tree around fresh state.
func newRootCmd() *cobra.Command {
	st := &rootState{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "scaletuner",
		Short: "Scaletuner turns responsive-design usage data into scaling suggestions.",
		Long: `Scaletuner learns from component usage observations and suggests
constraint-satisfying scaling parameters for a responsive design
configuration: token values, interpolation curves, performance impacts,
and accessibility warnings.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Runs before every subcommand: resolve config, then logging.
			config.SetDefaults(st.v)
			if err := readConfigFile(st.v, st.cfgFile); err != nil {
				return err
			}

			cfg, err := config.NewConfigFromViper(st.v)
			if err != nil {
				return err
			}
			st.cfg = cfg

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Configuration resolved",
				zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&st.cfgFile, "config", "c", "", "config file (default is ./scaletuner.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newOptimizeCmd(st),
		newTrainCmd(st),
		newEvaluateCmd(st),
		newCollectCmd(st),
		newInfoCmd(st),
	)
	return rootCmd
}

// Execute builds the command tree and runs it under a signal-aware context.
func Execute() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer observability.Sync()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// readConfigFile loads the optional config file into v. A missing default
// file is fine; an explicit --config that cannot be read is an error.
func readConfigFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.scaletuner")
		v.SetConfigName("scaletuner")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SCALETUNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults and env vars.
	}
	return nil
}

// defaultModelPath is where models land when no --model/--save path is set.
func defaultModelPath(cfg config.Interface) string {
	return filepath.Join(cfg.Model().Dir, defaultModelFile)
}

// writeJSON renders v as indented JSON to path, or to out when path is
// empty.
func writeJSON(out io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if path == "" {
		_, err := fmt.Fprintln(out, string(data))
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
