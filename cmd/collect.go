// -- cmd/collect.go --
package cmd

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scaletuner/api/schemas"
	"github.com/xkilldash9x/scaletuner/internal/config"
	"github.com/xkilldash9x/scaletuner/internal/observability"
	"github.com/xkilldash9x/scaletuner/internal/usagedata"
)

const (
	// collectChannelBuffer absorbs bursts between the tailer and the flush loop.
	collectChannelBuffer = 256

	// maxPendingCollect caps the retry buffer when the store is unreachable.
	// Oldest records are dropped past this point.
	maxPendingCollect = 10000
)

// newCollectCmd creates and configures the `collect` command.
func newCollectCmd(st *rootState) *cobra.Command {
	var feedPath string

	collectCmd := &cobra.Command{
		Use:   "collect",
		Short: "Tail a sample feed and archive records to the store",
		Long: `Collect tails a JSONL feed of labeled training samples and archives
well-formed records to the postgres store in batches. It runs until
interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.Config()
			if err != nil {
				return err
			}
			logger := observability.GetLogger()
			applyCollectFlagOverrides(cmd, cfg)

			if feedPath == "" {
				feedPath = filepath.Join(cfg.Data().Dir, "samples.jsonl")
			}
			return runCollect(cmd.Context(), logger, cfg, feedPath)
		},
	}

	collectCmd.Flags().StringVarP(&feedPath, "feed", "f", "", "Feed file to tail (default <data.dir>/samples.jsonl).")
	collectCmd.Flags().Bool("store", false, "Force-enable the sample store for this run.")

	return collectCmd
}

// applyCollectFlagOverrides maps changed flags onto the resolved config.
func applyCollectFlagOverrides(cmd *cobra.Command, cfg config.Interface) {
	if cmd.Flags().Changed("store") {
		if on, err := cmd.Flags().GetBool("store"); err == nil && on {
			cfg.SetStoreEnabled(true)
		}
	}
}

// runCollect wires the feed follower to the store and blocks until the
// context is cancelled.
func runCollect(ctx context.Context, logger *zap.Logger, cfg config.Interface, feedPath string) error {
	handle, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer handle.Close()

	records := make(chan schemas.TrainingData, collectChannelBuffer)
	follower, err := usagedata.NewFollower(logger, feedPath, records, (*schemas.TrainingData).WellFormed)
	if err != nil {
		return err
	}
	if err := follower.Start(ctx); err != nil {
		return err
	}

	logger.Info("Collector started",
		zap.String("feed", feedPath),
		zap.Duration("flush_interval", cfg.Data().FollowFlushInterval))

	return collectLoop(ctx, logger, records, cfg.Data().FollowFlushInterval, handle.Store.SaveSamples)
}

// collectLoop buffers feed records and flushes them in batches: every
// interval, and a final time on shutdown. Failed flushes are retried on the
// next tick with the buffer capped at maxPendingCollect.
func collectLoop(ctx context.Context, logger *zap.Logger, records <-chan schemas.TrainingData, interval time.Duration, flush func(context.Context, []schemas.TrainingData) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending []schemas.TrainingData
	flushPending := func(fctx context.Context) {
		if len(pending) == 0 {
			return
		}
		if err := flush(fctx, pending); err != nil {
			logger.Error("Failed to archive sample batch",
				zap.Int("pending", len(pending)),
				zap.Error(err))
			if over := len(pending) - maxPendingCollect; over > 0 {
				logger.Warn("Dropping oldest pending samples", zap.Int("dropped", over))
				pending = pending[over:]
			}
			return
		}
		logger.Debug("Archived sample batch", zap.Int("samples", len(pending)))
		pending = nil
	}

	for {
		select {
		case <-ctx.Done():
			// One last flush on a fresh context; the run context is gone.
			fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flushPending(fctx)
			cancel()
			logger.Info("Collector stopped.")
			return nil

		case rec, ok := <-records:
			if !ok {
				flushPending(ctx)
				logger.Info("Collector feed closed.")
				return nil
			}
			pending = append(pending, rec)

		case <-ticker.C:
			flushPending(ctx)
		}
	}
}
