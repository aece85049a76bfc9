// internal/usagedata/follower.go
package usagedata

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpcloud/tail"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// Follower tails a live JSONL feed and delivers each decoded record as
// collectors append it. A line that does not decode, or fails the structural
// check, is logged and skipped so a single bad write cannot stall a
// long-running feed.
type Follower[T any] struct {
	// logger is the application's logger instance.
	logger *zap.Logger
	// path is the JSONL feed file to follow.
	path string
	// records receives every successfully decoded record.
	records chan<- T
	// check validates a decoded record before delivery. Nil skips the check.
	check func(*T) error
}

// NewFollower wires a follower to a feed path and a delivery channel. The
// check function, when given, rejects structurally invalid records; pass the
// record type's WellFormed method.
func NewFollower[T any](logger *zap.Logger, path string, records chan<- T, check func(*T) error) (*Follower[T], error) {
	if path == "" {
		return nil, fmt.Errorf("feed path is required")
	}
	if records == nil {
		return nil, fmt.Errorf("records channel is required")
	}

	return &Follower[T]{
		logger:  logger.Named("feed-follower"),
		path:    path,
		records: records,
		check:   check,
	}, nil
}

// Start begins following the feed from its current end. It returns an error
// if the file cannot be tailed; afterwards the read loop runs in its own
// goroutine until the context is cancelled or the tailer closes.
func (f *Follower[T]) Start(ctx context.Context) error {
	f.logger.Info("Starting feed follower...", zap.String("feed", f.path))

	t, err := tail.TailFile(f.path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Location:  &tail.SeekInfo{Offset: 0, Whence: 2},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to tail feed: %w", err)
	}

	go f.followLoop(ctx, t)
	return nil
}

// The core loop that reads feed lines and decodes records.
func (f *Follower[T]) followLoop(ctx context.Context, t *tail.Tail) {
	defer func() {
		t.Stop()
		t.Cleanup()
	}()

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("Stopping feed follower.")
			return

		case line, ok := <-t.Lines:
			if !ok {
				f.logger.Info("Feed tailer channel closed.")
				return
			}
			if line.Err != nil {
				f.logger.Warn("Error reading from feed", zap.Error(line.Err))
				continue
			}

			text := strings.TrimSpace(line.Text)
			if text == "" {
				continue
			}

			var rec T
			if err := json.Unmarshal([]byte(text), &rec); err != nil {
				f.logger.Warn("Skipping undecodable feed line", zap.Error(err))
				continue
			}
			if f.check != nil {
				if err := f.check(&rec); err != nil {
					f.logger.Warn("Skipping malformed feed record", zap.Error(err))
					continue
				}
			}

			select {
			case f.records <- rec:
			case <-ctx.Done():
				f.logger.Warn("Context cancelled while delivering feed record")
			}
		}
	}
}
