// -- cmd/collect_test.go --
package cmd

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scaletuner/api/schemas"
)

// recordingFlusher is a programmable stand-in for the store's batch writer.
type recordingFlusher struct {
	mu      sync.Mutex
	fail    bool
	batches [][]schemas.TrainingData
	calls   int
}

func (f *recordingFlusher) flush(ctx context.Context, batch []schemas.TrainingData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return assert.AnError
	}
	cp := make([]schemas.TrainingData, len(batch))
	copy(cp, batch)
	f.batches = append(f.batches, cp)
	return nil
}

func (f *recordingFlusher) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *recordingFlusher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// flushedIDs flattens all recorded batches into delivery order.
func (f *recordingFlusher) flushedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, batch := range f.batches {
		for _, rec := range batch {
			ids = append(ids, rec.ID)
		}
	}
	return ids
}

func TestCollectLoopFlushesBatches(t *testing.T) {
	defer goleak.VerifyNone(t)
	resetForTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := make(chan schemas.TrainingData)
	flusher := &recordingFlusher{}
	done := make(chan error, 1)
	go func() {
		done <- collectLoop(ctx, zaptest.NewLogger(t), records, 15*time.Millisecond, flusher.flush)
	}()

	records <- trainingFixture("rec-0", 1)
	records <- trainingFixture("rec-1", 2)
	records <- trainingFixture("rec-2", 3)
	require.Eventually(t, func() bool {
		return len(flusher.flushedIDs()) == 3
	}, 3*time.Second, 10*time.Millisecond)

	records <- trainingFixture("rec-3", 4)
	require.Eventually(t, func() bool {
		return len(flusher.flushedIDs()) == 4
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"rec-0", "rec-1", "rec-2", "rec-3"}, flusher.flushedIDs())
}

func TestCollectLoopFinalFlushOnShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)
	resetForTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := make(chan schemas.TrainingData)
	flusher := &recordingFlusher{}
	done := make(chan error, 1)
	go func() {
		// An hour-long interval means only the shutdown path can flush.
		done <- collectLoop(ctx, zaptest.NewLogger(t), records, time.Hour, flusher.flush)
	}()

	records <- trainingFixture("late-0", 1)
	records <- trainingFixture("late-1", 2)
	cancel()

	require.NoError(t, <-done)
	assert.Equal(t, []string{"late-0", "late-1"}, flusher.flushedIDs())
}

func TestCollectLoopRetriesFailedFlush(t *testing.T) {
	defer goleak.VerifyNone(t)
	resetForTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := make(chan schemas.TrainingData)
	flusher := &recordingFlusher{}
	flusher.setFail(true)
	done := make(chan error, 1)
	go func() {
		done <- collectLoop(ctx, zaptest.NewLogger(t), records, 15*time.Millisecond, flusher.flush)
	}()

	records <- trainingFixture("retry-0", 1)
	records <- trainingFixture("retry-1", 2)

	// Let at least one flush attempt fail, then recover the store.
	require.Eventually(t, func() bool {
		return flusher.callCount() >= 1
	}, 3*time.Second, 10*time.Millisecond)
	flusher.setFail(false)

	require.Eventually(t, func() bool {
		return len(flusher.flushedIDs()) == 2
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"retry-0", "retry-1"}, flusher.flushedIDs())
}

func TestCollectLoopStopsWhenFeedCloses(t *testing.T) {
	defer goleak.VerifyNone(t)
	resetForTest(t)

	records := make(chan schemas.TrainingData)
	flusher := &recordingFlusher{}
	done := make(chan error, 1)
	go func() {
		done <- collectLoop(context.Background(), zaptest.NewLogger(t), records, time.Hour, flusher.flush)
	}()

	records <- trainingFixture("closing-0", 1)
	close(records)

	require.NoError(t, <-done)
	assert.Equal(t, []string{"closing-0"}, flusher.flushedIDs())
}
