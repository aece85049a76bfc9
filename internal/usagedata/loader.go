// internal/usagedata/loader.go

// Package usagedata reads component usage observations and labeled training
// examples from JSONL feeds: one JSON document per line, blank lines ignored.
// Batch loads are strict and fail with a line number; the live follower skips
// bad lines and keeps the feed flowing.
package usagedata

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"

	json "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/scaletuner/api/schemas"
)

const (
	// Usage records nest per-breakpoint maps and can exceed the scanner's
	// default 64K token limit.
	scanBufferInitial = 64 * 1024
	scanBufferMax     = 4 * 1024 * 1024

	// maxConcurrentLoads bounds the file fan-out in LoadUsageFiles.
	maxConcurrentLoads = 4
)

// LoadUsageFile reads one JSONL file of component usage records. A line that
// fails to decode, or that violates the collector invariants, fails the whole
// load with its line number.
func LoadUsageFile(path string) ([]schemas.ComponentUsageData, error) {
	var records []schemas.ComponentUsageData
	err := scanJSONL(path, func(lineNo int, data []byte) error {
		var rec schemas.ComponentUsageData
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("line %d: decoding usage record: %w", lineNo, err)
		}
		if err := rec.WellFormed(); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// LoadUsageFiles loads several usage feeds concurrently and returns their
// records concatenated in path order.
func LoadUsageFiles(ctx context.Context, paths []string) ([]schemas.ComponentUsageData, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	batches := make([][]schemas.ComponentUsageData, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)

	for i, path := range paths {
		i, path := i, path // Capture loop variables.
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			batch, err := LoadUsageFile(path)
			if err != nil {
				return err
			}
			batches[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []schemas.ComponentUsageData
	for _, batch := range batches {
		merged = append(merged, batch...)
	}
	return merged, nil
}

// LoadTrainingFile reads one JSONL file of labeled training examples with the
// same strictness as LoadUsageFile.
func LoadTrainingFile(path string) ([]schemas.TrainingData, error) {
	var examples []schemas.TrainingData
	err := scanJSONL(path, func(lineNo int, data []byte) error {
		var ex schemas.TrainingData
		if err := json.Unmarshal(data, &ex); err != nil {
			return fmt.Errorf("line %d: decoding training example: %w", lineNo, err)
		}
		if err := ex.WellFormed(); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		examples = append(examples, ex)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return examples, nil
}

// LoadTrainingFiles loads several training files concurrently and returns
// their examples concatenated in path order.
func LoadTrainingFiles(ctx context.Context, paths []string) ([]schemas.TrainingData, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	batches := make([][]schemas.TrainingData, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)

	for i, path := range paths {
		i, path := i, path // Capture loop variables.
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			batch, err := LoadTrainingFile(path)
			if err != nil {
				return err
			}
			batches[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []schemas.TrainingData
	for _, batch := range batches {
		merged = append(merged, batch...)
	}
	return merged, nil
}

// scanJSONL walks a file line by line, calling fn with a 1-based line number
// for every non-blank line. The first fn error aborts the scan.
func scanJSONL(path string, fn func(int, []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, scanBufferInitial), scanBufferMax)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}
