// internal/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scaletuner/api/schemas"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store is the PostgreSQL archive for labeled training samples. Samples are
// stored whole as JSONB payloads; the indexed columns exist for ordering,
// provenance filtering, and dedup.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

const createSamplesTableSQL = `
        CREATE TABLE IF NOT EXISTS training_samples (
            id          TEXT PRIMARY KEY,
            source      TEXT NOT NULL,
            payload     JSONB NOT NULL,
            observed_at TIMESTAMPTZ NOT NULL,
            created_at  TIMESTAMPTZ NOT NULL
        );
    `

const createSamplesIndexSQL = `
        CREATE INDEX IF NOT EXISTS idx_training_samples_created_at
        ON training_samples (created_at);
    `

// EnsureSchema creates the sample table and its ordering index when they do
// not exist yet. Safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createSamplesTableSQL); err != nil {
		return fmt.Errorf("failed to create training_samples table: %w", err)
	}
	if _, err := s.pool.Exec(ctx, createSamplesIndexSQL); err != nil {
		return fmt.Errorf("failed to create training_samples index: %w", err)
	}
	return nil
}

const insertSampleSQL = `
        INSERT INTO training_samples (id, source, payload, observed_at, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE SET
            source = EXCLUDED.source,
            payload = EXCLUDED.payload,
            observed_at = EXCLUDED.observed_at;
    `

// SaveSample upserts one training sample. A sample without an ID is assigned
// one; the returned ID identifies the stored row either way.
func (s *Store) SaveSample(ctx context.Context, sample schemas.TrainingData) (string, error) {
	row, err := sampleRow(sample, time.Now())
	if err != nil {
		return "", err
	}

	if _, err := s.pool.Exec(ctx, insertSampleSQL, row...); err != nil {
		return "", fmt.Errorf("failed to insert training sample: %w", err)
	}
	id := row[0].(string)
	s.log.Debug("Archived training sample", zap.String("sample_id", id))
	return id, nil
}

// SaveSamples archives a batch of fresh training samples in one transaction.
// Unlike SaveSample this path does not resolve ID conflicts; callers hand it
// newly collected records.
func (s *Store) SaveSamples(ctx context.Context, samples []schemas.TrainingData) error {
	if len(samples) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([][]interface{}, len(samples))
	for i, sample := range samples {
		row, err := sampleRow(sample, now)
		if err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
		rows[i] = row
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after a successful commit reports ErrTxClosed; that is
		// the expected path, not a failure worth logging.
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"training_samples"},
		[]string{"id", "source", "payload", "observed_at", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy training samples: %w", err)
	}
	if int(copyCount) != len(samples) {
		return fmt.Errorf("mismatch in copied sample count: expected %d, got %d", len(samples), copyCount)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("Archived training samples", zap.Int("count", len(samples)))
	return nil
}

// sampleRow renders one sample into its column values: id, source, payload,
// observed_at, created_at. Missing IDs are assigned, zero observation times
// fall back to now, and all timestamps are stored in UTC.
func sampleRow(sample schemas.TrainingData, now time.Time) ([]interface{}, error) {
	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}
	if err := sample.WellFormed(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(sample)
	if err != nil {
		return nil, fmt.Errorf("failed to encode training sample %s: %w", sample.ID, err)
	}

	source := sample.Provenance.Source
	if source == "" {
		source = "unknown"
	}

	observedAt := sample.Provenance.Timestamp
	if observedAt.IsZero() {
		observedAt = now
	}

	return []interface{}{sample.ID, source, payload, observedAt.UTC(), now.UTC()}, nil
}

const selectSamplesSQL = `
        SELECT payload
        FROM training_samples
        ORDER BY created_at ASC, id ASC
    `

// LoadSamples returns archived samples in insertion order. A non-positive
// limit loads the full archive.
func (s *Store) LoadSamples(ctx context.Context, limit int) ([]schemas.TrainingData, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.pool.Query(ctx, selectSamplesSQL+" LIMIT $1;", limit)
	} else {
		rows, err = s.pool.Query(ctx, selectSamplesSQL+";")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query training samples: %w", err)
	}
	defer rows.Close()

	var samples []schemas.TrainingData
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan sample row: %w", err)
		}

		var sample schemas.TrainingData
		if err := json.Unmarshal(payload, &sample); err != nil {
			return nil, fmt.Errorf("failed to decode stored sample: %w", err)
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return samples, nil
}

const countSamplesSQL = `SELECT COUNT(*) FROM training_samples;`

// CountSamples reports how many samples the archive holds.
func (s *Store) CountSamples(ctx context.Context) (int64, error) {
	rows, err := s.pool.Query(ctx, countSamplesSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to count training samples: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("error during row iteration: %w", err)
		}
		return 0, fmt.Errorf("count query returned no rows")
	}

	var count int64
	if err := rows.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to scan sample count: %w", err)
	}
	return count, rows.Err()
}
