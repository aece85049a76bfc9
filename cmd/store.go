// -- cmd/store.go --
package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scaletuner/internal/config"
	"github.com/xkilldash9x/scaletuner/internal/store"
)

// storeHandle couples a sample store with the pool it borrows connections
// from, so commands can close both with one call.
type storeHandle struct {
	Store *store.Store
	pool  *pgxpool.Pool
}

func (h *storeHandle) Close() {
	if h.pool != nil {
		h.pool.Close()
	}
}

// openStore connects to postgres and prepares the sample store schema.
func openStore(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*storeHandle, error) {
	sc := cfg.Store()
	if !sc.Enabled {
		return nil, fmt.Errorf("the sample store is disabled; set store.enabled or pass --store")
	}

	pool, err := pgxpool.New(ctx, sc.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	st, err := store.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize sample store: %w", err)
	}
	if err := st.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &storeHandle{Store: st, pool: pool}, nil
}
