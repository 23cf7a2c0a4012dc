package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/robocode-api/internal/application/counter"
	"github.com/jhoicas/robocode-api/internal/domain/repository"
)

var _ counter.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con el repositorio atado a la tx y hace Commit o Rollback.
// Todo error devuelto es un *domain.StoreError (o el ValidationError que fn haya devuelto),
// y la transacción ya está revertida.
func (r *TxRunner) Run(ctx context.Context, fn func(repo repository.CounterRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storeError("begin transaction", err)
	}
	// El Rollback debe llegar al servidor aunque ctx ya esté cancelado; tras Commit es un no-op.
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(NewCounterRepository(tx)); err != nil {
		return storeError("counter transaction", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return storeError("commit transaction", err)
	}
	return nil
}
