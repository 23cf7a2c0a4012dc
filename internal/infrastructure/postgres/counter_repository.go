package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/robocode-api/internal/domain/entity"
	"github.com/jhoicas/robocode-api/internal/domain/repository"
)

var (
	_ repository.CounterRepository = (*CounterRepo)(nil)
	_ repository.CounterReader     = (*CounterRepo)(nil)
)

// CounterRepo implementación de CounterRepository y CounterReader sobre PostgreSQL (usable con pool o tx).
type CounterRepo struct {
	q Querier
}

// NewCounterRepository construye el adaptador de contadores. Pasar pool o tx (Querier).
// Los métodos de escritura solo tienen sentido con una tx.
func NewCounterRepository(q Querier) *CounterRepo {
	return &CounterRepo{q: q}
}

// GetForUpdate obtiene el contador y bloquea la fila para update (SELECT FOR UPDATE).
func (r *CounterRepo) GetForUpdate(ctx context.Context, category string) (*entity.Counter, error) {
	const q = `
		SELECT category, count
		FROM counters WHERE category = $1
		FOR UPDATE`
	c, err := scanCounter(r.q.QueryRow(ctx, q, category))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock counter: %w", err)
	}
	return c, nil
}

// Create inserta la fila. Si otra transacción ya la insertó, ON CONFLICT espera a que esa
// transacción termine y devuelve false sin error.
func (r *CounterRepo) Create(ctx context.Context, counter *entity.Counter) (bool, error) {
	const q = `
		INSERT INTO counters (category, count)
		VALUES ($1, $2)
		ON CONFLICT (category) DO NOTHING
		RETURNING count`
	var count int64
	err := r.q.QueryRow(ctx, q, counter.Category, counter.Count).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert counter: %w", err)
	}
	return true, nil
}

// Update fija el conteo. La fila debe estar bloqueada por GetForUpdate en la misma tx.
func (r *CounterRepo) Update(ctx context.Context, counter *entity.Counter) error {
	const q = `UPDATE counters SET count = $2 WHERE category = $1`
	tag, err := r.q.Exec(ctx, q, counter.Category, counter.Count)
	if err != nil {
		return fmt.Errorf("update counter: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("update counter %q: %d filas afectadas", counter.Category, tag.RowsAffected())
	}
	return nil
}

// GetByCategory lee el contador sin bloquear. nil, nil si no existe.
func (r *CounterRepo) GetByCategory(ctx context.Context, category string) (*entity.Counter, error) {
	const q = `SELECT category, count FROM counters WHERE category = $1`
	c, err := scanCounter(r.q.QueryRow(ctx, q, category))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get counter: %w", err)
	}
	return c, nil
}

func (r *CounterRepo) List(ctx context.Context, limit, offset int) ([]*entity.Counter, error) {
	const q = `
		SELECT category, count
		FROM counters
		ORDER BY category
		LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list counters: %w", err)
	}
	defer rows.Close()
	var list []*entity.Counter
	for rows.Next() {
		c, err := scanCounter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan counter: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *CounterRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM counters`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count counters: %w", err)
	}
	return n, nil
}

// pgxScanner abstrae pgx.Row y pgx.Rows para reutilizar scanCounter.
type pgxScanner interface {
	Scan(dest ...any) error
}

func scanCounter(row pgxScanner) (*entity.Counter, error) {
	var c entity.Counter
	if err := row.Scan(&c.Category, &c.Count); err != nil {
		return nil, err
	}
	return &c, nil
}
