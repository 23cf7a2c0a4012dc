package repository

import (
	"context"

	"github.com/jhoicas/robocode-api/internal/domain/entity"
)

// CounterRepository define el puerto de escritura de contadores.
// Solo debe usarse dentro de una transacción (ver counter.TxRunner).
type CounterRepository interface {
	// GetForUpdate bloquea la fila de la categoría (SELECT FOR UPDATE).
	// Devuelve nil, nil si la categoría aún no existe.
	GetForUpdate(ctx context.Context, category string) (*entity.Counter, error)

	// Create inserta la fila si no existe. Devuelve false si otra transacción la creó primero.
	Create(ctx context.Context, counter *entity.Counter) (bool, error)

	Update(ctx context.Context, counter *entity.Counter) error
}

// CounterReader define las consultas de solo lectura (sin bloqueo).
type CounterReader interface {
	GetByCategory(ctx context.Context, category string) (*entity.Counter, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Counter, error)
	Count(ctx context.Context) (int, error)
}
