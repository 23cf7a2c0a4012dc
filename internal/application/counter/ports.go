package counter

import (
	"context"

	"github.com/jhoicas/robocode-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción de BD con un repositorio atado a ella.
// Commit si fn devuelve nil; Rollback en cualquier otra salida.
type TxRunner interface {
	Run(ctx context.Context, fn func(repo repository.CounterRepository) error) error
}

// SchemaBootstrapper crea la tabla de contadores si no existe. Debe ser idempotente.
type SchemaBootstrapper interface {
	EnsureSchema(ctx context.Context) error
}
