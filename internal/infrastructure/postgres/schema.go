package postgres

import (
	"context"

	"github.com/jhoicas/robocode-api/internal/application/counter"
)

var _ counter.SchemaBootstrapper = (*Schema)(nil)

const createCountersTable = `
	CREATE TABLE IF NOT EXISTS counters (
		category TEXT PRIMARY KEY,
		count    INTEGER NOT NULL DEFAULT 0
	)`

// Schema crea la única tabla del servicio.
type Schema struct {
	q Querier
}

// NewSchema construye el bootstrapper. Pasar pool.
func NewSchema(q Querier) *Schema {
	return &Schema{q: q}
}

// EnsureSchema es idempotente. Dos procesos arrancando a la vez pueden chocar en el catálogo
// (23505 sobre pg_type o 42P07) aun con IF NOT EXISTS; en ese caso la tabla ya existe.
func (s *Schema) EnsureSchema(ctx context.Context) error {
	if _, err := s.q.Exec(ctx, createCountersTable); err != nil {
		if isUniqueViolation(err) || isDuplicateTable(err) {
			return nil
		}
		return storeError("ensure schema", err)
	}
	return nil
}
