package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrStore        = errors.New("fallo del almacén de contadores")
)

// Clases de StoreError. Permiten al borde (HTTP, CLI) distinguir una caída del backend
// de un timeout de bloqueo sin inspeccionar errores del driver.
const (
	StoreUnavailable = "unavailable"
	StoreLockTimeout = "lock_timeout"
	StoreCanceled    = "canceled"
	StoreQuery       = "query"
)

// ValidationError indica una entrada inválida del llamador. Se devuelve antes de tocar la base de datos.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// StoreError indica que la unidad de trabajo no pudo completarse.
// Cuando se devuelve, la transacción ya fue revertida.
type StoreError struct {
	Op   string
	Kind string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s [%s]", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrStore).
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// StoreErrorKind devuelve la clase del StoreError contenido en err, o "" si no hay ninguno.
func StoreErrorKind(err error) string {
	var sErr *StoreError
	if errors.As(err, &sErr) {
		return sErr.Kind
	}
	return ""
}
