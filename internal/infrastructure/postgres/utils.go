package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/robocode-api/internal/domain"
)

// SQLSTATE relevantes.
const (
	codeUniqueViolation = "23505"
	codeDuplicateTable  = "42P07"
	codeLockNotAvail    = "55P03"
	codeQueryCanceled   = "57014"
	classConnection     = "08"
	classResources      = "53"
	classAdminShutdown  = "57P"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

func isDuplicateTable(err error) bool {
	return pgCode(err) == codeDuplicateTable
}

// isLockTimeout: lock_timeout agotado esperando el bloqueo de fila.
func isLockTimeout(err error) bool {
	return pgCode(err) == codeLockNotAvail
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// classify traduce un error del driver a una clase de domain.StoreError.
func classify(err error) string {
	code := pgCode(err)
	switch {
	case code == codeLockNotAvail:
		return domain.StoreLockTimeout
	case code == codeQueryCanceled,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return domain.StoreCanceled
	case strings.HasPrefix(code, classConnection),
		strings.HasPrefix(code, classResources),
		strings.HasPrefix(code, classAdminShutdown):
		return domain.StoreUnavailable
	case code == "" && isConnectionError(err):
		return domain.StoreUnavailable
	default:
		return domain.StoreQuery
	}
}

func isConnectionError(err error) bool {
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr) || pgconn.Timeout(err)
}

// storeError envuelve err como *domain.StoreError salvo que ya sea un error de dominio.
func storeError(op string, err error) error {
	var vErr *domain.ValidationError
	var sErr *domain.StoreError
	if errors.As(err, &vErr) || errors.As(err, &sErr) {
		return err
	}
	return &domain.StoreError{Op: op, Kind: classify(err), Err: err}
}
