package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/POS-api/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isTransient indica fallas que el caller puede reintentar: timeouts, conexiones agotadas o caídas,
// conflictos de serialización y deadlocks.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "57014", // query_canceled (statement_timeout)
			"40001", // serialization_failure
			"40P01", // deadlock_detected
			"53300", // too_many_connections
			"57P01": // admin_shutdown
			return true
		}
		return strings.HasPrefix(pgErr.Code, "08") // connection_exception
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

// wrapErr envuelve err con el nombre de la operación y lo marca como transitorio si corresponde.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrTransientStore) {
		return err
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %s: %v", domain.ErrTransientStore, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
