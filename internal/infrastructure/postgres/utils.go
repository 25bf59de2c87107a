package postgres

import (
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
)

// Códigos SQLSTATE usados para traducir errores a errores de dominio.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeLockNotAvailable    = "55P03"
	codeNumericOutOfRange   = "22003"
)

// psql builder con placeholders $n.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func pgCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	if code, _ := pgCode(err); code != "" {
		return code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// isConstraint violación de la restricción con ese nombre.
func isConstraint(err error, code, constraint string) bool {
	c, name := pgCode(err)
	return c == code && name == constraint
}

func isForeignKeyViolation(err error) bool {
	code, _ := pgCode(err)
	return code == codeForeignKeyViolation
}

func isCheckViolation(err error) bool {
	code, _ := pgCode(err)
	return code == codeCheckViolation
}

// isLockTimeout se agotó lock_timeout esperando un bloqueo de fila (55P03).
func isLockTimeout(err error) bool {
	code, _ := pgCode(err)
	return code == codeLockNotAvailable
}

// isOutOfRange el resultado no cabe en la columna numérica (22003).
func isOutOfRange(err error) bool {
	code, _ := pgCode(err)
	return code == codeNumericOutOfRange
}
