package persistence

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// pgUniqueViolation is the Postgres error code for a unique constraint breach
const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint breach,
// optionally limited to one Postgres constraint name. The production
// connection is pgx-backed, so a breach arrives as *pgconn.PgError; the
// migrate runner still speaks lib/pq. The repository tests run on SQLite,
// which surfaces the breach as gorm.ErrDuplicatedKey or a plain
// "UNIQUE constraint failed" message.
func isUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return constraint == "" || pgErr.ConstraintName == constraint
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return constraint == "" || pqErr.Constraint == constraint
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
