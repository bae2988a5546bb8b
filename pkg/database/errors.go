package database

import (
	"errors"
	"fmt"
	"strings"

	"anoa.com/studentms/pkg/apperror"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// UniqueViolation reports whether err is a unique constraint violation and
// returns what the driver says about the offending constraint: the constraint
// name on postgres, the column list on sqlite.
func UniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation {
			return pgErr.ConstraintName, true
		}
		return "", false
	}

	msg := err.Error()
	if i := strings.Index(msg, "UNIQUE constraint failed:"); i >= 0 {
		return strings.TrimSpace(msg[i+len("UNIQUE constraint failed:"):]), true
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	return "", false
}

// ForeignKeyViolation reports whether err was raised by a foreign key check.
func ForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}

	return errors.Is(err, gorm.ErrForeignKeyViolated) ||
		strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// Translate maps constraint violations onto the apperror taxonomy. A unique
// violation whose constraint mentions one of fields becomes a ValidationError
// naming that field; any other unique or foreign key violation is a conflict.
func Translate(err error, fields ...string) error {
	if err == nil {
		return nil
	}

	if constraint, ok := UniqueViolation(err); ok {
		for _, field := range fields {
			if strings.Contains(constraint, field) {
				return apperror.Invalid(field, "already exists")
			}
		}
		return fmt.Errorf("%w: %v", apperror.ErrConflict, err)
	}

	if ForeignKeyViolation(err) {
		return fmt.Errorf("%w: still referenced", apperror.ErrConflict)
	}
	return err
}

// NotFound converts gorm.ErrRecordNotFound into apperror.ErrNotFound.
func NotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, apperror.ErrNotFound)
	}
	return err
}
