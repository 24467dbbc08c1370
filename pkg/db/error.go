package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	// PostgreSQL 23505, SQLite 2067.
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

func IsForeignKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := err.Error()
	// PostgreSQL 23503, SQLite 787.
	return strings.Contains(msg, "violates foreign key constraint") ||
		strings.Contains(msg, "FOREIGN KEY constraint failed")
}

func IsCheckErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	// PostgreSQL 23514 and 23502, SQLite 275 and 1299.
	return strings.Contains(msg, "violates check constraint") ||
		strings.Contains(msg, "violates not-null constraint") ||
		strings.Contains(msg, "CHECK constraint failed") ||
		strings.Contains(msg, "NOT NULL constraint failed")
}

// IsIntegrityErr reports whether err is any constraint violation.
func IsIntegrityErr(err error) bool {
	return IsDuplicateKeyErr(err) || IsForeignKeyErr(err) || IsCheckErr(err)
}
