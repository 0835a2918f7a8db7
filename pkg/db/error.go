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

	// PostgreSQL (error code 23505)
	if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
		return true
	}

	// MySQL (error code 1062)
	if strings.Contains(err.Error(), "Error 1062") {
		return true
	}

	// SQLite (error code 2067)
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return true
	}

	return false
}

// IsTransientErr reports whether err looks like write contention the caller
// may retry: lock waits, busy handles, serialization conflicts.
func IsTransientErr(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	// SQLite (error codes 5 and 6)
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked") {
		return true
	}

	// PostgreSQL (error codes 40001 and 40P01)
	if strings.Contains(msg, "could not serialize access") || strings.Contains(msg, "deadlock detected") {
		return true
	}

	// MySQL (error codes 1205 and 1213)
	if strings.Contains(msg, "Lock wait timeout exceeded") || strings.Contains(msg, "Deadlock found") {
		return true
	}

	return false
}
