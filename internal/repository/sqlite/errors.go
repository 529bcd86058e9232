package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/skillgig-backend/internal/apperror"
)

// isUniqueViolation reports whether err is a UNIQUE (or PRIMARY KEY)
// constraint failure.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// uniqueField extracts the column from "UNIQUE constraint failed: users.email".
func uniqueField(err error) string {
	msg := err.Error()
	idx := strings.LastIndex(msg, "failed: ")
	if idx < 0 {
		return ""
	}
	col := msg[idx+len("failed: "):]
	if dot := strings.IndexByte(col, '.'); dot >= 0 {
		col = col[dot+1:]
	}
	if end := strings.IndexAny(col, " ,("); end >= 0 {
		col = col[:end]
	}
	return col
}

// requireAffected turns "zero rows changed" into apperror.ErrNotFound.
func requireAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
