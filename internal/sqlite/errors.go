package sqlite

import (
	"database/sql"
	"errors"
	"strings"
)

// IsConnError reports whether err means the database handle is no longer
// usable and should be reopened.
func IsConnError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}
	return strings.Contains(err.Error(), "sql: database is closed")
}
