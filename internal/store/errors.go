package store

import "strings"

// IsUniqueViolation reports whether err is a SQLite unique-constraint failure
// touching the given table or index. The driver exposes constraint failures
// only through the error text, so the match is textual.
func IsUniqueViolation(err error, name string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, name)
}

// IsBusy reports whether err is a transient SQLite lock error worth retrying.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
