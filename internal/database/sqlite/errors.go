package sqlite

import (
	"errors"

	"github.com/koustreak/clientbook/internal/errs"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func mapError(err error, msg string) *errs.Error {
	if kind, ok := classify(err); ok {
		return errs.Wrap(kind, msg, err)
	}
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// classify maps SQLite extended result codes to an ErrKind.
func classify(err error) (errs.ErrKind, bool) {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return errs.ErrKindUnknown, false
	}
	return classifyCode(sqliteErr.Code()), true
}

func classifyCode(code int) errs.ErrKind {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE,
		sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
		sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return errs.ErrKindConflict
	case sqlite3.SQLITE_CONSTRAINT_CHECK,
		sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return errs.ErrKindInvalidInput
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_INTERRUPT:
		return errs.ErrKindTimeout
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB:
		return errs.ErrKindConnectionFailed
	case sqlite3.SQLITE_PERM, sqlite3.SQLITE_AUTH, sqlite3.SQLITE_READONLY:
		return errs.ErrKindPermissionDenied
	}
	// primary code lives in the low byte of an extended code
	if code&0xff == sqlite3.SQLITE_CONSTRAINT {
		return errs.ErrKindInvalidInput
	}
	return errs.ErrKindQueryFailed
}
