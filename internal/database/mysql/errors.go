package mysql

import (
	"errors"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/clientbook/internal/errs"
)

// MySQL error numbers
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errDuplicateEntry    = 1062
	errNoReferencedRow   = 1452
	errRowIsReferenced   = 1451
	errCheckViolated     = 3819
	errDataTooLong       = 1406
	errBadNull           = 1048
	errBadFieldError     = 1054
	errParseError        = 1064
	errNoSuchTable       = 1146
	errDBAccessDenied    = 1044
	errAccessDenied      = 1045
	errUnknownDatabase   = 1049
	errTooManyConns      = 1040
	errUserTooManyConns  = 1203
	errQueryInterrupted  = 1317
	errLockWaitTimeout   = 1205
	errTableAccessDenied = 1142
)

// mapError is used before a stdsql.DB exists (sql.Open failures).
func mapError(err error, msg string) *errs.Error {
	if kind, ok := classify(err); ok {
		return errs.Wrap(kind, msg, err)
	}
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// classify maps go-sql-driver/mysql errors to an ErrKind.
func classify(err error) (errs.ErrKind, bool) {
	var mysqlErr *gomysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return errs.ErrKindUnknown, false
	}
	return classifyMySQLCode(mysqlErr.Number), true
}

// classifyMySQLCode maps MySQL error numbers to ErrKind.
func classifyMySQLCode(code uint16) errs.ErrKind {
	switch code {
	case errDuplicateEntry, errNoReferencedRow, errRowIsReferenced:
		return errs.ErrKindConflict
	case errCheckViolated, errDataTooLong, errBadNull:
		return errs.ErrKindInvalidInput
	case errDBAccessDenied, errAccessDenied, errTableAccessDenied:
		return errs.ErrKindPermissionDenied
	case errUnknownDatabase, errTooManyConns, errUserTooManyConns:
		return errs.ErrKindConnectionFailed
	case errQueryInterrupted, errLockWaitTimeout:
		return errs.ErrKindTimeout
	case errBadFieldError, errParseError, errNoSuchTable:
		return errs.ErrKindQueryFailed
	default:
		return errs.ErrKindQueryFailed
	}
}
