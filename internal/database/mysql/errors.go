package mysql

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/dominicus75/testtask/internal/errs"
)

// MySQL error numbers
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errTooManyConns    = 1040
	errDBAccessDenied  = 1044
	errAccessDenied    = 1045
	errUnknownDatabase = 1049
	errBadFieldError   = 1054
	errDuplicateEntry  = 1062
	errParseError      = 1064
	errNoSuchTable     = 1146
	errTableAccess     = 1142
	errRowIsReferenced = 1451
	errNoReferencedRow = 1452
	errConnRefused     = 2003
)

// mapError converts a driver error into an errs.Error. msg says what was
// being attempted.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, gomysql.ErrInvalidConn) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case errDuplicateEntry:
			return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("%s: duplicate entry", msg), err)
		case errNoReferencedRow, errRowIsReferenced:
			return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("%s: foreign key violation", msg), err)
		case errAccessDenied, errConnRefused, errUnknownDatabase, errTooManyConns:
			return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
		case errDBAccessDenied, errTableAccess:
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		case errBadFieldError, errParseError, errNoSuchTable:
			return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("%s: invalid query", msg), err)
		}
		return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
	}

	return errs.Wrap(errs.ErrKindUnknown, msg, err)
}
