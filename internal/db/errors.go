package db

import (
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindUniqueViolation
	KindForeignKeyViolation
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindUniqueViolation:
		return "unique_violation"
	case KindForeignKeyViolation:
		return "foreign_key_violation"
	case KindUnavailable:
		return "unavailable"
	default:
		return "other"
	}
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Classify maps a driver error from either PostgreSQL or SQLite onto the
// small set of kinds the services react to.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindOther
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return KindUniqueViolation
		case pgForeignKeyViolation:
			return KindForeignKeyViolation
		}
		return KindOther
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return classifySQLite(liteErr)
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return KindUnavailable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, syscall.ECONNREFUSED) {
		return KindUnavailable
	}
	return KindOther
}

func classifySQLite(err *sqlite.Error) ErrorKind {
	switch err.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return KindUniqueViolation
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return KindForeignKeyViolation
	case sqlite3.SQLITE_CANTOPEN:
		return KindUnavailable
	}
	if err.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		msg := strings.ToUpper(err.Error())
		switch {
		case strings.Contains(msg, "UNIQUE"):
			return KindUniqueViolation
		case strings.Contains(msg, "FOREIGN KEY"):
			return KindForeignKeyViolation
		}
	}
	return KindOther
}
