package store

import (
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/vinizap/lumi-notes/domain"
)

// classify turns connection level failures and a not yet migrated schema into
// domain Unavailable errors and passes everything else through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrBadConn) {
		return domain.Unavailable(err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrIoErr:
			return domain.Unavailable(err)
		case sqlite3.ErrError:
			// The schema is missing until migrations have run.
			if strings.Contains(sqliteErr.Error(), "no such table") {
				return domain.Unavailable(err)
			}
		}
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return domain.Unavailable(err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return domain.Unavailable(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.Unavailable(err)
	}
	return err
}

// uniqueViolation reports whether err is a unique constraint failure and, when
// it can tell, which users column caused it.
func uniqueViolation(err error) (column string, ok bool) {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		msg := sqliteErr.Error()
		switch {
		case strings.Contains(msg, "users.username"):
			return "username", true
		case strings.Contains(msg, "users.email"):
			return "email", true
		}
		return "", true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch pgErr.ConstraintName {
		case "users_username_key":
			return "username", true
		case "users_email_key":
			return "email", true
		}
		return "", true
	}
	return "", false
}
