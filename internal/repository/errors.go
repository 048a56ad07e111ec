package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"

	"github.com/lib/pq"

	"github.com/hyeongseol/academy-api/pkg/retry"
)

// transientPgCodes lists the Postgres failures worth another attempt:
// connection exhaustion, shutdown races and serialization conflicts.
var transientPgCodes = map[pq.ErrorCode]bool{
	"08000": true, // connection_exception
	"08003": true, // connection_does_not_exist
	"08006": true, // connection_failure
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"53300": true, // too_many_connections
	"57P03": true, // cannot_connect_now
}

// storeError marks retryable store failures so the service-level retry
// policy backs off instead of surfacing them on the first attempt.
// Everything else, sql.ErrNoRows included, passes through untouched.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if transientPgCodes[pqErr.Code] {
			return &retry.Transient{Err: err}
		}
		return err
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &retry.Transient{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &retry.Transient{Err: err}
	}
	return err
}
