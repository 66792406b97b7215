package database

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"modernc.org/sqlite"

	"github.com/vietddude/lazygate/internal/core/domain"
)

// Classify tags err as a database failure of driver. Errors already tagged
// are returned unchanged.
func Classify(driver string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := domain.AsDriverError(err); ok {
		return err
	}

	switch driver {
	case DriverPgx, DriverPostgres, DriverSQLite:
		return domain.NewDriverError(driver, sqlCategory(err), err)
	case DriverMongo:
		return domain.NewDriverError(driver, mongoCategory(err), err)
	case DriverRedis:
		return domain.NewDriverError(driver, redisCategory(err), err)
	default:
		return domain.NewDriverError(driver, genericCategory(err), err)
	}
}

// Detect tags errors that handlers get back from the raw handles (DB, Client,
// Database). The driver is recognised from the error's type; failing that, a
// known failure marker in the message tags it with DriverUnknown. Empty-result
// sentinels and unrecognised errors are returned unchanged.
func Detect(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := domain.AsDriverError(err); ok {
		return err
	}
	if isEmptyResult(err) {
		return err
	}
	if driver, ok := driverOf(err); ok {
		return Classify(driver, err)
	}
	return domain.TagByMessage(err)
}

// driverOf reports which driver produced err, if any.
func driverOf(err error) (string, bool) {
	var (
		pgErr      *pgconn.PgError
		connectErr *pgconn.ConnectError
		pqErr      *pq.Error
		sqliteErr  *sqlite.Error
		serverErr  mongo.ServerError
		redisErr   redis.Error
	)
	switch {
	case errors.As(err, &pgErr), errors.As(err, &connectErr), pgconn.Timeout(err):
		return DriverPgx, true
	case errors.As(err, &pqErr):
		return DriverPostgres, true
	case errors.As(err, &sqliteErr):
		return DriverSQLite, true
	case errors.As(err, &serverErr), mongo.IsNetworkError(err), errors.Is(err, mongo.ErrClientDisconnected):
		return DriverMongo, true
	case errors.As(err, &redisErr), errors.Is(err, redis.ErrClosed):
		return DriverRedis, true
	}
	return "", false
}

// isEmptyResult matches the "nothing found" sentinels, which are not failures.
func isEmptyResult(err error) bool {
	return errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, mongo.ErrNoDocuments) ||
		errors.Is(err, redis.Nil)
}

func sqlCategory(err error) domain.FailureCategory {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return sqlStateCategory(pgErr.Code)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return sqlStateCategory(string(pqErr.Code))
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		if cat, ok := domain.NetworkCategory(err); ok {
			return cat
		}
		return domain.FailureCategoryUnavailable
	}
	if pgconn.Timeout(err) {
		return domain.FailureCategoryTimeout
	}
	return genericCategory(err)
}

// sqlStateCategory maps a Postgres SQLSTATE to a failure category.
func sqlStateCategory(code string) domain.FailureCategory {
	switch {
	case strings.HasPrefix(code, "08"): // connection_exception class
		return domain.FailureCategoryUnavailable
	case code == "57P01", code == "57P03", code == "53300":
		// admin_shutdown, cannot_connect_now, too_many_connections
		return domain.FailureCategoryUnavailable
	case code == "57014": // query_canceled, raised by statement_timeout
		return domain.FailureCategoryTimeout
	default:
		return domain.FailureCategoryOther
	}
}

func mongoCategory(err error) domain.FailureCategory {
	if cat, ok := domain.NetworkCategory(err); ok && cat == domain.FailureCategoryUnavailable {
		return cat
	}
	if mongo.IsTimeout(err) {
		return domain.FailureCategoryTimeout
	}
	if mongo.IsNetworkError(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return domain.FailureCategoryUnavailable
	}
	return genericCategory(err)
}

func redisCategory(err error) domain.FailureCategory {
	if errors.Is(err, redis.ErrClosed) {
		return domain.FailureCategoryUnavailable
	}
	return genericCategory(err)
}

func genericCategory(err error) domain.FailureCategory {
	if cat, ok := domain.NetworkCategory(err); ok {
		return cat
	}
	return domain.FailureCategoryOther
}
