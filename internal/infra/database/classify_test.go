package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vietddude/lazygate/internal/core/domain"
)

func TestClassify(t *testing.T) {
	refused := &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: os.NewSyscallError("connect", syscall.ECONNREFUSED),
	}

	tests := []struct {
		driver string
		err    error
		expect domain.FailureCategory
	}{
		{DriverPgx, &pgconn.PgError{Code: "08006", Message: "connection failure"}, domain.FailureCategoryUnavailable},
		{DriverPgx, &pgconn.PgError{Code: "57P03", Message: "the database system is starting up"}, domain.FailureCategoryUnavailable},
		{DriverPgx, &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}, domain.FailureCategoryTimeout},
		{DriverPgx, &pgconn.PgError{Code: "23505", Message: "duplicate key"}, domain.FailureCategoryOther},
		{DriverPostgres, &pq.Error{Code: "08001"}, domain.FailureCategoryUnavailable},
		{DriverPostgres, &pq.Error{Code: "57014"}, domain.FailureCategoryTimeout},
		{DriverPostgres, fmt.Errorf("failed to connect database: %w", refused), domain.FailureCategoryUnavailable},
		{DriverSQLite, context.DeadlineExceeded, domain.FailureCategoryTimeout},
		{DriverMongo, refused, domain.FailureCategoryUnavailable},
		{DriverMongo, context.DeadlineExceeded, domain.FailureCategoryTimeout},
		{DriverRedis, redis.ErrClosed, domain.FailureCategoryUnavailable},
		{DriverRedis, errors.New("WRONGTYPE Operation against a key"), domain.FailureCategoryOther},
		{"unknown", refused, domain.FailureCategoryUnavailable},
	}

	for _, tt := range tests {
		got := Classify(tt.driver, tt.err)
		de, ok := domain.AsDriverError(got)
		if !ok {
			t.Errorf("Classify(%s, %q) returned untagged error", tt.driver, tt.err)
			continue
		}
		if de.Category != tt.expect {
			t.Errorf("Classify(%s, %q) = %s, want %s", tt.driver, tt.err, de.Category, tt.expect)
		}
		if de.Driver != tt.driver {
			t.Errorf("expected driver %s, got %s", tt.driver, de.Driver)
		}
	}
}

func TestClassify_KeepsExistingTag(t *testing.T) {
	tagged := domain.NewDriverError(DriverPgx, domain.FailureCategoryTimeout, errors.New("slow"))

	if got := Classify(DriverRedis, tagged); got != tagged {
		t.Errorf("expected tagged error to pass through, got %v", got)
	}
	if Classify(DriverPgx, nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		driver string
		expect domain.FailureCategory
	}{
		{"pgx server error", &pgconn.PgError{Code: "42P01", Message: `relation "users" does not exist`}, DriverPgx, domain.FailureCategoryOther},
		{"pgx wrapped", fmt.Errorf("load users: %w", &pgconn.PgError{Code: "57014"}), DriverPgx, domain.FailureCategoryTimeout},
		{"pq error", &pq.Error{Code: "08006"}, DriverPostgres, domain.FailureCategoryUnavailable},
		{"redis closed", redis.ErrClosed, DriverRedis, domain.FailureCategoryUnavailable},
		{"buffering message", errors.New("Operation `users.find()` buffering timed out after 10000ms"), DriverUnknown, domain.FailureCategoryTimeout},
		{"refused message", errors.New("connect ECONNREFUSED 127.0.0.1:27017"), DriverUnknown, domain.FailureCategoryUnavailable},
	}

	for _, tt := range tests {
		de, ok := domain.AsDriverError(Detect(tt.err))
		if !ok {
			t.Errorf("%s: expected tagged error", tt.name)
			continue
		}
		if de.Driver != tt.driver || de.Category != tt.expect {
			t.Errorf("%s: got %s/%s, want %s/%s", tt.name, de.Driver, de.Category, tt.driver, tt.expect)
		}
	}
}

func TestDetect_LeavesOthersUntouched(t *testing.T) {
	refused := &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: os.NewSyscallError("connect", syscall.ECONNREFUSED),
	}
	plain := errors.New("validation failed: email is required")

	for _, err := range []error{
		plain,
		refused,
		context.DeadlineExceeded,
		sql.ErrNoRows,
		fmt.Errorf("find user: %w", mongo.ErrNoDocuments),
		redis.Nil,
	} {
		if got := Detect(err); got != err {
			t.Errorf("Detect(%q) = %v, want it unchanged", err, got)
		}
	}

	tagged := domain.NewDriverError(DriverMongo, domain.FailureCategoryTimeout, plain)
	if Detect(tagged) != tagged {
		t.Error("expected tagged error to pass through")
	}
	if Detect(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestDetect_DriverErrors(t *testing.T) {
	ctx := context.Background()

	sqlConn := NewSQLConnector(sqliteConfig(t))
	if err := sqlConn.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer func() { _ = sqlConn.Close(ctx) }()

	var n int
	err := sqlConn.DB().GetContext(ctx, &n, "SELECT count(*) FROM users")
	if err == nil {
		t.Fatal("expected missing table error")
	}
	if de, ok := domain.AsDriverError(Detect(err)); !ok || de.Driver != DriverSQLite {
		t.Errorf("expected sqlite driver error, got %v", Detect(err))
	}

	mr := miniredis.RunT(t)
	redisConn := NewRedisConnector(Config{Driver: DriverRedis, URL: "redis://" + mr.Addr(), ConnectTimeout: time.Second})
	if err := redisConn.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer func() { _ = redisConn.Close(ctx) }()

	if err := redisConn.Client().Set(ctx, "gate", "open", 0).Err(); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	err = redisConn.Client().LPush(ctx, "gate", "x").Err()
	if err == nil {
		t.Fatal("expected WRONGTYPE error")
	}
	if de, ok := domain.AsDriverError(Detect(err)); !ok || de.Driver != DriverRedis || de.Category != domain.FailureCategoryOther {
		t.Errorf("expected redis driver error, got %v", Detect(err))
	}
}
