// Package database opens instrumented PostgreSQL connections.
package database

import (
	"context"
	"database/sql"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/nhatthm/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Config holds the connection and pool settings of a PostgreSQL database.
type Config struct {
	User            string
	Password        string
	Host            string
	Name            string
	ApplicationName string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	DisableTLS      bool
}

// DSN renders the lib/pq connection URL for cfg. Sessions always run in UTC.
func (cfg Config) DSN() string {
	q := url.Values{}
	q.Set("sslmode", "require")
	if cfg.DisableTLS {
		q.Set("sslmode", "disable")
	}
	q.Set("timezone", "utc")
	if cfg.ApplicationName != "" {
		q.Set("application_name", cfg.ApplicationName)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host,
		Path:     cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open returns a pool whose queries are traced and whose statistics are
// exported through otelsql. No connection is made until first use.
func Open(cfg Config) (*sqlx.DB, error) {
	driverName, err := otelsql.Register("postgres",
		otelsql.AllowRoot(),
		otelsql.TraceQueryWithoutArgs(),
		otelsql.TraceRowsClose(),
		otelsql.TraceRowsAffected(),
		otelsql.WithDatabaseName(cfg.Name),
		otelsql.WithSystem(semconv.DBSystemPostgreSQL),
	)
	if err != nil {
		return nil, err
	}

	pool, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, err
	}
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := otelsql.RecordStats(pool); err != nil {
		pool.Close()
		return nil, err
	}

	// sqlx needs the real driver name to pick the bind type.
	return sqlx.NewDb(pool, "postgres"), nil
}

// StatusCheck waits until the database answers a ping, backing off between
// attempts, and then forces a round trip with a trivial query. It gives up
// when ctx is done.
func StatusCheck(ctx context.Context, db *sqlx.DB) error {
	backoff := 100 * time.Millisecond
	for db.PingContext(ctx) != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}

	var ok bool
	return db.QueryRowContext(ctx, `SELECT true`).Scan(&ok)
}
