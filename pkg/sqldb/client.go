// Package sqldb opens database/sql pools for the relational series backends.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Client manages a database/sql connection pool.
type Client struct {
	db     *sql.DB
	driver string
}

// NewClient opens and pings a pool. SQLite pools are limited to one
// connection so that ":memory:" databases are shared and writers serialize.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &ClientConfig{
		Driver:          DriverSQLite,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		PingTimeout:     5 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	if cfg.Driver == DriverSQLite {
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		cfg.ConnMaxLifetime = 0
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s open: %w", cfg.Driver, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s ping: %w", cfg.Driver, err)
	}

	return &Client{db: db, driver: cfg.Driver}, nil
}

// NewClientWithDB wraps an already opened pool.
func NewClientWithDB(db *sql.DB, driver string) *Client {
	return &Client{db: db, driver: driver}
}

// DB returns *sql.DB for direct use.
func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Driver() string {
	return c.driver
}

// Health performs health check.
func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes connection pool.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// InitSchema runs idempotent DDL statements in order.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Rebind rewrites '?' placeholders to the driver's positional form.
func (c *Client) Rebind(query string) string {
	return Rebind(c.driver, query)
}

// Rebind rewrites '?' placeholders to $1, $2, ... for postgres and returns
// the query unchanged for other drivers.
func Rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
