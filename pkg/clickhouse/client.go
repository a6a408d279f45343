package clickhouse

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"

	"PairLab/pkg/sqldb"
)

const driverName = "clickhouse"

// Client manages ClickHouse connection pool.
type Client struct {
	*sqldb.Client
	database string
}

// NewClient creates a ClickHouse client with connection pool.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &ClientConfig{
		Port:            9000,
		Database:        "default",
		User:            "default",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     10 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}

	pool, err := sqldb.NewClient(
		sqldb.WithDriver(driverName),
		sqldb.WithDSN(BuildDSN(*cfg)),
		sqldb.WithMaxConnections(cfg.MaxOpenConns, cfg.MaxIdleConns),
		sqldb.WithConnMaxLifetime(cfg.ConnMaxLifetime),
	)
	if err != nil {
		return nil, err
	}
	return &Client{Client: pool, database: cfg.Database}, nil
}

// NewClientWithDB wraps an opened ClickHouse pool.
func NewClientWithDB(db *sql.DB, database string) *Client {
	return &Client{Client: sqldb.NewClientWithDB(db, driverName), database: database}
}

func (c *Client) Database() string {
	return c.database
}

// BuildDSN renders the clickhouse-go DSN for cfg.
func BuildDSN(cfg ClientConfig) string {
	scheme := "clickhouse://"
	if cfg.UseHTTP {
		scheme = "http://"
	}
	dsn := fmt.Sprintf("%s%s:%s@%s:%d/%s",
		scheme, cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	// helper to add query params
	add := func(first bool, key string, val any) string {
		sep := "&"
		if first {
			sep = "?"
		}
		return fmt.Sprintf("%s%s=%v", sep, key, val)
	}

	first := true
	if cfg.DialTimeout > 0 {
		dsn += add(first, "dial_timeout", cfg.DialTimeout)
		first = false
	}
	if cfg.ReadTimeout > 0 {
		dsn += add(first, "read_timeout", cfg.ReadTimeout)
		first = false
	}
	if cfg.MaxExecTime > 0 {
		// seconds granularity is typical for max_execution_time
		dsn += add(first, "max_execution_time", int(cfg.MaxExecTime.Seconds()))
	}
	return dsn
}
