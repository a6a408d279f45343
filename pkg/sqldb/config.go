package sqldb

import "time"

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds pool configuration.
type ClientConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// WithDriver selects the database/sql driver (sqlite or postgres).
func WithDriver(driver string) ClientOption {
	return func(c *ClientConfig) {
		c.Driver = driver
	}
}

// WithDSN sets the data source name.
func WithDSN(dsn string) ClientOption {
	return func(c *ClientConfig) {
		c.DSN = dsn
	}
}

// WithMaxConnections sets max open and idle connections.
func WithMaxConnections(maxOpen, maxIdle int) ClientOption {
	return func(c *ClientConfig) {
		c.MaxOpenConns = maxOpen
		c.MaxIdleConns = maxIdle
	}
}

// WithConnMaxLifetime sets how long a pooled connection may be reused.
func WithConnMaxLifetime(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.ConnMaxLifetime = d
	}
}
