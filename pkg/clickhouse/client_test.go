package clickhouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	cfg := ClientConfig{
		Host:        "ch",
		Port:        9000,
		Database:    "pairlab",
		User:        "u",
		Password:    "p",
		DialTimeout: 5 * time.Second,
		MaxExecTime: 30 * time.Second,
	}
	assert.Equal(t, "clickhouse://u:p@ch:9000/pairlab?dial_timeout=5s&max_execution_time=30", BuildDSN(cfg))

	cfg.UseHTTP = true
	cfg.DialTimeout = 0
	cfg.MaxExecTime = 0
	cfg.ReadTimeout = time.Second
	assert.Equal(t, "http://u:p@ch:9000/pairlab?read_timeout=1s", BuildDSN(cfg))
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.Error(t, err)
}
