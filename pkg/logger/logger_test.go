package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches []LogBatch
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.(LogBatch))
	return nil
}

func (p *capturePublisher) entries() []AggregatedLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []AggregatedLogEntry
	for _, b := range p.batches {
		out = append(out, b.Entries...)
	}
	return out
}

func TestCollectorMergesIdenticalLines(t *testing.T) {
	pub := &capturePublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Error("fetch failed", String("symbol", "AAPL"), Error(errors.New("timeout")))
	}
	l.Error("fetch failed", String("symbol", "MSFT"), Error(errors.New("timeout")))
	l.Info("not collected")
	l.Warn("not collected either")
	l.RemoveCollector()

	got := pub.entries()
	require.Len(t, got, 2)
	assert.Equal(t, "logs", pub.topic)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, "AAPL", got[0].Fields["symbol"])
	assert.Equal(t, "timeout", got[0].Fields["error"])
	assert.Equal(t, 1, got[1].Count)
	assert.Contains(t, got[0].Caller, "logger_test.go:")
}

func TestCollectorReachesChildLoggers(t *testing.T) {
	pub := &capturePublisher{}
	l := NewNop()
	child := l.With(String("component", "store"))
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Topic: "logs", Publisher: pub, IncludeWarn: true})

	child.Warn("slow provider")
	l.RemoveCollector()
	child.Error("after removal")

	got := pub.entries()
	require.Len(t, got, 1)
	assert.Equal(t, "warn", got[0].Level)
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "logs", Publisher: pub})
	c.AddLog("error", "a", nil, "x:1")
	c.AddLog("error", "b", nil, "x:2")
	c.Close()

	assert.Len(t, pub.entries(), 2)
	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Len(t, pub.batches, 1)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}
