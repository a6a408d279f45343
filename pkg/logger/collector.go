package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"sort"
	"sync"
	"time"
)

// Publisher sends a payload to a topic. *kafka.Producer satisfies it.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush interval
	CountThreshold int           // distinct lines held before an early flush
	Topic          string
	Publisher      Publisher
	IncludeWarn    bool // also aggregate warn lines
}

// AggregatedLogEntry counts identical lines between two flushes.
type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogBatch is the message published on every flush.
type LogBatch struct {
	Host    string               `json:"host"`
	Flushed time.Time            `json:"flushed_at"`
	Entries []AggregatedLogEntry `json:"entries"`
}

type LogCollector struct {
	config  *CollectionConfig
	host    string
	mu      sync.Mutex
	entries map[uint64]*AggregatedLogEntry
	pending sync.WaitGroup
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	now     func() time.Time
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	host, _ := os.Hostname()
	c := &LogCollector{
		config:  config,
		host:    host,
		entries: make(map[uint64]*AggregatedLogEntry),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		now:     time.Now,
	}
	go c.loop()
	return c
}

// AddLog records one line. Lines with the same level, message, fields and
// caller are merged.
func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := c.now()
	key := entryKey(level, message, fields, caller)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
		return
	}
	c.entries[key] = &AggregatedLogEntry{
		Level:     level,
		Message:   message,
		Fields:    fields,
		Caller:    caller,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
	if c.config.CountThreshold > 0 && len(c.entries) >= c.config.CountThreshold {
		batch := c.drainLocked()
		c.pending.Add(1)
		go func() {
			defer c.pending.Done()
			c.publish(batch)
		}()
	}
}

func entryKey(level, message string, fields map[string]interface{}, caller string) uint64 {
	h := fnv.New64a()
	// json.Marshal sorts map keys, so equal field sets hash equally.
	b, _ := json.Marshal(fields)
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00", level, message, caller)
	_, _ = h.Write(b)
	return h.Sum64()
}

func (c *LogCollector) loop() {
	defer close(c.stopped)
	interval := c.config.TimeInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Flush()
		case <-c.done:
			c.Flush()
			return
		}
	}
}

// Flush publishes everything collected so far and waits for it.
func (c *LogCollector) Flush() {
	c.mu.Lock()
	batch := c.drainLocked()
	c.mu.Unlock()
	c.publish(batch)
}

// drainLocked empties the entry map, busiest lines first.
func (c *LogCollector) drainLocked() []AggregatedLogEntry {
	if len(c.entries) == 0 {
		return nil
	}
	out := make([]AggregatedLogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	c.entries = make(map[uint64]*AggregatedLogEntry)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].FirstSeen.Before(out[j].FirstSeen)
	})
	return out
}

func (c *LogCollector) publish(entries []AggregatedLogEntry) {
	if len(entries) == 0 || c.config.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	batch := LogBatch{Host: c.host, Flushed: c.now().UTC(), Entries: entries}
	if err := c.config.Publisher.PublishMessage(ctx, c.config.Topic, batch); err != nil {
		// The logger itself feeds the collector, so report on stderr only.
		fmt.Fprintf(os.Stderr, "failed to publish aggregated logs: %v\n", err)
	}
}

// Close stops the flush loop after a final flush and waits for in-flight
// publishes.
func (c *LogCollector) Close() {
	c.once.Do(func() { close(c.done) })
	<-c.stopped
	c.pending.Wait()
}
