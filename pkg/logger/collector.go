package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"sync"
	"time"
)

type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

// CollectionConfig controls how repeated log entries are folded together
// and shipped. A batch goes out every TimeInterval or as soon as
// CountThreshold distinct entries are pending.
type CollectionConfig struct {
	TimeInterval   time.Duration
	CountThreshold int
	Topic          string
	Publisher      Publisher
	Levels         []string // error only when empty
}

// AggregatedLogEntry is one distinct log line and how often it fired in the window.
type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector folds identical entries (same level, message, fields and
// caller) and publishes them in batches from a single goroutine, so batches
// leave in order and Close can wait for the last one.
type LogCollector struct {
	cfg    CollectionConfig
	levels map[string]bool

	mu      sync.Mutex
	pending map[uint64]*AggregatedLogEntry
	order   []uint64

	batches chan []AggregatedLogEntry
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	cfg := *config
	if cfg.TimeInterval <= 0 {
		cfg.TimeInterval = 30 * time.Second
	}
	if cfg.CountThreshold <= 0 {
		cfg.CountThreshold = 100
	}
	levels := map[string]bool{"error": true}
	if len(cfg.Levels) > 0 {
		levels = make(map[string]bool, len(cfg.Levels))
		for _, l := range cfg.Levels {
			levels[l] = true
		}
	}

	c := &LogCollector{
		cfg:     cfg,
		levels:  levels,
		pending: make(map[uint64]*AggregatedLogEntry),
		batches: make(chan []AggregatedLogEntry, 8),
		stop:    make(chan struct{}),
	}
	c.wg.Add(2)
	go c.tick()
	go c.ship()
	return c
}

func (c *LogCollector) Accepts(level string) bool { return c.levels[level] }

func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := entryKey(level, message, fields, caller)

	c.mu.Lock()
	if e, ok := c.pending[key]; ok {
		e.Count++
		e.LastSeen = now
		c.mu.Unlock()
		return
	}
	c.pending[key] = &AggregatedLogEntry{
		Level:     level,
		Message:   message,
		Fields:    fields,
		Caller:    caller,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
	c.order = append(c.order, key)
	var batch []AggregatedLogEntry
	if len(c.pending) >= c.cfg.CountThreshold {
		batch = c.drainLocked()
	}
	c.mu.Unlock()

	if batch != nil {
		c.enqueue(batch)
	}
}

// entryKey hashes the identifying parts of an entry. json.Marshal sorts map
// keys, so equal field sets hash equally.
func entryKey(level, message string, fields map[string]interface{}, caller string) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00", level, caller, message)
	if b, err := json.Marshal(fields); err == nil {
		h.Write(b)
	} else {
		fmt.Fprintf(h, "%v", fields)
	}
	return h.Sum64()
}

// drainLocked returns pending entries in first-seen order and resets the window.
func (c *LogCollector) drainLocked() []AggregatedLogEntry {
	if len(c.order) == 0 {
		return nil
	}
	out := make([]AggregatedLogEntry, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, *c.pending[k])
	}
	c.pending = make(map[uint64]*AggregatedLogEntry)
	c.order = c.order[:0]
	return out
}

func (c *LogCollector) flush() {
	c.mu.Lock()
	batch := c.drainLocked()
	c.mu.Unlock()
	if batch != nil {
		c.enqueue(batch)
	}
}

// enqueue never blocks the logging call site. Batches are dropped once
// the shipper is gone or backed up.
func (c *LogCollector) enqueue(batch []AggregatedLogEntry) {
	select {
	case <-c.stop:
		return
	default:
	}
	select {
	case c.batches <- batch:
	default:
		fmt.Fprintf(os.Stderr, "log collector: dropped batch of %d entries\n", len(batch))
	}
}

func (c *LogCollector) tick() {
	defer c.wg.Done()
	t := time.NewTicker(c.cfg.TimeInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.flush()
		case <-c.stop:
			return
		}
	}
}

func (c *LogCollector) ship() {
	defer c.wg.Done()
	for {
		select {
		case b := <-c.batches:
			c.publish(b)
		case <-c.stop:
			// drain what was queued, then the final window
			for {
				select {
				case b := <-c.batches:
					c.publish(b)
				default:
					c.mu.Lock()
					last := c.drainLocked()
					c.mu.Unlock()
					if last != nil {
						c.publish(last)
					}
					return
				}
			}
		}
	}
}

func (c *LogCollector) publish(batch []AggregatedLogEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.cfg.Publisher.PublishMessage(ctx, c.cfg.Topic, batch); err != nil {
		fmt.Fprintf(os.Stderr, "log collector: publish %d entries to %s: %v\n", len(batch), c.cfg.Topic, err)
	}
}

// Close publishes whatever is pending and waits for it.
func (c *LogCollector) Close() {
	c.once.Do(func() { close(c.stop) })
	c.wg.Wait()
}
