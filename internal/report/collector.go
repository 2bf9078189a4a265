package report

import (
	"sync"
	"time"
)

// Result is the outcome of one host's backup.
type Result struct {
	Host    string
	Address string
	OK      bool
	// Path is the backup file, set on success.
	Path     string
	Err      error
	Started  time.Time
	Duration time.Duration
}

// Collector gathers results from concurrent workers.
type Collector interface {
	Set(host string, r Result)
	Snapshot() map[string]Result
}

// MemCollector is an in-memory implementation of Collector.
type MemCollector struct {
	mu   sync.RWMutex
	data map[string]Result
}

func NewMemCollector() *MemCollector {
	return &MemCollector{
		data: make(map[string]Result),
	}
}

func (c *MemCollector) Set(host string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[host] = r
}

func (c *MemCollector) Snapshot() map[string]Result {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]Result, len(c.data))
	for k, v := range c.data {
		out[k] = v
	}
	return out
}

// Ordered returns results following order; names without a result are skipped.
func Ordered(snap map[string]Result, order []string) []Result {
	out := make([]Result, 0, len(order))
	for _, name := range order {
		if r, ok := snap[name]; ok {
			out = append(out, r)
		}
	}
	return out
}
