package runner

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastythames/netbackup/internal/inventory"
	"github.com/tastythames/netbackup/internal/report"
)

func hosts(names ...string) []*inventory.Host {
	out := make([]*inventory.Host, 0, len(names))
	for _, n := range names {
		out = append(out, &inventory.Host{Name: n, Hostname: n + ".example.net"})
	}

	return out
}

func TestRunBoundedConcurrency(t *testing.T) {
	var inflight, peak int64

	task := func(_ context.Context, h *inventory.Host) report.Result {
		n := atomic.AddInt64(&inflight, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}

		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&inflight, -1)

		return report.Result{OK: true}
	}

	names := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		names = append(names, fmt.Sprintf("sw%02d", i))
	}

	r := New(Options{Workers: 5})
	results := r.Run(context.Background(), hosts(names...), task)

	require.Len(t, results, 12)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(5))

	for i, res := range results {
		assert.Equal(t, names[i], res.Host)
		assert.Equal(t, names[i]+".example.net", res.Address)
		assert.True(t, res.OK)
		assert.False(t, res.Started.IsZero())
	}

	enq, done := r.Stats()
	assert.Equal(t, uint64(12), enq)
	assert.Equal(t, uint64(12), done)
}

func TestRunFailuresDoNotStopOthers(t *testing.T) {
	task := func(_ context.Context, h *inventory.Host) report.Result {
		switch h.Name {
		case "bad":
			return report.Result{Err: errors.New("connection refused")}
		case "panics":
			panic("boom")
		}

		return report.Result{OK: true, Path: "backups/" + h.Name}
	}

	results := New(Options{Workers: 2}).Run(context.Background(), hosts("a", "bad", "panics", "b"), task)
	require.Len(t, results, 4)

	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.EqualError(t, results[1].Err, "connection refused")
	assert.False(t, results[2].OK)
	assert.ErrorIs(t, results[2].Err, ErrTaskPanic)
	assert.Equal(t, "panics", results[2].Host)
	assert.True(t, results[3].OK)
}

func TestRunDuplicateNames(t *testing.T) {
	task := func(_ context.Context, h *inventory.Host) report.Result {
		return report.Result{OK: true}
	}

	results := New(Options{Workers: 3}).Run(context.Background(), hosts("sw", "sw"), task)
	assert.Len(t, results, 2)
}

func TestRunEdgeCases(t *testing.T) {
	task := func(_ context.Context, h *inventory.Host) report.Result {
		return report.Result{OK: true}
	}

	assert.Empty(t, New(Options{Workers: 5}).Run(context.Background(), nil, task))

	// zero workers still makes progress
	results := New(Options{Workers: 0}).Run(context.Background(), hosts("a", "b"), task)
	assert.Len(t, results, 2)
}
