package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemCollectorConcurrent(t *testing.T) {
	c := NewMemCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(fmt.Sprintf("h%d", i), Result{Host: fmt.Sprintf("h%d", i), OK: i%2 == 0})
		}(i)
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Len(t, snap, 50)

	// snapshot is a copy
	delete(snap, "h0")
	assert.Len(t, c.Snapshot(), 50)
}

func TestOrdered(t *testing.T) {
	snap := map[string]Result{
		"b": {Host: "b"},
		"a": {Host: "a"},
	}

	got := Ordered(snap, []string{"a", "missing", "b"})
	assert.Equal(t, []Result{{Host: "a"}, {Host: "b"}}, got)
}

func TestSummary(t *testing.T) {
	long := strings.Repeat("x", 150)

	results := []Result{
		{Host: "core-1", OK: true, Path: "backups/core-1.cfg"},
		{Host: "core-2", Err: errors.New(long)},
		{Host: "edge-1", OK: true},
	}

	buf := &bytes.Buffer{}
	ok := Summary(buf, results, 3)

	assert.Equal(t, 2, ok)

	out := buf.String()
	assert.Contains(t, out, "✅ core-1\n")
	assert.Contains(t, out, "❌ core-2: "+strings.Repeat("x", MaxErrLen)+"\n")
	assert.NotContains(t, out, strings.Repeat("x", MaxErrLen+1))
	assert.Contains(t, out, "✅ 2/3 backups successful")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo", 10))
	assert.Equal(t, "hé", Truncate("héllo", 2))
	assert.Equal(t, "unknown error", ErrText(nil))
}
