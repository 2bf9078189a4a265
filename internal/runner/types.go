package runner

import (
	"context"
	"strconv"

	"github.com/tastythames/netbackup/internal/inventory"
	"github.com/tastythames/netbackup/internal/report"
)

// Task is the per-host unit of work. It must report failure in the Result
// rather than panic; panics are recovered as failures anyway.
type Task func(ctx context.Context, h *inventory.Host) report.Result

type Job struct {
	// Index is the host's position in the run; it keys results so that
	// duplicate host names still get one result each.
	Index int
	Host  *inventory.Host
	Task  Task
}

func (j Job) key() string {
	return jobKey(j.Index, j.Host.Name)
}

func jobKey(i int, name string) string {
	return strconv.Itoa(i) + "/" + name
}
