package runner

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/tastythames/netbackup/internal/inventory"
	"github.com/tastythames/netbackup/internal/report"
)

type Runner struct {
	workers int
	logger  *logrus.Logger

	// stats (atomic) for observability
	enqueued  uint64
	completed uint64
}

type Options struct {
	Workers int
	Logger  *logrus.Logger
}

// New creates a runner with a fixed pool size.
func New(opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	return &Runner{
		workers: opts.Workers,
		logger:  opts.Logger,
	}
}

// Run dispatches task to every host and blocks until all have finished.
//
// Results come back in host order, one per host.
func (r *Runner) Run(ctx context.Context, hosts []*inventory.Host, task Task) []report.Result {
	c := report.NewMemCollector()

	workers := r.workers
	if workers > len(hosts) {
		workers = len(hosts)
	}

	jobCh := make(chan Job, len(hosts))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()
			r.startWorker(ctx, id, jobCh, c)
		}(i)
	}

	r.enqueueAll(hosts, task, jobCh)
	close(jobCh)

	wg.Wait()

	order := make([]string, 0, len(hosts))
	for i, h := range hosts {
		order = append(order, jobKey(i, h.Name))
	}

	return report.Ordered(c.Snapshot(), order)
}

// enqueueAll never blocks: jobCh is sized to hold every host.
func (r *Runner) enqueueAll(hosts []*inventory.Host, task Task, jobCh chan<- Job) {
	for i, h := range hosts {
		jobCh <- Job{Index: i, Host: h, Task: task}
		atomic.AddUint64(&r.enqueued, 1)
	}
}

func (r *Runner) Stats() (enqueued uint64, completed uint64) {
	return atomic.LoadUint64(&r.enqueued), atomic.LoadUint64(&r.completed)
}
