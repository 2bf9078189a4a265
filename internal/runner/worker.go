package runner

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tastythames/netbackup/internal/report"
)

var ErrTaskPanic = errors.New("task panicked")

func (r *Runner) startWorker(ctx context.Context, id int, jobs <-chan Job, c report.Collector) {
	r.logger.WithField("worker", id).Debug("worker started")

	for job := range jobs {
		res := r.runJob(ctx, job)

		c.Set(job.key(), res)
		atomic.AddUint64(&r.completed, 1)

		r.logger.WithFields(logrus.Fields{
			"worker":   id,
			"host":     job.Host.Name,
			"ok":       res.OK,
			"duration": res.Duration,
		}).Debug("job done")
	}
}

func (r *Runner) runJob(ctx context.Context, job Job) (res report.Result) {
	start := time.Now()

	defer func() {
		if v := recover(); v != nil {
			res = report.Result{
				Host:    job.Host.Name,
				Address: job.Host.Hostname,
				Err:     errors.Wrap(ErrTaskPanic, fmt.Sprint(v)),
			}
		}

		// the runner owns identity and timing
		res.Host = job.Host.Name
		if res.Address == "" {
			res.Address = job.Host.Hostname
		}

		res.Started = start
		res.Duration = time.Since(start)
	}()

	return job.Task(ctx, job.Host)
}
