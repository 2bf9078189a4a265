package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tastythames/netbackup/internal/report"
)

var ErrMetrics = errors.New("metrics textfile error")

// Run describes one finished backup run.
type Run struct {
	ID      string
	At      time.Time
	Total   int
	Results []report.Result
}

// Registry builds a fresh registry populated from run.
func Registry(run Run) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	info := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: MetricRunInfo,
		Help: "Constant 1, labelled with the id of the last run.",
	}, []string{"run_id"})

	ts := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricRunTimestamp,
		Help: "Unix timestamp of the last run.",
	})

	total := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricDevicesTotal,
		Help: "Devices returned by the registry in the last run.",
	})

	successful := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricBackupsSuccessful,
		Help: "Devices backed up successfully in the last run.",
	})

	up := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: MetricDeviceUp,
		Help: "1 if the device's last backup succeeded.",
	}, []string{"device", "address"})

	dur := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: MetricDeviceDuration,
		Help: "Duration of the device's last backup.",
	}, []string{"device", "address"})

	reg.MustRegister(info, ts, total, successful, up, dur)

	info.WithLabelValues(run.ID).Set(1)
	ts.Set(float64(run.At.Unix()))
	total.Set(float64(run.Total))

	ok := 0
	for _, r := range run.Results {
		v := 0.0
		if r.OK {
			v = 1
			ok++
		}

		up.WithLabelValues(r.Host, r.Address).Set(v)
		dur.WithLabelValues(r.Host, r.Address).Set(r.Duration.Seconds())
	}

	successful.Set(float64(ok))

	return reg
}

// WriteTextfile writes run in the node_exporter textfile collector format.
func WriteTextfile(path string, run Run) error {
	if err := prometheus.WriteToTextfile(path, Registry(run)); err != nil {
		return errors.Wrap(ErrMetrics, err.Error())
	}

	return nil
}
