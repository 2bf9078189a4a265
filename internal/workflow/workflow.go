package workflow

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tastythames/netbackup/internal/backup"
	"github.com/tastythames/netbackup/internal/config"
	"github.com/tastythames/netbackup/internal/inventory"
	"github.com/tastythames/netbackup/internal/metrics"
	"github.com/tastythames/netbackup/internal/prompt"
	"github.com/tastythames/netbackup/internal/registry"
	"github.com/tastythames/netbackup/internal/report"
	"github.com/tastythames/netbackup/internal/runner"
	"github.com/tastythames/netbackup/internal/sshclient"
)

var ErrRunnerInit = errors.New("runner initialization error")

// DeviceSource lists devices from the inventory registry.
type DeviceSource interface {
	Devices(ctx context.Context, f registry.Filter) ([]registry.Device, error)
}

// Workflow runs one backup pass: prompt, fetch, materialize, execute,
// report and clean up.
type Workflow struct {
	Config *config.Config
	Logger *logrus.Logger
	In     io.Reader
	Out    io.Writer

	// Source and Commander are built from Config when nil.
	Source    DeviceSource
	Commander backup.Commander
	Now       func() time.Time
}

func New(cfg *config.Config, logger *logrus.Logger, in io.Reader, out io.Writer) *Workflow {
	return &Workflow{
		Config: cfg,
		Logger: logger,
		In:     in,
		Out:    out,
		Now:    time.Now,
	}
}

// Run executes the backup pass.
//
// Only setup failures are returned, before any device is contacted;
// per-host failures are reported in the summary.
func (w *Workflow) Run(ctx context.Context) error {
	cfg := w.Config
	runID := uuid.New().String()
	le := w.Logger.WithField("run_id", runID)

	fmt.Fprintf(w.Out, "=== %s backup ===\n\n", cfg.Platform)

	if err := w.promptAll(true); err != nil {
		return err
	}

	devices, err := w.fetch(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Backup.Dir, 0o755); err != nil {
		return errors.Wrap(backup.ErrWrite, err.Error())
	}

	inv := w.materialize(devices)

	var (
		files   inventory.Files
		cleaned bool
	)

	cleanup := func() {
		if files == nil || cleaned {
			return
		}

		cleaned = true

		if err := inventory.Cleanup(files, w.Out); err != nil {
			le.WithError(err).Warn("transient inventory cleanup failed")
		}
	}
	defer cleanup()

	if !cfg.Inventory.InMemory {
		files, err = inventory.Write(cfg.Inventory.Dir, inv)
		if err != nil {
			fmt.Fprintf(w.Out, "❌ Error writing inventory files: %v\n", err)
			return err
		}

		fmt.Fprintln(w.Out, "✅ Inventory files created")
		fmt.Fprintln(w.Out, "\nInitializing runner...")

		inv, err = inventory.Load(filepath.Join(cfg.Inventory.Dir, inventory.ConfigFile))
		if err != nil {
			fmt.Fprintf(w.Out, "❌ Error initializing runner: %v\n", err)
			return err
		}
	}

	cmd, err := w.commander()
	if err != nil {
		fmt.Fprintf(w.Out, "❌ Error initializing runner: %v\n", err)
		return err
	}

	fmt.Fprintf(w.Out, "✅ Runner initialized. %d devices loaded\n", len(inv.Hosts))
	fmt.Fprintln(w.Out, "\n📋 Devices:")

	for _, h := range inv.Hosts {
		fmt.Fprintf(w.Out, "  • %s (%s)\n", h.Name, h.Hostname)
	}

	report.Section(w.Out, "STARTING BACKUPS")

	started := w.now()

	task := backup.NewTask(cfg.Backup.Dir, cmd, inv, w.Out, w.Logger)
	task.Now = w.now

	r := runner.New(runner.Options{Workers: inv.Workers(), Logger: w.Logger})
	results := r.Run(ctx, inv.Hosts, task.Run)

	enqueued, completed := r.Stats()
	le.WithFields(logrus.Fields{"enqueued": enqueued, "completed": completed}).Debug("runner drained")

	ok := report.Summary(w.Out, results, len(devices))

	le.WithFields(logrus.Fields{
		"devices":    len(devices),
		"successful": ok,
		"elapsed":    w.now().Sub(started).String(),
	}).Info("backup run finished")

	if cfg.Metrics.Textfile != "" {
		run := metrics.Run{ID: runID, At: started, Total: len(devices), Results: results}
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, run); err != nil {
			le.WithError(err).Warn("metrics textfile not written")
		}
	}

	fmt.Fprintln(w.Out)
	cleanup()

	fmt.Fprintln(w.Out, "\n🎉 Done!")

	return nil
}

// Preview fetches and materializes the inventory and prints it with
// passwords masked. No device is contacted and no file is written.
func (w *Workflow) Preview(ctx context.Context) error {
	if err := w.promptAll(false); err != nil {
		return err
	}

	devices, err := w.fetch(ctx)
	if err != nil {
		return err
	}

	inv := w.materialize(devices).Redacted()

	b, err := inventory.MarshalHosts(inv.Hosts)
	if err != nil {
		return err
	}

	fmt.Fprintf(w.Out, "\n%s", b)

	return nil
}

func (w *Workflow) promptAll(withSSH bool) error {
	p := prompt.New(w.In, w.Out)
	cfg := w.Config

	if err := p.Fill(&cfg.Netbox.URL, prompt.LabelNetboxURL); err != nil {
		return err
	}

	if err := p.Fill(&cfg.Netbox.Token, prompt.LabelNetboxToken); err != nil {
		return err
	}

	if !withSSH {
		return nil
	}

	if err := p.Fill(&cfg.SSH.Username, prompt.LabelSSHUsername); err != nil {
		return err
	}

	return p.Fill(&cfg.SSH.Password, prompt.LabelSSHPassword)
}

func (w *Workflow) fetch(ctx context.Context) ([]registry.Device, error) {
	cfg := w.Config

	fmt.Fprintln(w.Out, "\nConnecting to NetBox...")

	src := w.Source
	if src == nil {
		c, err := registry.New(registry.Options{
			URL:                cfg.Netbox.URL,
			Token:              cfg.Netbox.Token,
			PageSize:           cfg.Netbox.PageSize,
			Timeout:            cfg.Netbox.Timeout,
			Retries:            cfg.Netbox.Retries,
			InsecureSkipVerify: cfg.Netbox.InsecureSkipVerify,
		}, w.Logger)
		if err != nil {
			fmt.Fprintf(w.Out, "❌ Error connecting to NetBox: %v\n", err)
			return nil, err
		}

		src = c
	}

	devices, err := src.Devices(ctx, registry.Filter{
		Manufacturer: cfg.Netbox.Manufacturer,
		Status:       cfg.Netbox.Status,
	})

	switch {
	case errors.Is(err, registry.ErrNoDevices):
		fmt.Fprintf(w.Out, "❌ No %s %s devices found\n", cfg.Netbox.Status, cfg.Netbox.Manufacturer)
		return nil, err
	case err != nil:
		fmt.Fprintf(w.Out, "❌ Error connecting to NetBox: %v\n", err)
		return nil, err
	case len(devices) == 0:
		// sources other than registry.Client may return an empty list without error
		fmt.Fprintf(w.Out, "❌ No %s %s devices found\n", cfg.Netbox.Status, cfg.Netbox.Manufacturer)
		return nil, registry.ErrNoDevices
	}

	fmt.Fprintf(w.Out, "✅ Found %d %s devices\n", len(devices), cfg.Netbox.Manufacturer)

	return devices, nil
}

func (w *Workflow) materialize(devices []registry.Device) *inventory.Inventory {
	cfg := w.Config

	return inventory.Materialize(devices,
		inventory.Credentials{Username: cfg.SSH.Username, Password: cfg.SSH.Password},
		inventory.Options{Platform: cfg.Platform, Port: cfg.SSH.Port, Workers: cfg.Workers},
	)
}

func (w *Workflow) commander() (backup.Commander, error) {
	if w.Commander != nil {
		return w.Commander, nil
	}

	c, err := sshclient.New(sshclient.Config{
		Timeout:        w.Config.SSH.Timeout,
		Port:           w.Config.SSH.Port,
		KnownHostsFile: w.Config.SSH.KnownHosts,
	})
	if err != nil {
		return nil, errors.Wrap(ErrRunnerInit, err.Error())
	}

	return c, nil
}

func (w *Workflow) now() time.Time {
	if w.Now == nil {
		return time.Now()
	}

	return w.Now()
}
