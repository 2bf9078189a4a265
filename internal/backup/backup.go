package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tastythames/netbackup/internal/inventory"
	"github.com/tastythames/netbackup/internal/report"
	"github.com/tastythames/netbackup/internal/sshclient"
)

const (
	TimestampLayout  = "20060102_150405"
	headerTimeLayout = "2006-01-02 15:04:05.000000"
	FileExt          = ".cfg"
)

var (
	ErrRemoteCommand = errors.New("remote command error")
	ErrWrite         = errors.New("backup write error")
)

// Commander runs the show-config command on a device.
type Commander interface {
	Run(ctx context.Context, t sshclient.Target, p sshclient.Platform) (string, error)
}

// Task retrieves and stores one device's running configuration.
type Task struct {
	Dir       string
	Commander Commander
	Inventory *inventory.Inventory
	Logger    *logrus.Logger
	// Now defaults to time.Now.
	Now func() time.Time

	out *lockedWriter
}

func NewTask(dir string, cmd Commander, inv *inventory.Inventory, out io.Writer, logger *logrus.Logger) *Task {
	if logger == nil {
		logger = logrus.New()
	}

	return &Task{
		Dir:       dir,
		Commander: cmd,
		Inventory: inv,
		Logger:    logger,
		Now:       time.Now,
		out:       &lockedWriter{w: out},
	}
}

// Run is a runner.Task. Every failure is reported in the result; nothing is retried.
func (t *Task) Run(ctx context.Context, h *inventory.Host) report.Result {
	res := report.Result{Host: h.Name, Address: h.Hostname}

	t.out.printf("\n[%s] connecting...\n", h.Name)

	target := sshclient.Target{
		Host:     h.Hostname,
		Port:     h.Port,
		Username: h.Username,
		Password: h.Password,
	}

	le := t.Logger.WithFields(logrus.Fields{"host": h.Name, "address": target.Addr()})

	platform, err := sshclient.LookupPlatform(t.Inventory.DeviceType(h))
	if err != nil {
		return t.fail(le, res, errors.Wrap(ErrRemoteCommand, err.Error()))
	}

	output, err := t.Commander.Run(ctx, target, platform)
	if err != nil {
		return t.fail(le, res, errors.Wrap(ErrRemoteCommand, err.Error()))
	}

	now := t.Now()
	path := Filename(t.Dir, h.Name, now)

	if err := os.WriteFile(path, []byte(Header(h, now)+output), 0o600); err != nil {
		return t.fail(le, res, errors.Wrap(ErrWrite, err.Error()))
	}

	t.out.printf("  ✅ backup saved: %s\n", path)
	le.WithField("path", path).Info("backup saved")

	res.OK = true
	res.Path = path

	return res
}

func (t *Task) fail(le *logrus.Entry, res report.Result, err error) report.Result {
	t.out.printf("  ❌ error: %s\n", report.ErrText(err))
	le.WithError(err).Warn("backup failed")

	res.Err = err

	return res
}

// Filename is {dir}/{host}_{YYYYMMDD_HHMMSS}.cfg.
//
// Second resolution: a rerun in the same second overwrites the host's file.
func Filename(dir, host string, at time.Time) string {
	return filepath.Join(dir, safeName(host)+"_"+at.Format(TimestampLayout)+FileExt)
}

// Header is the fixed preamble written before the device output.
func Header(h *inventory.Host, at time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Backup: %s\n", at.Format(headerTimeLayout))
	fmt.Fprintf(&b, "# Device: %s\n", h.Name)
	fmt.Fprintf(&b, "# IP: %s\n", h.Hostname)
	b.WriteString(strings.Repeat("#", 50) + "\n\n")

	return b.String()
}

// path separators in device names would escape the backup dir
func safeName(s string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(s)
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) printf(format string, args ...interface{}) {
	if l == nil || l.w == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.w, format, args...)
}
