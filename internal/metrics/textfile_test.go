package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastythames/netbackup/internal/report"
)

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netbackup.prom")

	run := Run{
		ID:    "d6f5c1c2-0000-4000-8000-000000000001",
		At:    time.Unix(1760000000, 0),
		Total: 3,
		Results: []report.Result{
			{Host: "core-1", Address: "10.0.0.1", OK: true, Duration: 1500 * time.Millisecond},
			{Host: "core-2", Address: "10.0.0.2", Err: errors.New("timeout")},
			{Host: "edge-1", Address: "edge-1", OK: true},
		},
	}

	require.NoError(t, WriteTextfile(path, run))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	out := string(b)
	assert.Contains(t, out, `netbackup_run_info{run_id="d6f5c1c2-0000-4000-8000-000000000001"} 1`)
	assert.Contains(t, out, "netbackup_devices 3")
	assert.Contains(t, out, "netbackup_backups_successful 2")
	assert.Contains(t, out, `netbackup_device_backup_success{address="10.0.0.1",device="core-1"} 1`)
	assert.Contains(t, out, `netbackup_device_backup_success{address="10.0.0.2",device="core-2"} 0`)
	assert.Contains(t, out, `netbackup_device_backup_duration_seconds{address="10.0.0.1",device="core-1"} 1.5`)
	assert.Contains(t, out, "# TYPE netbackup_last_run_timestamp_seconds gauge")
}

func TestWriteTextfileBadPath(t *testing.T) {
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"), Run{})
	assert.ErrorIs(t, err, ErrMetrics)
}
