package backup

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastythames/netbackup/internal/inventory"
	"github.com/tastythames/netbackup/internal/registry"
	"github.com/tastythames/netbackup/internal/sshclient"
)

type fakeCommander struct {
	mu      sync.Mutex
	fail    map[string]error
	targets []sshclient.Target
}

func (f *fakeCommander) Run(_ context.Context, t sshclient.Target, p sshclient.Platform) (string, error) {
	f.mu.Lock()
	f.targets = append(f.targets, t)
	f.mu.Unlock()

	if err, ok := f.fail[t.Host]; ok {
		return "", err
	}

	return "#\nsysname " + t.Host + "\n# " + p.ShowConfig + "\nreturn\n", nil
}

var fixedNow = time.Date(2026, 10, 17, 9, 5, 7, 123456000, time.UTC)

func testInventory() *inventory.Inventory {
	return inventory.Materialize([]registry.Device{
		{Name: "core-1", Address: "10.0.0.1", Site: "DC1", Model: "S5720"},
		{Name: "edge-1", Site: "DC2", Model: "AR6120"},
	}, inventory.Credentials{Username: "backup", Password: "p@ss"}, inventory.Options{})
}

func newTestTask(t *testing.T, cmd Commander, inv *inventory.Inventory, out io.Writer) *Task {
	t.Helper()

	l := logrus.New()
	l.Level = logrus.ErrorLevel

	task := NewTask(t.TempDir(), cmd, inv, out, l)
	task.Now = func() time.Time { return fixedNow }

	return task
}

func TestFilename(t *testing.T) {
	assert.Equal(t, filepath.Join("backups", "core-1_20261017_090507.cfg"), Filename("backups", "core-1", fixedNow))
	assert.Equal(t, filepath.Join("backups", "a_b_20261017_090507.cfg"), Filename("backups", "a/b", fixedNow))
}

func TestHeader(t *testing.T) {
	h := &inventory.Host{Name: "core-1", Hostname: "10.0.0.1"}

	want := "# Backup: 2026-10-17 09:05:07.123456\n" +
		"# Device: core-1\n" +
		"# IP: 10.0.0.1\n" +
		strings.Repeat("#", 50) + "\n\n"

	assert.Equal(t, want, Header(h, fixedNow))
}

func TestRunSuccess(t *testing.T) {
	inv := testInventory()
	cmd := &fakeCommander{}
	out := &bytes.Buffer{}
	task := newTestTask(t, cmd, inv, out)

	res := task.Run(context.Background(), inv.Hosts[1])
	require.True(t, res.OK, res.Err)
	require.NoError(t, res.Err)

	assert.Equal(t, filepath.Join(task.Dir, "edge-1_20261017_090507.cfg"), res.Path)

	b, err := os.ReadFile(res.Path)
	require.NoError(t, err)

	assert.Equal(t, Header(inv.Hosts[1], fixedNow)+"#\nsysname edge-1\n# display current-configuration\nreturn\n", string(b))

	require.Len(t, cmd.targets, 1)
	assert.Equal(t, sshclient.Target{Host: "edge-1", Port: 22, Username: "backup", Password: "p@ss"}, cmd.targets[0])

	assert.Contains(t, out.String(), "[edge-1] connecting...")
	assert.Contains(t, out.String(), "✅ backup saved: "+res.Path)
}

func TestRunRemoteFailure(t *testing.T) {
	inv := testInventory()
	long := "ssh: handshake failed: " + strings.Repeat("z", 200)
	cmd := &fakeCommander{fail: map[string]error{"10.0.0.1": errors.New(long)}}
	out := &bytes.Buffer{}
	task := newTestTask(t, cmd, inv, out)

	res := task.Run(context.Background(), inv.Hosts[0])
	assert.False(t, res.OK)
	assert.Empty(t, res.Path)
	assert.ErrorIs(t, res.Err, ErrRemoteCommand)

	line := strings.TrimSpace(strings.SplitN(out.String(), "❌ error: ", 2)[1])
	assert.LessOrEqual(t, len([]rune(line)), 100)

	entries, err := os.ReadDir(task.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunUnsupportedPlatform(t *testing.T) {
	inv := inventory.Materialize([]registry.Device{{Name: "r1", Address: "192.0.2.1"}},
		inventory.Credentials{Username: "u", Password: "p"}, inventory.Options{Platform: "junos"})

	cmd := &fakeCommander{}
	task := newTestTask(t, cmd, inv, &bytes.Buffer{})

	res := task.Run(context.Background(), inv.Hosts[0])
	assert.ErrorIs(t, res.Err, ErrRemoteCommand)
	assert.Empty(t, cmd.targets)
}

func TestRunWriteFailure(t *testing.T) {
	inv := testInventory()
	task := newTestTask(t, &fakeCommander{}, inv, &bytes.Buffer{})
	task.Dir = filepath.Join(task.Dir, "missing")

	res := task.Run(context.Background(), inv.Hosts[0])
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, ErrWrite)
}

func TestRunSameSecondOverwrites(t *testing.T) {
	inv := testInventory()
	task := newTestTask(t, &fakeCommander{}, inv, nil)

	first := task.Run(context.Background(), inv.Hosts[0])
	second := task.Run(context.Background(), inv.Hosts[0])
	require.True(t, first.OK)
	require.True(t, second.OK)
	assert.Equal(t, first.Path, second.Path)

	other := task.Run(context.Background(), inv.Hosts[1])
	assert.NotEqual(t, first.Path, other.Path)

	entries, err := os.ReadDir(task.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
