package launcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHealth turns healthy after a number of checks.
type fakeHealth struct {
	mu        sync.Mutex
	calls     int
	healthyAt int // 0 means never
}

func (f *fakeHealth) HealthCheck(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.healthyAt > 0 && f.calls >= f.healthyAt {
		return true, nil
	}
	return false, errors.New("connection refused")
}

func fastPoll(timeout time.Duration) *PollConfig {
	return &PollConfig{
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Timeout:        timeout,
	}
}

func newTestLauncher(t *testing.T, health HealthChecker, goos string) *Launcher {
	t.Helper()
	l := New(health, WithPollConfig(fastPoll(time.Second)))
	l.goos = goos
	l.getenv = func(k string) string {
		if k == "LOCALAPPDATA" {
			return "/appdata"
		}
		return ""
	}
	l.homeDir = func() (string, error) { return "/home/ada", nil }
	l.executable = func() (string, error) { return "/opt/blender/clustta", nil }
	l.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	l.start = func(string) error { return errors.New("unexpected start") }
	return l
}

func TestCandidates_Order(t *testing.T) {
	l := newTestLauncher(t, &fakeHealth{}, "linux")
	l.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }

	assert.Equal(t, []string{
		"/custom/clustta-agent",
		filepath.Join("/opt/blender", "agent", "clustta-agent"),
		filepath.Join("/home/ada", ".local", "bin", "clustta-agent"),
		"/usr/bin/clustta-agent",
	}, l.Candidates("/custom/clustta-agent"))
}

func TestCandidates_PerOS(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"windows", filepath.Join("/appdata", "Clustta", "clustta-agent.exe")},
		{"darwin", filepath.Join("/home/ada", "Library", "Application Support", "Clustta", "clustta-agent")},
		{"linux", filepath.Join("/home/ada", ".local", "bin", "clustta-agent")},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			l := newTestLauncher(t, &fakeHealth{}, tt.goos)
			got := l.Candidates("")
			require.Len(t, got, 2)
			assert.Equal(t, tt.want, got[1])
		})
	}
}

func TestCandidates_DropsDuplicatesAndUnknown(t *testing.T) {
	l := newTestLauncher(t, &fakeHealth{}, "windows")
	l.getenv = func(string) string { return "" }
	l.executable = func() (string, error) { return "", errors.New("no executable") }
	l.lookPath = func(string) (string, error) { return "/tools/clustta-agent.exe", nil }

	assert.Equal(t, []string{"/tools/clustta-agent.exe"}, l.Candidates("/tools/clustta-agent.exe"))
}

func TestResolve_FirstExisting(t *testing.T) {
	dir := t.TempDir()
	l := newTestLauncher(t, &fakeHealth{}, "linux")
	l.homeDir = func() (string, error) { return dir, nil }

	system := filepath.Join(dir, ".local", "bin", "clustta-agent")
	require.NoError(t, os.MkdirAll(filepath.Dir(system), 0755))
	require.NoError(t, os.WriteFile(system, []byte("#!/bin/sh\n"), 0755))

	got, err := l.Resolve(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Equal(t, system, got)
}

func TestResolve_SkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	l := newTestLauncher(t, &fakeHealth{}, "linux")
	l.homeDir = func() (string, error) { return dir, nil }
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".local", "bin", "clustta-agent"), 0755))

	_, err := l.Resolve("")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestLaunch_AlreadyRunning(t *testing.T) {
	health := &fakeHealth{healthyAt: 1}
	l := newTestLauncher(t, health, "linux")

	res, err := l.Launch(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, res.AlreadyRunning)
	assert.Empty(t, res.Path)
	assert.Equal(t, 1, health.calls)
}

func TestLaunch_NotFound(t *testing.T) {
	l := newTestLauncher(t, &fakeHealth{}, "linux")
	l.homeDir = func() (string, error) { return t.TempDir(), nil }

	_, err := l.Launch(context.Background(), "")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestLaunch_StartsAndWaits(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "clustta-agent")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755))

	health := &fakeHealth{healthyAt: 4}
	l := newTestLauncher(t, health, "linux")
	var started string
	l.start = func(path string) error {
		started = path
		return nil
	}

	res, err := l.Launch(context.Background(), bin)
	require.NoError(t, err)
	assert.Equal(t, bin, started)
	assert.Equal(t, bin, res.Path)
	assert.False(t, res.AlreadyRunning)
	assert.Equal(t, 4, health.calls)
}

func TestLaunch_StartFailure(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "clustta-agent")
	require.NoError(t, os.WriteFile(bin, []byte("x"), 0755))

	l := newTestLauncher(t, &fakeHealth{}, "linux")
	l.start = func(string) error { return errors.New("exec format error") }

	_, err := l.Launch(context.Background(), bin)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exec format error")
}

func TestLaunch_NeverHealthy(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "clustta-agent")
	require.NoError(t, os.WriteFile(bin, []byte("x"), 0755))

	l := newTestLauncher(t, &fakeHealth{}, "linux")
	l.poll = fastPoll(30 * time.Millisecond)
	l.start = func(string) error { return nil }

	_, err := l.Launch(context.Background(), bin)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestBackoff(t *testing.T) {
	l := New(&fakeHealth{}, WithPollConfig(&PollConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Timeout:        time.Second,
	}))

	assert.Equal(t, 100*time.Millisecond, l.backoff(0))
	assert.Equal(t, 200*time.Millisecond, l.backoff(1))
	assert.Equal(t, 400*time.Millisecond, l.backoff(2))
	assert.Equal(t, time.Second, l.backoff(10))
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
}
