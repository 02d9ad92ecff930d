// Package launcher finds the Clustta Agent binary and starts it when the
// agent is not already answering on its local port.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

const binaryName = "clustta-agent"

// ErrAgentNotFound is returned when no candidate path holds an agent binary.
var ErrAgentNotFound = errors.New("clustta agent binary not found")

// HealthChecker reports whether the agent is up.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (bool, error)
}

// PollConfig controls how long Launch waits for a started agent.
type PollConfig struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFraction float64 // 0.0 to 1.0
	Timeout        time.Duration
}

// DefaultPollConfig returns the polling used by the CLI.
func DefaultPollConfig() *PollConfig {
	return &PollConfig{
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		JitterFraction: 0.25,
		Timeout:        15 * time.Second,
	}
}

// Result describes what Launch did.
type Result struct {
	Path           string // binary started; empty when the agent was already running
	AlreadyRunning bool
}

// Launcher starts the agent process.
type Launcher struct {
	health HealthChecker
	poll   *PollConfig
	logger *slog.Logger

	goos       string
	getenv     func(string) string
	homeDir    func() (string, error)
	executable func() (string, error)
	lookPath   func(string) (string, error)
	start      func(path string) error
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(ln *Launcher) {
		if l != nil {
			ln.logger = l
		}
	}
}

// WithPollConfig overrides the health polling schedule.
func WithPollConfig(cfg *PollConfig) Option {
	return func(ln *Launcher) {
		if cfg != nil {
			ln.poll = cfg
		}
	}
}

// New creates a Launcher that uses health to detect a running agent.
func New(health HealthChecker, opts ...Option) *Launcher {
	l := &Launcher{
		health:     health,
		poll:       DefaultPollConfig(),
		logger:     slog.New(slog.DiscardHandler),
		goos:       runtime.GOOS,
		getenv:     os.Getenv,
		homeDir:    os.UserHomeDir,
		executable: os.Executable,
		lookPath:   exec.LookPath,
		start:      startDetached,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Launcher) binaryFile() string {
	if l.goos == "windows" {
		return binaryName + ".exe"
	}
	return binaryName
}

// systemPath returns where the Clustta installer puts the agent on this OS.
func (l *Launcher) systemPath() string {
	bin := l.binaryFile()
	switch l.goos {
	case "windows":
		dir := l.getenv("LOCALAPPDATA")
		if dir == "" {
			return ""
		}
		return filepath.Join(dir, "Clustta", bin)
	case "darwin":
		home, err := l.homeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, "Library", "Application Support", "Clustta", bin)
	default:
		home, err := l.homeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, ".local", "bin", bin)
	}
}

// Candidates lists the paths tried for the agent binary, in order: explicit,
// bundled next to the running executable, the system install location, then
// $PATH. Duplicates and unknown locations are dropped.
func (l *Launcher) Candidates(explicit string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	add(explicit)
	if exe, err := l.executable(); err == nil {
		add(filepath.Join(filepath.Dir(exe), "agent", l.binaryFile()))
	}
	add(l.systemPath())
	if p, err := l.lookPath(l.binaryFile()); err == nil {
		add(p)
	}
	return out
}

// Resolve returns the first candidate that exists as a regular file.
func (l *Launcher) Resolve(explicit string) (string, error) {
	candidates := l.Candidates(explicit)
	for _, p := range candidates {
		info, err := os.Stat(p)
		if err == nil && info.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w (tried %d locations)", ErrAgentNotFound, len(candidates))
}

// Launch starts the agent unless it is already healthy, then waits for its
// health check to pass.
func (l *Launcher) Launch(ctx context.Context, explicit string) (*Result, error) {
	if ok, _ := l.health.HealthCheck(ctx); ok {
		return &Result{AlreadyRunning: true}, nil
	}

	path, err := l.Resolve(explicit)
	if err != nil {
		return nil, err
	}

	l.logger.Info("starting agent", "path", path)
	if err := l.start(path); err != nil {
		return nil, fmt.Errorf("start agent %s: %w", path, err)
	}

	if err := l.waitHealthy(ctx); err != nil {
		return nil, fmt.Errorf("agent %s started but is not answering: %w", path, err)
	}
	return &Result{Path: path}, nil
}

func (l *Launcher) waitHealthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.poll.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; ; attempt++ {
		ok, err := l.health.HealthCheck(ctx)
		if ok {
			return nil
		}
		lastErr = err
		l.logger.Debug("agent not ready", "attempt", attempt+1, "error", err)

		if err := sleep(ctx, l.backoff(attempt)); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%w (last error: %v)", err, lastErr)
			}
			return err
		}
	}
}

// backoff computes the delay for the given attempt with jitter.
func (l *Launcher) backoff(attempt int) time.Duration {
	base := float64(l.poll.InitialBackoff) * math.Pow(2, float64(attempt))
	if base > float64(l.poll.MaxBackoff) {
		base = float64(l.poll.MaxBackoff)
	}
	jitter := base * l.poll.JitterFraction * (rand.Float64()*2 - 1)
	d := time.Duration(base + jitter)
	if d < 0 {
		d = 0
	}
	return d
}

// sleep waits for the given duration or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startDetached runs the agent with stdio discarded and does not wait for it.
func startDetached(path string) error {
	cmd := exec.Command(path)
	cmd.Dir = filepath.Dir(path)
	cmd.SysProcAttr = sysProcAttr()
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
