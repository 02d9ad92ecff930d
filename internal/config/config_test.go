package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAgentURL, EnvTimeout, EnvAgentPath, EnvLogLevel} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "none", ConfigFile)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:1173", cfg.AgentURL)
	assert.Equal(t, 5*time.Second, cfg.TimeoutDuration())
	assert.Equal(t, slog.LevelWarn, cfg.Level())
	assert.Equal(t, ".blend", cfg.AssetExtension)
	assert.Equal(t, path, cfg.Path())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(`
agent_url = "http://127.0.0.1:2000"
timeout = "2s"
agent_path = "/opt/clustta/clustta-agent"
log_level = "debug"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:2000", cfg.AgentURL)
	assert.Equal(t, 2*time.Second, cfg.TimeoutDuration())
	assert.Equal(t, "/opt/clustta/clustta-agent", cfg.AgentPath)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, ".blend", cfg.AssetExtension)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(`agent_url = "http://127.0.0.1:2000"`), 0644))

	t.Setenv(EnvAgentURL, "http://127.0.0.1:3000")
	t.Setenv(EnvTimeout, "750ms")
	t.Setenv(EnvLogLevel, "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:3000", cfg.AgentURL)
	assert.Equal(t, 750*time.Millisecond, cfg.TimeoutDuration())
	assert.Equal(t, slog.LevelError, cfg.Level())
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(EnvAgentPath)
	require.NoError(t, os.WriteFile(EnvFile, []byte("CLUSTTA_AGENT_PATH=/from/dotenv/clustta-agent\n"), 0644))
	t.Cleanup(func() { os.Unsetenv(EnvAgentPath) })

	cfg, err := Load(filepath.Join(t.TempDir(), ConfigFile))
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv/clustta-agent", cfg.AgentPath)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad toml", `agent_url = `, "failed to parse config"},
		{"bad scheme", `agent_url = "ftp://127.0.0.1:1173"`, "scheme must be http or https"},
		{"no host", `agent_url = "http://"`, "must include a host"},
		{"bad timeout", `timeout = "soon"`, "invalid timeout"},
		{"negative timeout", `timeout = "-1s"`, "must be positive"},
		{"bad level", `log_level = "loud"`, "invalid log_level"},
		{"bad extension", `asset_extension = "blend"`, "must start with a dot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := filepath.Join(t.TempDir(), ConfigFile)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", ConfigFile)

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.AgentPath = "/usr/local/bin/clustta-agent"
	require.NoError(t, cfg.Save())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/clustta-agent", loaded.AgentPath)
}
