package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "daub.yml")
	err := os.WriteFile(configPath, []byte(content), 0644)
	require.NoError(t, err)
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `version: "1.0"
identity: "0xabc"
ledger:
  redis_url: "redis://ledger:6380/2"
canvas:
  id: "0xcanvas"
  size: 32
  cell_size: 12.5
controller:
  submit_timeout: 10s
  rate_limit: 2.5
  rate_burst: 4
watch:
  interval: 1500ms
server:
  listen_addr: "127.0.0.1:9000"
`)

	config, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", config.Identity)
	assert.Equal(t, "redis://ledger:6380/2", config.Ledger.RedisURL)
	assert.Equal(t, &CanvasConfig{ID: "0xcanvas", Size: 32, CellSize: 12.5}, config.Canvas)
	assert.Equal(t, &ControllerConfig{SubmitTimeout: 10 * time.Second, RateLimit: 2.5, RateBurst: 4}, config.Controller)
	assert.Equal(t, 1500*time.Millisecond, config.Watch.Interval)
	assert.Equal(t, "127.0.0.1:9000", config.Server.ListenAddr)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	config, err := Load(writeConfig(t, `version: "1.0"`))
	require.NoError(t, err)

	assert.Empty(t, config.Identity)
	assert.Empty(t, config.Canvas.ID)
	assert.Equal(t, DefaultRedisURL, config.Ledger.RedisURL)
	assert.Equal(t, DefaultCanvasSize, config.Canvas.Size)
	assert.Equal(t, float64(DefaultCellSize), config.Canvas.CellSize)
	assert.Equal(t, DefaultSubmitTimeout, config.Controller.SubmitTimeout)
	assert.Zero(t, config.Controller.RateLimit)
	assert.Equal(t, 1, config.Controller.RateBurst)
	assert.Equal(t, DefaultWatchInterval, config.Watch.Interval)
	assert.Equal(t, DefaultListenAddr, config.Server.ListenAddr)
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/daub.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	config, err := Load(writeConfig(t, `version: "1.0"
canvas:
  - this is invalid
    yaml syntax
`))
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unsupported version", `version: "2.0"`, "unsupported version: 2.0"},
		{"missing version", `identity: "0xabc"`, "unsupported version"},
		{"bad redis url", "version: \"1.0\"\nledger:\n  redis_url: \"http://localhost\"", "ledger.redis_url"},
		{"negative size", "version: \"1.0\"\ncanvas:\n  size: -1", "canvas.size"},
		{"negative cell size", "version: \"1.0\"\ncanvas:\n  cell_size: -2", "canvas.cell_size"},
		{"negative timeout", "version: \"1.0\"\ncontroller:\n  submit_timeout: -1s", "controller.submit_timeout"},
		{"negative rate", "version: \"1.0\"\ncontroller:\n  rate_limit: -1", "controller.rate_limit"},
		{"negative burst", "version: \"1.0\"\ncontroller:\n  rate_burst: -1", "controller.rate_burst"},
		{"negative interval", "version: \"1.0\"\nwatch:\n  interval: -5s", "watch.interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Run("overrides file values", func(t *testing.T) {
		config, err := Load(writeConfig(t, `version: "1.0"
identity: "0xfile"
canvas:
  id: "0xfilecanvas"
`))
		require.NoError(t, err)

		err = config.ApplyEnv(map[string]string{
			"DAUB_REDIS_URL":      "redis://env:6379/1",
			"DAUB_CANVAS_ID":      "0xenvcanvas",
			"DAUB_IDENTITY":       "0xenv",
			"DAUB_LISTEN_ADDR":    ":9999",
			"DAUB_WATCH_INTERVAL": "250ms",
		})
		require.NoError(t, err)
		assert.Equal(t, "redis://env:6379/1", config.Ledger.RedisURL)
		assert.Equal(t, "0xenvcanvas", config.Canvas.ID)
		assert.Equal(t, "0xenv", config.Identity)
		assert.Equal(t, ":9999", config.Server.ListenAddr)
		assert.Equal(t, 250*time.Millisecond, config.Watch.Interval)
	})

	t.Run("unset variables keep file values", func(t *testing.T) {
		config := Default()
		config.Identity = "0xfile"
		require.NoError(t, config.ApplyEnv(map[string]string{}))
		assert.Equal(t, "0xfile", config.Identity)
		assert.Equal(t, DefaultRedisURL, config.Ledger.RedisURL)
	})

	t.Run("rejects malformed duration", func(t *testing.T) {
		config := Default()
		err := config.ApplyEnv(map[string]string{"DAUB_WATCH_INTERVAL": "soon"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "parse env")
	})

	t.Run("re-validates overrides", func(t *testing.T) {
		config := Default()
		err := config.ApplyEnv(map[string]string{"DAUB_REDIS_URL": "ftp://x"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "ledger.redis_url")
	})

	t.Run("reads the process environment", func(t *testing.T) {
		t.Setenv("DAUB_IDENTITY", "0xprocess")
		config := Default()
		require.NoError(t, config.ApplyEnv(nil))
		assert.Equal(t, "0xprocess", config.Identity)
	})
}

func TestResolve(t *testing.T) {
	t.Run("missing default file falls back to defaults", func(t *testing.T) {
		chdir(t, t.TempDir())
		config, err := Resolve(DefaultPath, map[string]string{"DAUB_CANVAS_ID": "0xc"})
		require.NoError(t, err)
		assert.Equal(t, "0xc", config.Canvas.ID)
		assert.Equal(t, DefaultCanvasSize, config.Canvas.Size)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := Resolve(filepath.Join(t.TempDir(), "custom.yml"), nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config")
	})

	t.Run("invalid default file is still an error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultPath), []byte(`version: "9"`), 0644))
		chdir(t, dir)
		_, err := Resolve(DefaultPath, map[string]string{})
		assert.Error(t, err)
	})
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	previous, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(previous)) })
}
