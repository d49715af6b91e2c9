package scaffold

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dyluth/daub/internal/config"
	"github.com/dyluth/daub/internal/printer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	printer.SetOutput(io.Discard, io.Discard)
	t.Cleanup(func() { printer.SetOutput(nil, nil) })

	t.Run("fresh directory", func(t *testing.T) {
		dir := t.TempDir()

		path, err := Initialize(dir, Values{Identity: "0xme", CanvasID: "abc"}, false)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "daub.yml"), path)

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "0xme", cfg.Identity)
		assert.Equal(t, "abc", cfg.Canvas.ID)
		assert.Equal(t, config.DefaultRedisURL, cfg.Ledger.RedisURL)
		assert.Equal(t, config.DefaultCanvasSize, cfg.Canvas.Size)
	})

	t.Run("custom values", func(t *testing.T) {
		dir := t.TempDir()

		path, err := Initialize(dir, Values{RedisURL: "redis://ledger:6379/2", Size: 32}, false)
		require.NoError(t, err)

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "redis://ledger:6379/2", cfg.Ledger.RedisURL)
		assert.Equal(t, 32, cfg.Canvas.Size)
		assert.Empty(t, cfg.Identity)
	})

	t.Run("force replaces existing file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "daub.yml"), []byte("old content"), 0644))

		path, err := Initialize(dir, Values{Identity: "0xnew"}, true)
		require.NoError(t, err)

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "0xnew", cfg.Identity)
	})
}

func TestCheckExisting(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, CheckExisting(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "daub.yml"), []byte("version: \"1.0\"\n"), 0644))
	err := CheckExisting(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daub init --force")
}
