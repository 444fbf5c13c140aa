package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphmirror/internal/reconcile"
)

// isolate runs the test from an empty directory with an empty home so no
// real config file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "graphmirror.db", cfg.Database)
	assert.Empty(t, cfg.Viewer)
	assert.Empty(t, cfg.File)
	assert.Equal(t, Log{
		Level:      "info",
		Format:     "text",
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}, cfg.Log)
	assert.Equal(t, reconcile.DefaultBatchSizes(), cfg.Batch)
}

func TestLoadExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(filepath.Join("testdata", "graphmirror.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/graphmirror/mirror.db", cfg.Database)
	assert.Equal(t, "alice", cfg.Viewer)
	assert.Equal(t, "fixtures.yaml", cfg.Fixture)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 7, cfg.Log.MaxBackups)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB, "unset keys keep defaults")
	assert.Equal(t, 5, cfg.Batch.Photo)
	assert.Equal(t, 3, cfg.Batch.Link)
	assert.Equal(t, filepath.Join("testdata", "graphmirror.yaml"), cfg.File)

	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadSearchPath(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".config", "graphmirror")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graphmirror.yaml"), []byte("viewer: bob\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.Viewer)
	assert.Equal(t, filepath.Join(dir, "graphmirror.yaml"), cfg.File)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("GRAPHMIRROR_VIEWER", "carol")
	t.Setenv("GRAPHMIRROR_LOG_LEVEL", "warn")
	t.Setenv("GRAPHMIRROR_BATCH_USER", "25")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "carol", cfg.Viewer)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 25, cfg.Batch.User)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr string
	}{
		{
			name: "missing explicit file",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope.yaml")
			},
			wantErr: "read config",
		},
		{
			name: "bad log format",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "c.yaml")
				require.NoError(t, os.WriteFile(path, []byte("log:\n  format: xml\n"), 0o644))
				return path
			},
			wantErr: "log.format must be text or json",
		},
		{
			name: "bad log level",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "c.yaml")
				require.NoError(t, os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o644))
				return path
			},
			wantErr: "log.level",
		},
		{
			name: "zero batch size",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "c.yaml")
				require.NoError(t, os.WriteFile(path, []byte("batch:\n  photo: 0\n"), 0o644))
				return path
			},
			wantErr: "batch.photo must be positive",
		},
		{
			name: "malformed yaml",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "c.yaml")
				require.NoError(t, os.WriteFile(path, []byte("log: [\n"), 0o644))
				return path
			},
			wantErr: "read config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := Load(tt.setup(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
