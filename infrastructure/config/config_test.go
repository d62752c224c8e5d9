package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, ":8091", cfg.ServerAddress)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, 10, cfg.Limits.LinkLimit)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, SnapshotBackendSQLite, cfg.SnapshotBackend)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_OverlayThenEnvironment(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "wikigraph.yaml")
	writeFile(t, path, `
serverAddress: ":9000"
language: ru
fetchTimeout: 45s
limits:
  linkLimit: 25
  thumbnailMaxSize: 320
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LINK_LIMIT", "40")
	t.Setenv("FETCH_TIMEOUT", "12")

	// Act
	cfg, err := LoadConfig()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ServerAddress)
	assert.Equal(t, "ru", cfg.Language)
	assert.Equal(t, 12*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 40, cfg.Limits.LinkLimit)
	assert.Equal(t, 320, cfg.Limits.ThumbnailMaxSize)

	rules := cfg.DomainConfig()
	assert.Equal(t, 40, rules.LinkLimit)
	assert.Equal(t, 320, rules.ThumbnailMaxSize)
	assert.Equal(t, 30, rules.LabelMaxLength)
	assert.Equal(t, "ru", rules.DefaultLanguage)
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		overlay string
	}{
		{name: "unknown backend", env: map[string]string{"SNAPSHOT_BACKEND": "mongo"}},
		{name: "unknown environment", env: map[string]string{"ENVIRONMENT": "qa"}},
		{name: "eventbridge without bus", env: map[string]string{"ENABLE_EVENTBRIDGE": "true"}, overlay: "eventBusName: \"\"\n"},
		{name: "unknown overlay key", overlay: "languages: ru\n"},
		{name: "limit out of range", overlay: "limits:\n  linkLimit: 5000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.overlay != "" {
				path := filepath.Join(t.TempDir(), "c.yaml")
				writeFile(t, path, tt.overlay)
				t.Setenv("CONFIG_FILE", path)
			}

			_, err := LoadConfig()

			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingOverlay(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := LoadConfig()

	assert.Error(t, err)
}

func TestLimitsApplyTo_IgnoresZero(t *testing.T) {
	rules := Default().DomainConfig()

	Limits{LabelMaxLength: 40}.ApplyTo(rules)

	assert.Equal(t, 40, rules.LabelMaxLength)
	assert.Equal(t, 10, rules.LinkLimit)
	assert.Equal(t, 200, rules.ThumbnailMaxSize)
}

func TestLogsDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout is linux only")
	}
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	assert.Equal(t, filepath.Join(dir, AppName), DataDir())
	assert.Equal(t, filepath.Join(dir, AppName, "logs"), LogsDir())
}
