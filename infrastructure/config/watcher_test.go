package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsLimits(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "wikigraph.yaml")
	writeFile(t, path, "limits:\n  linkLimit: 10\n")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond
	defer w.Stop()

	changes := make(chan Limits, 4)
	w.OnChange(func(l Limits) { changes <- l })
	w.Start()

	// Act: replace the file the way editors do, so no half-written
	// version is observed
	tmp := path + ".tmp"
	writeFile(t, tmp, "limits:\n  linkLimit: 15\n  labelMaxLength: 48\n")
	require.NoError(t, os.Rename(tmp, path))

	// Assert
	select {
	case got := <-changes:
		assert.Equal(t, Limits{LinkLimit: 15, LabelMaxLength: 48}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
	assert.Equal(t, 15, w.Current().LinkLimit)
}

func TestWatcher_KeepsLimitsOnInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wikigraph.yaml")
	writeFile(t, path, "limits:\n  linkLimit: 10\n")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	defer w.Stop()

	writeFile(t, path, "limits: [not, a, map]\n")
	w.reload()

	assert.Equal(t, 10, w.Current().LinkLimit)
}

func TestNewWatcher_MissingFile(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "absent.yaml"), nil)

	assert.Error(t, err)
}

func TestWatcher_StopTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wikigraph.yaml")
	writeFile(t, path, "")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	w.Start()

	w.Stop()
	w.Stop()
}
