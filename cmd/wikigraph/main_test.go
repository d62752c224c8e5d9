package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const savedGraph = `{
  "nodes": [
    {"id": 0, "label": "Moon", "url": "https://en.wikipedia.org/wiki/Moon", "type": "wikipedia"},
    {"id": 1, "label": "Tides", "url": "https://en.wikipedia.org/wiki/Tide", "type": "wikipedia"}
  ],
  "edges": [{"id": "e-1", "from": 0, "to": 1}],
  "metadata": {"version": "3.2", "nodeCount": 2, "edgeCount": 1, "language": "en"}
}`

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	return rootCmd.Execute()
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "graph.json")
	require.NoError(t, os.WriteFile(good, []byte(savedGraph), 0o644))
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"nodes":[]}`), 0o644))

	assert.NoError(t, runCLI(t, "inspect", "--edges", good))
	assert.Error(t, runCLI(t, "inspect", broken))
	assert.Error(t, runCLI(t, "inspect", filepath.Join(dir, "missing.json")))
}

func TestFetch_RequiresURL(t *testing.T) {
	err := runCLI(t, "fetch")

	assert.EqualError(t, err, "a url is required unless --random is set")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Moon", truncate("Moon", 10))
	assert.Equal(t, "Луна и…", truncate("Луна и Земля", 7))
}
