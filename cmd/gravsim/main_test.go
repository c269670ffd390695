package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/gravsim/internal/storage"
)

func execute(t *testing.T, args ...string) {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
}

func TestRunSaveAndExport(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "runs")

	execute(t, "run", "--data", data, "--preset", "earth-apple", "--output", "none", "--save", "--log-level", "error")

	runs, err := storage.New(data).List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	id := runs[0].ID
	assert.Equal(t, 101, runs[0].Steps)

	jsonPath := filepath.Join(dir, "run.json")
	execute(t, "export-json", id, "--data", data, "--out", jsonPath, "--log-level", "error")
	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var doc struct {
		Trajectory *storage.Trajectory `json:"trajectory"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.NotNil(t, doc.Trajectory)
	assert.Equal(t, []string{"earth", "apple"}, doc.Trajectory.Labels)
	assert.Len(t, doc.Trajectory.Times, 101)

	svgPath := filepath.Join(dir, "run.svg")
	execute(t, "export-svg", id, "--data", data, "--out", svgPath, "--log-level", "error")
	svg, err := os.ReadFile(svgPath)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(svg), "<path"))
}

func TestUnknownPreset(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"run", "--preset", "nope", "--output", "none"})
	assert.ErrorContains(t, cmd.Execute(), "nope")
}
