package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/adaslog/internal/logging"
	"github.com/runnerr0/adaslog/internal/storage"
)

func TestExport_EmptyStoreWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	store := testStore(t, cfg)

	cmd := &ExportCommand{globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, cfg, logging.Discard()))
	})

	assert.Equal(t, "No events to export", strings.TrimSpace(output))
	_, err := os.Stat(cfg.Export.Dir)
	assert.True(t, os.IsNotExist(err))
}

func TestExport_WritesCSV(t *testing.T) {
	cfg := testConfig(t)
	store := testStore(t, cfg)

	base := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
	seedEvents(t, store,
		storage.NewEvent("brake", base).WithLocation(51.505, -0.09),
		storage.NewEvent(`say "hi"`, base.Add(time.Second)),
	)

	dir := t.TempDir()
	cmd := &ExportCommand{globals: &GlobalFlags{}, Dir: dir}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, cfg, logging.Discard()))
	})

	assert.Contains(t, output, "CSV exported")
	assert.Contains(t, output, "Wrote: ")

	matches, err := filepath.Glob(filepath.Join(dir, "adas-events-*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	want := `"Type","Timestamp","Latitude","Longitude"` + "\n" +
		`"brake","2024-03-09T14:30:00.000Z","51.505","-0.09"` + "\n" +
		`"say ""hi""","2024-03-09T14:30:01.000Z","",""`
	assert.Equal(t, want, string(data))
}

func TestExport_JSON(t *testing.T) {
	cfg := testConfig(t)
	store := testStore(t, cfg)
	seedEvents(t, store, storage.NewEvent("horn", time.Now()))

	cmd := &ExportCommand{globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, cfg, logging.Discard()))
	})

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	assert.Equal(t, true, result["exported"])
	assert.Equal(t, float64(1), result["rows"])
	assert.Equal(t, "CSV exported", result["status"])
	assert.FileExists(t, result["file"].(string))
}

func TestExport_JSONEmpty(t *testing.T) {
	cfg := testConfig(t)
	store := testStore(t, cfg)

	cmd := &ExportCommand{globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, cfg, logging.Discard()))
	})

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	assert.Equal(t, false, result["exported"])
	assert.Equal(t, "No events to export", result["status"])
}
