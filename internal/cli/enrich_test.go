package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/adaslog/internal/logging"
)

func overpassServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "around:20,") {
			w.Write([]byte(`{"elements":[{"type":"way","tags":{"highway":"primary"}}]}`))
			return
		}
		w.Write([]byte(`{"elements":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeInputCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestEnrich_AppendsRoadTypeColumn(t *testing.T) {
	var calls int32
	srv := overpassServer(t, &calls)

	cfg := testConfig(t)
	cfg.Enrich.OverpassURL = srv.URL

	in := writeInputCSV(t, `"Type","Timestamp","Latitude","Longitude"`+"\n"+
		`"brake","2024-03-09T14:30:00.000Z","51.505","-0.09"`+"\n"+
		`"horn","2024-03-09T14:30:01.000Z","",""`)

	cmd := &EnrichCommand{globals: &GlobalFlags{}, Throttle: 0}
	cmd.Args.Input = in

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithConfig(cfg, logging.Discard()))
	})

	out := in + ".with_roads.csv"
	assert.Equal(t, "Wrote: "+out, strings.TrimSpace(output))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	want := `"Type","Timestamp","Latitude","Longitude","RoadType"` + "\n" +
		`"brake","2024-03-09T14:30:00.000Z","51.505","-0.09","primary"` + "\n" +
		`"horn","2024-03-09T14:30:01.000Z","","",""` + "\n"
	assert.Equal(t, want, string(data))
}

func TestEnrich_JSONSummaryAndExplicitOutput(t *testing.T) {
	var calls int32
	srv := overpassServer(t, &calls)

	cfg := testConfig(t)
	cfg.Enrich.OverpassURL = srv.URL

	in := writeInputCSV(t, "Type,Timestamp,Latitude,Longitude\nbrake,t,1,2\nhorn,t,3,4\n")
	out := filepath.Join(t.TempDir(), "roads.csv")

	cmd := &EnrichCommand{globals: &GlobalFlags{JSON: true}, Throttle: 0}
	cmd.Args.Input = in
	cmd.Args.Output = out

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithConfig(cfg, logging.Discard()))
	})

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	assert.Equal(t, out, result["output"])
	assert.Equal(t, float64(2), result["rows"])
	assert.Equal(t, float64(2), result["queried"])
	assert.Equal(t, float64(2), result["found"])
	assert.FileExists(t, out)
}

func TestEnrich_MissingInput(t *testing.T) {
	cfg := testConfig(t)
	cmd := &EnrichCommand{globals: &GlobalFlags{}, Throttle: 0}
	cmd.Args.Input = filepath.Join(t.TempDir(), "nope.csv")

	err := cmd.executeWithConfig(cfg, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open input")
}
