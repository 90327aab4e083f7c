package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunGauges(t *testing.T) {
	run := NewRun("abc")
	run.RowsLoaded.Set(120)
	run.Candidates.Set(7)
	run.OutputsWritten.Inc()
	run.OutputsWritten.Inc()
	run.ObserveStep("load", 1500*time.Millisecond)

	assert.Equal(t, 120.0, testutil.ToFloat64(run.RowsLoaded))
	assert.Equal(t, 7.0, testutil.ToFloat64(run.Candidates))
	assert.Equal(t, 2.0, testutil.ToFloat64(run.OutputsWritten))
	assert.Equal(t, 1.5, testutil.ToFloat64(run.stepSeconds.WithLabelValues("load")))

	n, err := testutil.GatherAndCount(run.registry)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
}

func TestWriteTextfile(t *testing.T) {
	run := NewRun("abc")
	run.Countries.Set(3)
	run.ObserveStep("fit", 2*time.Second)

	path := filepath.Join(t.TempDir(), "outputs", "metrics.prom")
	require.NoError(t, run.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, `atlas_countries{run_id="abc"} 3`)
	assert.Contains(t, body, `atlas_step_duration_seconds{run_id="abc",step="fit"} 2`)
	assert.Contains(t, body, "# HELP atlas_rows_loaded")
}
