package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRecordRun(t *testing.T) {
	m := New()
	m.RecordRun("rendered", 20*time.Millisecond, 512, 2)
	m.RecordRun("rendered", 10*time.Millisecond, 256, 0)
	m.RecordRun("import", 5*time.Millisecond, 64, 0)

	out := scrape(t, m)
	assert.Contains(t, out, `tsxrunner_runs_total{outcome="rendered"} 2`)
	assert.Contains(t, out, `tsxrunner_runs_total{outcome="import"} 1`)
	assert.Contains(t, out, `tsxrunner_console_entries_total 2`)
	assert.Contains(t, out, `tsxrunner_run_duration_seconds_count{stage="total"} 3`)

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.Runs)
	assert.Equal(t, int64(2), snap.ByOutcome["rendered"])
	assert.Equal(t, 35*time.Millisecond, snap.TotalDuration)
}

func TestSnapshotIsCopy(t *testing.T) {
	m := New()
	m.RecordRun("rendered", time.Millisecond, 1, 0)

	snap := m.Snapshot()
	snap.ByOutcome["rendered"] = 99

	assert.Equal(t, int64(1), m.Snapshot().ByOutcome["rendered"])
}

func TestRecordHTTPRequestAndStages(t *testing.T) {
	m := New()
	m.RecordHTTPRequest("POST", "/api/run", "200", 3*time.Millisecond)
	m.ObserveStage("compile", time.Millisecond)
	m.WSConnections.Inc()

	out := scrape(t, m)
	assert.Contains(t, out, `tsxrunner_http_requests_total{method="POST",route="/api/run",status="200"} 1`)
	assert.Contains(t, out, `tsxrunner_run_duration_seconds_count{stage="compile"} 1`)
	assert.Contains(t, out, `tsxrunner_ws_connections 1`)
}

func TestIndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordRun("rendered", time.Millisecond, 1, 0)

	assert.Equal(t, int64(0), b.Snapshot().Runs)
	assert.NotSame(t, a.Registry(), b.Registry())
}
