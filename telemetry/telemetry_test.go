package telemetry_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"reduction.dev/refptr/telemetry"
)

func TestObserveTrial_ServedByHandler(t *testing.T) {
	telemetry.ObserveTrial("embedded", time.Millisecond, true)
	telemetry.ObserveTrial("embedded", time.Millisecond, false)

	srv := httptest.NewServer(telemetry.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `refs_stress_trial_results_total{outcome="ok",shape="embedded"} 1`)
	assert.Contains(t, string(body), `refs_stress_trial_results_total{outcome="failed",shape="embedded"} 1`)
	assert.Contains(t, string(body), `refs_stress_trial_duration_seconds_count{shape="embedded"} 2`)
}
