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

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveFit("logit", true, 20*time.Millisecond)
	m.ObserveFit("logit", false, time.Millisecond)
	m.ObservePredictions(10, 7, 2)
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()
	m.ObserveArtifact("save")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FitsTotal.WithLabelValues("logit", "converged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FitsTotal.WithLabelValues("logit", "not_converged")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.PredictionsRows))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.PredictionsUps.WithLabelValues("inserted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ArtifactOps.WithLabelValues("save")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveFit("probit", true, time.Second)
	path := filepath.Join(t.TempDir(), "studentperf.prom")

	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `studentperf_fits_total{kind="probit",outcome="converged"} 1`)
}
