package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFit(t *testing.T) {
	m := NewTraining()
	m.ObserveFit("GradientDescent", "60", 120*time.Millisecond, 842, 0.25)
	m.ObserveFit("ClosedForm", "60", 5*time.Millisecond, -1, -1)
	m.ObserveSaved("GradientDescent", "60")
	m.ObserveSaved("GradientDescent", "60")

	assert.Equal(t, 842.0, testutil.ToFloat64(m.Iterations.WithLabelValues("GradientDescent", "60")))
	assert.Equal(t, 0.25, testutil.ToFloat64(m.Loss.WithLabelValues("GradientDescent", "60")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Trained.WithLabelValues("GradientDescent", "60")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Iterations), "closed-form fits report no iterations")
	assert.Equal(t, 2, testutil.CollectAndCount(m.Duration))
}

func TestWriteFile(t *testing.T) {
	m := NewTraining()
	m.ObserveSaved("ClosedForm", "no_text")

	path := filepath.Join(t.TempDir(), "train.prom")
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data),
		`popscore_models_trained_total{solver="ClosedForm",variant="no_text"} 1`))
}
