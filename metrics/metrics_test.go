package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.HandleOpened("expr")
	m.HandleOpened("expr")
	m.HandleClosed("expr")
	m.Failure(ClassContract)
	m.UDFCall(true)
	m.UDFCall(false)
	m.UDFCleanup()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LiveHandles.WithLabelValues("expr")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BarrierFailures.WithLabelValues(ClassContract)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UDFInvocations.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UDFCleanups))
}

func TestText(t *testing.T) {
	m := New()
	m.HandleOpened("dataframe")
	text, err := m.Text()
	require.NoError(t, err)
	assert.Contains(t, text, `framebridge_live_handles{kind="dataframe"} 1`)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.HandleOpened("expr")
	m.Failure(ClassFault)
	m.ObserveCollect(1)
	text, err := m.Text()
	require.NoError(t, err)
	assert.Empty(t, text)
}
