package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsDisabled(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, m)

	// Recording against a nil Metrics must never panic.
	m.RecordNode("classify", time.Millisecond, nil)
	m.RecordLLMCall("classify", time.Millisecond)
	m.RecordToolCall("translate", time.Millisecond, false)
	m.RecordHTTPRequest("/messages/{chat_id}", "200", time.Millisecond)
}

func TestNewMetricsEnabled(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: true})
	require.NoError(t, err)
	require.NotNil(t, m)
	require.NotNil(t, m.Registry())

	m.RecordNode("execute", 5*time.Millisecond, nil)
	m.RecordToolCall("translate", 10*time.Millisecond, true)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
