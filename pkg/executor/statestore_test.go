package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStoreSetGet(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenStateStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Set("image_ocr.return", map[string]any{"text": "hello"}))

	v, ok := s.Get("image_ocr.return")
	require.True(t, ok)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello", m["text"])
}

func TestStateStoreReloadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	s1, err := OpenStateStore(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Set("step.return", "value"))
	require.NoError(t, s1.AppendExecutionPath("step"))

	s2, err := OpenStateStore(dir)
	require.NoError(t, err)
	v, ok := s2.Get("step.return")
	require.True(t, ok)
	assert.Equal(t, "value", v)
	assert.Equal(t, []string{"step"}, s2.ExecutionPath())
}

func TestStateStoreBlobFallback(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenStateStore(dir)
	require.NoError(t, err)

	// SetBlob stores the value in a blob file and records a blob reference.
	require.NoError(t, s.SetBlob("llm.client", map[string]any{"model": "gpt-4"}))

	var out map[string]any
	require.NoError(t, s.GetBlob("llm.client", &out))
	assert.Equal(t, "gpt-4", out["model"])

	raw, ok := s.GetRaw("llm.client")
	require.True(t, ok)
	assert.True(t, IsBlobRef(raw))
}
