package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr0ta9/Genesis-sub000/pkg/workflow"
)

func TestRegisterDiscoversAnnotatedTools(t *testing.T) {
	r := NewToolRegistry()
	require.NoError(t, r.Register("testdata/tools"))

	assert.Equal(t, 2, r.Count())

	ocr, ok := r.Get("image_ocr")
	require.True(t, ok)
	assert.Equal(t, "input_path", ocr.InputKey)
	assert.Equal(t, []string{"return"}, ocr.OutputParams)
	assert.Equal(t, "en", ocr.DefaultParams["lang"])

	_, ok = r.Get("should_be_skipped")
	assert.False(t, ok, "files with an underscore prefix must be skipped")
}

func TestListByInputType(t *testing.T) {
	r := NewToolRegistry()
	require.NoError(t, r.Register("testdata/tools"))

	tools := r.ListByInputType(workflow.ImageFile)
	require.Len(t, tools, 1)
	assert.Equal(t, "image_ocr", tools[0].Name)

	tools = r.ListByInputType(workflow.StructuredData)
	require.Len(t, tools, 1)
	assert.Equal(t, "translate", tools[0].Name)
}

func TestRegisterDuplicateNameFails(t *testing.T) {
	r := NewToolRegistry()
	require.NoError(t, r.Register("testdata/tools"))
	// Registering the same directory twice must surface hector's
	// BaseRegistry duplicate-name error.
	err := r.Register("testdata/tools")
	require.Error(t, err)
}
