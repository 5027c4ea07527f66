package toolspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTool() ToolMetadata {
	return ToolMetadata{
		Name:         "image_ocr",
		InputKey:     "input_path",
		OutputKey:    "return",
		InputParams:  []string{"input_path", "lang"},
		OutputParams: []string{"return"},
		ParamTypes: map[string]string{
			"input_path": "ImageFile",
			"lang":       "Text",
			"return":     "StructuredData",
		},
		RequiredInputs: []RequiredInput{{Name: "lang", Type: "Text"}},
		DefaultParams:  map[string]any{"lang": "en"},
	}
}

func TestValidateHappyPath(t *testing.T) {
	tool := sampleTool()
	require.NoError(t, tool.Validate())
}

func TestValidateMissingInputKey(t *testing.T) {
	tool := sampleTool()
	tool.InputKey = "missing"
	require.Error(t, tool.Validate())
}

func TestInputOutputType(t *testing.T) {
	tool := sampleTool()
	in, err := tool.InputType()
	require.NoError(t, err)
	assert.Equal(t, "ImageFile", string(in))

	out, err := tool.OutputType()
	require.NoError(t, err)
	assert.Equal(t, "StructuredData", string(out))
}

func TestIsReference(t *testing.T) {
	step, key, ok := IsReference("${image_ocr.return}")
	require.True(t, ok)
	assert.Equal(t, "image_ocr", step)
	assert.Equal(t, "return", key)

	_, _, ok = IsReference("foo.png")
	assert.False(t, ok)

	_, _, ok = IsReference(42)
	assert.False(t, ok)
}
