package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr0ta9/Genesis-sub000/pkg/toolspec"
)

type recordingSink struct {
	stdout []string
	stderr []string
}

func (r *recordingSink) OnStdout(step, tool, line string) { r.stdout = append(r.stdout, line) }
func (r *recordingSink) OnStderr(step, tool, line string) { r.stderr = append(r.stderr, line) }

func ocrTool() toolspec.ToolMetadata {
	return toolspec.ToolMetadata{
		Name:          "image_ocr",
		InputKey:      "input_path",
		OutputKey:     "return",
		InputParams:   []string{"input_path", "lang"},
		OutputParams:  []string{"return"},
		ParamTypes:    map[string]string{"input_path": "ImageFile", "lang": "Text", "return": "StructuredData"},
		DefaultParams: map[string]any{"lang": "en"},
	}
}

func translateTool() toolspec.ToolMetadata {
	return toolspec.ToolMetadata{
		Name:         "translate",
		InputKey:     "text_data",
		OutputKey:    "return",
		InputParams:  []string{"text_data"},
		OutputParams: []string{"return"},
		ParamTypes:   map[string]string{"text_data": "StructuredData", "return": "StructuredData"},
	}
}

func TestExecutePathSingleStepInProcess(t *testing.T) {
	root := t.TempDir()
	invoke := func(moduleRef, fn string, args map[string]any) (map[string]any, error) {
		return map[string]any{"return": map[string]any{"text": "hello"}}, nil
	}
	ex := New(Config{ProjectRoot: root, IsolationMode: IsolationNone, InProcess: invoke})

	path := []toolspec.PathStep{{Tool: ocrTool(), ParamValues: map[string]any{"input_path": "foo.png"}}}
	res, err := ex.ExecutePath(context.Background(), path, "c1", "m1", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"image_ocr"}, res.ExecutionPath)
}

func TestExecutePathChainedReference(t *testing.T) {
	root := t.TempDir()
	invoke := func(moduleRef, fn string, args map[string]any) (map[string]any, error) {
		switch fn {
		case "image_ocr":
			return map[string]any{"return": "extracted text"}, nil
		case "translate":
			return map[string]any{"return": "translated text"}, nil
		}
		return nil, nil
	}
	ex := New(Config{ProjectRoot: root, IsolationMode: IsolationNone, InProcess: invoke})

	path := []toolspec.PathStep{
		{Tool: ocrTool(), ParamValues: map[string]any{"input_path": "foo.png"}},
		{Tool: translateTool(), ParamValues: map[string]any{"text_data": "${image_ocr.return}"}},
	}
	res, err := ex.ExecutePath(context.Background(), path, "c1", "m1", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"image_ocr", "translate"}, res.ExecutionPath)
	assert.Equal(t, "translated text", res.FinalOutput)
}

func TestExecutePathMissingReferenceFails(t *testing.T) {
	root := t.TempDir()
	invoke := func(moduleRef, fn string, args map[string]any) (map[string]any, error) {
		return map[string]any{"return": "x"}, nil
	}
	ex := New(Config{ProjectRoot: root, IsolationMode: IsolationNone, InProcess: invoke})

	path := []toolspec.PathStep{
		{Tool: translateTool(), ParamValues: map[string]any{"text_data": "${missing_step.return}"}},
	}
	res, err := ex.ExecutePath(context.Background(), path, "c1", "m1", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.NotNil(t, res.ErrorInfo)
	assert.Equal(t, "translate", res.ErrorInfo.ToolName)
}

func TestExecutePathToolFailureStopsExecution(t *testing.T) {
	root := t.TempDir()
	invoke := func(moduleRef, fn string, args map[string]any) (map[string]any, error) {
		if fn == "image_ocr" {
			return nil, assert.AnError
		}
		return map[string]any{"return": "unreached"}, nil
	}
	ex := New(Config{ProjectRoot: root, IsolationMode: IsolationNone, InProcess: invoke})

	path := []toolspec.PathStep{
		{Tool: ocrTool(), ParamValues: map[string]any{"input_path": "foo.png"}},
		{Tool: translateTool(), ParamValues: map[string]any{"text_data": "${image_ocr.return}"}},
	}
	sink := &recordingSink{}
	res, err := ex.ExecutePath(context.Background(), path, "c1", "m1", sink)
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.NotNil(t, res.ErrorInfo)
	assert.Equal(t, "image_ocr", res.ErrorInfo.ToolName)
	assert.Equal(t, 0, res.StepsCompleted)
}
