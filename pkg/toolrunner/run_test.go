package toolrunner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr0ta9/Genesis-sub000/pkg/executor"
)

func TestRunInvokesRegisteredTool(t *testing.T) {
	dir := t.TempDir()

	store, err := executor.OpenStateStore(dir)
	require.NoError(t, err)

	driverPath := filepath.Join(dir, "driver.json")
	df := executor.DriverFile{
		ModuleRef:    "pkg/toolsimpl/translate",
		FunctionName: "translate",
		StepName:     "translate_step",
		Params: map[string]executor.ParamSource{
			"text_data":   {Kind: executor.SourceLiteral, Value: map[string]any{"text": "ありがとう"}},
			"target_lang": {Kind: executor.SourceLiteral, Value: "en"},
		},
		StateStorePath: dir,
		OutputParams:   []string{"return"},
		OutputKey:      "return",
	}
	require.NoError(t, executor.WriteDriverFile(driverPath, df))

	require.NoError(t, Run(driverPath))

	out, ok := store.Get("translate_step.return")
	require.True(t, ok)
	m, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "thank you", m["text"])
}

func TestRunUnknownFunctionFails(t *testing.T) {
	dir := t.TempDir()
	driverPath := filepath.Join(dir, "driver.json")
	df := executor.DriverFile{
		FunctionName:   "does_not_exist",
		StateStorePath: dir,
		OutputKey:      "return",
	}
	require.NoError(t, executor.WriteDriverFile(driverPath, df))

	err := Run(driverPath)
	assert.Error(t, err)
}

func TestRunMissingReferenceFails(t *testing.T) {
	dir := t.TempDir()
	driverPath := filepath.Join(dir, "driver.json")
	df := executor.DriverFile{
		FunctionName: "translate",
		StepName:     "translate_step",
		Params: map[string]executor.ParamSource{
			"text_data": {Kind: executor.SourceReference, Step: "missing_step", OutputKey: "return"},
		},
		StateStorePath: dir,
		OutputKey:      "return",
	}
	require.NoError(t, executor.WriteDriverFile(driverPath, df))

	err := Run(driverPath)
	assert.Error(t, err)
}
