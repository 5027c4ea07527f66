package executor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pr0ta9/Genesis-sub000/pkg/toolspec"
	"github.com/pr0ta9/Genesis-sub000/pkg/workflow"
)

// ResolutionError reports a cross-step reference that points at a missing
// state-store key. Per §7 it is treated as a ToolExecutionError before the
// child is ever launched.
type ResolutionError struct {
	Step  string
	Param string
	Ref   string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("executor: step %q param %q: reference %q has no matching state-store value", e.Step, e.Param, e.Ref)
}

// MissingInputError reports that a required parameter has no value from
// any resolution source.
type MissingInputError struct {
	Step  string
	Param string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("executor: step %q is missing required input %q", e.Step, e.Param)
}

// resolveParams builds the ParamSource map for one step, applying the
// ordered rules from §4.3.4:
//  1. an explicit cross-step reference in param_values,
//  2. an explicit literal in param_values,
//  3. the tool's default_params,
//  4. null, if the declared type is in the non-serializable sentinel set,
//  5. otherwise the step is missing a required input and resolution fails.
func resolveParams(step toolspec.PathStep, stepName string, store *StateStore, chatID, messageID string) (map[string]ParamSource, error) {
	out := make(map[string]ParamSource, len(step.Tool.InputParams))

	for _, p := range step.Tool.InputParams {
		val, hasVal := step.ParamValues[p]

		if hasVal {
			if refStep, refKey, isRef := toolspec.IsReference(val); isRef {
				if _, ok := store.Get(refStep + "." + refKey); !ok {
					return nil, &ResolutionError{Step: stepName, Param: p, Ref: refStep + "." + refKey}
				}
				out[p] = ParamSource{Kind: SourceReference, Step: refStep, OutputKey: refKey}
				continue
			}
			out[p] = ParamSource{Kind: SourceLiteral, Value: resolveFilePath(p, val, step.Tool, chatID, messageID)}
			continue
		}

		if def, ok := step.Tool.DefaultParams[p]; ok {
			out[p] = ParamSource{Kind: SourceLiteral, Value: def}
			continue
		}

		if declared, ok := step.Tool.ParamTypes[p]; ok && workflow.IsNonSerializable(declared) {
			out[p] = ParamSource{Kind: SourceNull}
			continue
		}

		return nil, &MissingInputError{Step: stepName, Param: p}
	}

	return out, nil
}

// isFileTyped reports whether param is treated as a file path for
// resolution purposes, from the tool's declared type (ImageFile/AudioFile/
// VideoFile/TextFile/DocumentFile all route through the same bare-filename
// rule).
func isFileTyped(param string, tool toolspec.ToolMetadata) bool {
	declared, ok := tool.ParamTypes[param]
	if !ok {
		return false
	}
	switch declared {
	case string(workflow.ImageFile), string(workflow.AudioFile), string(workflow.VideoFile), string(workflow.TextFile), string(workflow.DocumentFile):
		return true
	default:
		return false
	}
}

// resolveFilePath applies the bare-filename resolution rule: a string
// value for a file-typed parameter with no path separators resolves to
// inputs/<chat_id>/<name> if that file exists there, else to
// outputs/<chat_id>/<message_id>/<name>; absolute paths and paths already
// containing a separator pass through unchanged.
func resolveFilePath(param string, val any, tool toolspec.ToolMetadata, chatID, messageID string) any {
	s, ok := val.(string)
	if !ok || !isFileTyped(param, tool) {
		return val
	}
	if filepath.IsAbs(s) || filepath.Base(s) != s {
		return s
	}

	inputPath := filepath.Join("inputs", chatID, s)
	if _, err := os.Stat(inputPath); err == nil {
		return inputPath
	}

	outDir := filepath.Join("outputs", chatID, messageID)
	_ = os.MkdirAll(outDir, 0o755)
	return filepath.Join(outDir, s)
}
