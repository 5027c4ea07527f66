// Package toolspec holds the declarative data structures the Tool
// Registry, Path Generator, and Agent Graph share: ToolMetadata, PathStep,
// and SimplePath.
package toolspec

import (
	"fmt"

	"github.com/pr0ta9/Genesis-sub000/pkg/workflow"
)

// RequiredInput describes one additional parameter a tool needs beyond its
// primary input_key, with its resolved type.
type RequiredInput struct {
	Name string
	Type workflow.Type
}

// ToolMetadata is the declaration of one tool discovered by the registry.
// See package registry for how these are parsed out of source files.
type ToolMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	// InputKey is the primary parameter whose type drives path chaining.
	InputKey string `json:"input_key"`
	// OutputKey is either "return" or a key inside a returned mapping.
	OutputKey string `json:"output_key"`

	// InputParams is the ordered parameter list; InputKey is first.
	InputParams []string `json:"input_params"`
	// OutputParams names the outputs: ["return"] or explicit keys.
	OutputParams []string `json:"output_params"`

	// ParamTypes maps a parameter name to its WorkflowType tag, or to a
	// free-form symbolic name for non-routing / non-serializable params.
	ParamTypes map[string]string `json:"param_types"`

	RequiredInputs []RequiredInput `json:"required_inputs"`

	// DefaultParams maps param name to a default value; a present key
	// with a nil value is a permitted nullable default.
	DefaultParams map[string]any `json:"default_params"`

	// ModuleRef is opaque to path generation and routing; the executor
	// uses it to locate the function to invoke (see pkg/registry,
	// pkg/executor).
	ModuleRef string `json:"module_ref"`
}

// InputType resolves the WorkflowType tag of the tool's primary input.
func (m *ToolMetadata) InputType() (workflow.Type, error) {
	raw, ok := m.ParamTypes[m.InputKey]
	if !ok {
		return "", fmt.Errorf("toolspec: tool %q has no param_types entry for input_key %q", m.Name, m.InputKey)
	}
	t, err := workflow.ParseType(raw)
	if err != nil {
		return "", fmt.Errorf("toolspec: tool %q input_key %q: %w", m.Name, m.InputKey, err)
	}
	return t, nil
}

// OutputType resolves the WorkflowType tag produced by the tool, keyed by
// its primary output param (first entry of OutputParams, conventionally
// "return" for single-valued tools).
func (m *ToolMetadata) OutputType() (workflow.Type, error) {
	if len(m.OutputParams) == 0 {
		return "", fmt.Errorf("toolspec: tool %q has no output_params", m.Name)
	}
	key := m.OutputParams[0]
	raw, ok := m.ParamTypes[key]
	if !ok {
		// Output keys inside a returned mapping are often typed under
		// output_key_types rather than param_types; fall back there.
		raw, ok = m.ParamTypes["output:"+key]
		if !ok {
			return "", fmt.Errorf("toolspec: tool %q has no resolvable type for output key %q", m.Name, key)
		}
	}
	t, err := workflow.ParseType(raw)
	if err != nil {
		return "", fmt.Errorf("toolspec: tool %q output key %q: %w", m.Name, key, err)
	}
	return t, nil
}

// Validate checks the invariants from the data model: input_key must be a
// declared input param, every required_inputs entry must be a declared
// input param with a matching declared type, output_params must be
// non-empty, and the input_key's type must resolve to a WorkflowType tag.
func (m *ToolMetadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("toolspec: tool has empty name")
	}
	if !contains(m.InputParams, m.InputKey) {
		return fmt.Errorf("toolspec: tool %q input_key %q not in input_params %v", m.Name, m.InputKey, m.InputParams)
	}
	if len(m.OutputParams) == 0 {
		return fmt.Errorf("toolspec: tool %q has empty output_params", m.Name)
	}
	if _, err := m.InputType(); err != nil {
		return err
	}
	for _, req := range m.RequiredInputs {
		if !contains(m.InputParams, req.Name) {
			return fmt.Errorf("toolspec: tool %q required_inputs entry %q not in input_params", m.Name, req.Name)
		}
		declared, ok := m.ParamTypes[req.Name]
		if !ok {
			return fmt.Errorf("toolspec: tool %q required_inputs entry %q has no param_types entry", m.Name, req.Name)
		}
		if t, err := workflow.ParseType(declared); err == nil && t != req.Type {
			return fmt.Errorf("toolspec: tool %q required_inputs entry %q type mismatch: declared %q, required %q", m.Name, req.Name, declared, req.Type)
		}
	}
	return nil
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// PathStep is one concrete step in a chosen pipeline: a ToolMetadata plus
// concrete or cross-step-referenced parameter values.
type PathStep struct {
	Tool ToolMetadata `json:"tool"`
	// ParamValues maps param name to a concrete value, or a cross-step
	// reference string of the shape "${stepName.outputKey}". Need not
	// cover every input param; missing values fall back to
	// Tool.DefaultParams, then to executor-time state resolution.
	ParamValues map[string]any `json:"param_values"`
	// StepName disambiguates repeated tool names within one path and is
	// the key other steps reference via "${StepName.outputKey}". When
	// empty, the executor derives it from Tool.Name and position.
	StepName string `json:"step_name,omitempty"`
}

// SimplePathEntry is the LLM's shorthand for one step: a tool name plus the
// parameter values it chose, without the full ToolMetadata attached.
type SimplePathEntry struct {
	Name        string         `json:"name"`
	ParamValues map[string]any `json:"param_values"`
}

// SimplePath is the router's output shape before expansion against the
// registry.
type SimplePath []SimplePathEntry

// IsReference reports whether a param value is a cross-step reference of
// the shape "${stepName.outputKey}", and if so returns the step and output
// key it names.
func IsReference(v any) (step string, outputKey string, ok bool) {
	s, isStr := v.(string)
	if !isStr || len(s) < 4 || s[0:2] != "${" || s[len(s)-1] != '}' {
		return "", "", false
	}
	inner := s[2 : len(s)-1]
	for i := 0; i < len(inner); i++ {
		if inner[i] == '.' {
			return inner[:i], inner[i+1:], true
		}
	}
	return "", "", false
}
