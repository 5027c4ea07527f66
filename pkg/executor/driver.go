package executor

import (
	"encoding/json"
	"fmt"
	"os"
)

// SourceKind distinguishes the three ways a driver file parameter value
// can be supplied to the child process per §4.3.2.
type SourceKind string

const (
	SourceLiteral   SourceKind = "literal"
	SourceReference SourceKind = "reference"
	SourceNull      SourceKind = "null"
)

// ParamSource is one resolved parameter source for a driver file: either a
// literal value, a state-store reference, or an explicit null placeholder
// for a non-serializable parameter the tool must reconstruct itself.
type ParamSource struct {
	Kind  SourceKind `json:"kind"`
	Value any        `json:"value,omitempty"`
	// Reference fields, populated when Kind == SourceReference.
	Step      string `json:"step,omitempty"`
	OutputKey string `json:"output_key,omitempty"`
}

// DriverFile is the small self-contained description the parent writes
// for each step, matching §4.3.2: the module/function to invoke, the
// resolved parameter sources, the state store location, and the output
// param names. The child (pkg/toolrunner) reads exactly this file.
type DriverFile struct {
	ModuleRef      string                 `json:"module_ref"`
	FunctionName   string                 `json:"function_name"`
	StepName       string                 `json:"step_name"`
	Params         map[string]ParamSource `json:"params"`
	StateStorePath string                 `json:"state_store_path"`
	OutputParams   []string               `json:"output_params"`
	OutputKey      string                 `json:"output_key"`

	// Execution-scoped context injected by the parent, mirroring the
	// environment variables it also sets on the child process.
	ChatID        string `json:"chat_id"`
	MessageID     string `json:"message_id"`
	StepIndex     int    `json:"step_index"`
	IsolationMode string `json:"isolation_mode"`
}

// WriteDriverFile serializes df to path.
func WriteDriverFile(path string, df DriverFile) error {
	data, err := json.MarshalIndent(df, "", "  ")
	if err != nil {
		return fmt.Errorf("executor: marshaling driver file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("executor: writing driver file %s: %w", path, err)
	}
	return nil
}

// ReadDriverFile deserializes a driver file from path. Used by
// pkg/toolrunner inside the isolated child process.
func ReadDriverFile(path string) (DriverFile, error) {
	var df DriverFile
	data, err := os.ReadFile(path)
	if err != nil {
		return df, fmt.Errorf("executor: reading driver file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &df); err != nil {
		return df, fmt.Errorf("executor: parsing driver file %s: %w", path, err)
	}
	return df, nil
}
