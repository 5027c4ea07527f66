package config

import (
	"fmt"

	"github.com/pr0ta9/Genesis-sub000/pkg/observability"
)

// IsolationMode mirrors pkg/executor.IsolationMode as a config-layer
// string so this package does not need to import pkg/executor.
type IsolationMode string

const (
	IsolationNone  IsolationMode = "none"
	IsolationSmart IsolationMode = "smart"
	IsolationAll   IsolationMode = "all"
)

// Config is Genesis's top-level configuration, matching the recognized
// keys: ISOLATION_MODE, KEEP_WORKSPACE, PROJECT_ROOT, INPUTS_ROOT,
// OUTPUTS_ROOT, plus vector/db/LLM connection strings.
type Config struct {
	IsolationMode IsolationMode `yaml:"isolation_mode,omitempty"`
	KeepWorkspace bool          `yaml:"keep_workspace,omitempty"`

	ProjectRoot string `yaml:"project_root,omitempty"`
	InputsRoot  string `yaml:"inputs_root,omitempty"`
	OutputsRoot string `yaml:"outputs_root,omitempty"`

	Database      DatabaseConfig       `yaml:"database,omitempty"`
	Vector        VectorConfig         `yaml:"vector,omitempty"`
	LLM           LLMConfig            `yaml:"llm,omitempty"`
	Logger        LoggerConfig         `yaml:"logger,omitempty"`
	Observability observability.Config `yaml:"observability,omitempty"`

	HTTPAddr string `yaml:"http_addr,omitempty"`
}

// DatabaseConfig configures the sqlstore connection.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"`
}

// VectorConfig configures the precedent store.
type VectorConfig struct {
	PersistDir string `yaml:"persist_dir,omitempty"`
}

// LLMConfig configures the OpenAI-compatible chat client.
type LLMConfig struct {
	Provider           string `yaml:"provider,omitempty"`
	Model              string `yaml:"model,omitempty"`
	BaseURL            string `yaml:"base_url,omitempty"`
	APIKey             string `yaml:"-"` // sourced from the environment, never from file
	ContextTokenBudget int    `yaml:"context_token_budget,omitempty"`
}

// SetDefaults fills in zero-valued fields with Genesis's defaults.
func (c *Config) SetDefaults() {
	if c.IsolationMode == "" {
		c.IsolationMode = IsolationSmart
	}
	if c.ProjectRoot == "" {
		c.ProjectRoot = "."
	}
	if c.InputsRoot == "" {
		c.InputsRoot = "inputs"
	}
	if c.OutputsRoot == "" {
		c.OutputsRoot = "outputs"
	}
	if c.Database.Path == "" {
		c.Database.Path = "genesis.db"
	}
	if c.Vector.PersistDir == "" {
		c.Vector.PersistDir = "tmp/vectors"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.ContextTokenBudget == 0 {
		c.LLM.ContextTokenBudget = 8000
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	c.Logger.SetDefaults()
}

// Validate checks Config for internally consistent values.
func (c *Config) Validate() error {
	switch c.IsolationMode {
	case IsolationNone, IsolationSmart, IsolationAll:
	default:
		return fmt.Errorf("config: invalid isolation_mode %q", c.IsolationMode)
	}
	if c.ProjectRoot == "" {
		return fmt.Errorf("config: project_root is required")
	}
	return c.Logger.Validate()
}
