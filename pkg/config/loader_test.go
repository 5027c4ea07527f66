package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromYAML(t *testing.T) {
	t.Setenv("GENESIS_TEST_MODEL", "gpt-4o")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := "isolation_mode: all\nproject_root: " + dir + "\nllm:\n  model: ${GENESIS_TEST_MODEL}\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg, err := LoadConfig(LoaderOptions{Path: path})
	require.NoError(t, err)
	assert.Equal(t, IsolationAll, cfg.IsolationMode)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
}

func TestLoadConfigMissingFileFails(t *testing.T) {
	_, err := LoadConfig(LoaderOptions{Path: "/nonexistent/config.yaml"})
	assert.Error(t, err)
}
