package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	c := &Config{}
	c.SetDefaults()
	assert.Equal(t, IsolationSmart, c.IsolationMode)
	assert.Equal(t, ".", c.ProjectRoot)
	assert.Equal(t, "inputs", c.InputsRoot)
	assert.Equal(t, "genesis.db", c.Database.Path)
	assert.Equal(t, "info", c.Logger.Level)
}

func TestValidateRejectsBadIsolationMode(t *testing.T) {
	c := &Config{IsolationMode: "bogus", ProjectRoot: "."}
	err := c.Validate()
	require.Error(t, err)
}

func TestValidateRequiresProjectRoot(t *testing.T) {
	c := &Config{IsolationMode: IsolationSmart}
	err := c.Validate()
	require.Error(t, err)
}
