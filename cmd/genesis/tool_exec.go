package main

import (
	"os"

	"github.com/pr0ta9/Genesis-sub000/pkg/toolrunner"
)

// ToolExecCmd is the hidden isolated-child entrypoint: read one driver
// file, invoke the named tool implementation exactly once, write its
// outputs back to the state store, exit.
type ToolExecCmd struct {
	Driver string `required:"" help:"Path to the step's driver file." type:"path"`
}

func (c *ToolExecCmd) Run(cli *CLI) error {
	os.Exit(toolrunner.Main(c.Driver))
	return nil
}
