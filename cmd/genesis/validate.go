package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pr0ta9/Genesis-sub000/pkg/config"
)

// ValidateCmd loads a config file, applies defaults, validates it, and
// optionally prints the expanded result — useful for checking a config
// file before pointing `serve` at it.
type ValidateCmd struct {
	Config      string `arg:"" name:"config" help:"Configuration file path." placeholder:"PATH"`
	PrintConfig bool   `short:"p" name:"print-config" help:"Print the expanded configuration."`
}

func (c *ValidateCmd) Run(cli *CLI) error {
	loader, err := config.NewLoader(config.LoaderOptions{Path: c.Config})
	if err != nil {
		return fmt.Errorf("genesis: %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("genesis: %s: %w", c.Config, err)
	}

	fmt.Printf("%s: valid\n", c.Config)
	if c.PrintConfig {
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("genesis: printing config: %w", err)
		}
	}
	return nil
}
