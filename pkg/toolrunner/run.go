package toolrunner

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/pr0ta9/Genesis-sub000/pkg/executor"
)

// Run reads the driver file at driverPath, resolves its parameters
// against the state store, invokes the named tool function exactly
// once, and writes its outputs back to the state store. It is the full
// body of cmd/genesis's hidden tool-exec subcommand — this process has
// no other job and exits as soon as it is done.
func Run(driverPath string) error {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "tool-exec",
		Level: hclog.Info,
	})

	df, err := executor.ReadDriverFile(driverPath)
	if err != nil {
		return fmt.Errorf("toolrunner: %w", err)
	}

	fn, ok := lookup(df.FunctionName)
	if !ok {
		return fmt.Errorf("toolrunner: no registered implementation for function %q", df.FunctionName)
	}

	store, err := executor.OpenStateStore(df.StateStorePath)
	if err != nil {
		return fmt.Errorf("toolrunner: %w", err)
	}

	args, err := resolveArgs(df, store)
	if err != nil {
		return fmt.Errorf("toolrunner: %w", err)
	}

	logger.Info("invoking tool", "function", df.FunctionName, "step", df.StepName)

	out, err := fn(args)
	if err != nil {
		logger.Error("tool returned an error", "function", df.FunctionName, "error", err)
		return fmt.Errorf("toolrunner: %s: %w", df.FunctionName, err)
	}

	if err := storeOutputs(store, df, out); err != nil {
		return fmt.Errorf("toolrunner: storing outputs: %w", err)
	}

	return nil
}

// Main is the convenience wrapper cmd/genesis calls directly: on error it
// writes to stderr and returns a process exit code rather than a Go
// error, since nothing downstream of this process can inspect one.
func Main(driverPath string) int {
	if err := Run(driverPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// resolveArgs turns a driver file's resolved ParamSource map into a
// concrete argument map, following references into the state store and
// leaving SourceNull params as nil for the tool to reject or default on
// its own terms.
func resolveArgs(df executor.DriverFile, store *executor.StateStore) (map[string]any, error) {
	args := make(map[string]any, len(df.Params))
	for name, src := range df.Params {
		switch src.Kind {
		case executor.SourceLiteral:
			args[name] = src.Value
		case executor.SourceNull:
			args[name] = nil
		case executor.SourceReference:
			val, ok := store.Get(src.Step + "." + src.OutputKey)
			if !ok {
				return nil, fmt.Errorf("reference %s.%s has no state-store value", src.Step, src.OutputKey)
			}
			args[name] = val
		default:
			return nil, fmt.Errorf("param %q has unknown source kind %q", name, src.Kind)
		}
	}
	return args, nil
}

// storeOutputs mirrors pkg/executor's in-process storeOutputs helper;
// duplicated rather than exported because the two packages serve
// different processes and neither should import the other's internals
// beyond the driver file/state store contract.
func storeOutputs(store *executor.StateStore, df executor.DriverFile, out map[string]any) error {
	if df.OutputKey == "return" {
		val, ok := out["return"]
		if !ok && len(out) == 1 {
			for _, v := range out {
				val = v
			}
		}
		return store.Set(df.StepName+".return", val)
	}
	for _, key := range df.OutputParams {
		if v, ok := out[key]; ok {
			if err := store.Set(df.StepName+"."+key, v); err != nil {
				return err
			}
		}
	}
	return nil
}
