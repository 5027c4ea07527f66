package executor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/pr0ta9/Genesis-sub000/pkg/toolspec"
)

// IsolationMode selects how tool steps are run, per §5 "Isolation modes".
type IsolationMode string

const (
	IsolationNone  IsolationMode = "none"
	IsolationSmart IsolationMode = "smart"
	IsolationAll   IsolationMode = "all"
)

// DefaultTimeout is the per-step timeout before a child is killed and the
// step marked failed. No retry is attempted.
const DefaultTimeout = 300 * time.Second

// heavyTools is the set smart isolation protects against running
// in-process — tools whose real implementations carry heavy native
// dependencies (image/audio/ML libraries). `all` isolates every tool
// regardless of this set; `none` ignores it entirely.
var heavyTools = map[string]bool{
	"image_ocr": true,
	"erase":     true,
	"inpaint":   true,
	"denoise":   true,
}

// InProcessInvoker runs a tool's function directly, without a subprocess.
// It is used for every step the isolation mode does not isolate. The
// production server binary leaves it nil; with no invoker, smart mode
// runs every step in the self re-exec child (pkg/toolrunner, invoked by
// cmd/genesis's tool-exec subcommand), and IsolationNone fails the step.
type InProcessInvoker func(moduleRef, functionName string, args map[string]any) (map[string]any, error)

// Config configures one Executor.
type Config struct {
	ProjectRoot   string
	IsolationMode IsolationMode
	KeepWorkspace bool
	StepTimeout   time.Duration
	InProcess     InProcessInvoker
}

// Executor runs a chosen pipeline with per-tool subprocess isolation.
type Executor struct {
	cfg Config
}

// New builds an Executor from cfg, applying defaults for zero fields.
func New(cfg Config) *Executor {
	if cfg.IsolationMode == "" {
		cfg.IsolationMode = IsolationSmart
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = DefaultTimeout
	}
	if cfg.ProjectRoot == "" {
		cfg.ProjectRoot = "."
	}
	return &Executor{cfg: cfg}
}

// Result mirrors §4.3.5's ExecutionResult.
type Result struct {
	Success        bool
	ExecutionPath  []string
	StepsCompleted int
	FinalOutput    any
	ErrorInfo      *ErrorInfo
	Metadata       map[string]any
}

// ErrorInfo identifies the failing tool of an aborted execution.
type ErrorInfo struct {
	ToolName        string
	Message         string
	ExecutionFailed bool
}

// ExecutePath runs chosenPath to completion or first failure, streaming
// each step's stdout/stderr through sink and persisting outputs in a
// fresh workspace's state store.
func (e *Executor) ExecutePath(ctx context.Context, chosenPath []toolspec.PathStep, chatID, messageID string, sink EventSink) (*Result, error) {
	if len(chosenPath) == 0 {
		return &Result{Success: true}, nil
	}
	if sink == nil {
		sink = DiscardSink
	}

	firstTool := chosenPath[0].Tool.Name
	ws, err := NewWorkspace(e.cfg.ProjectRoot, firstTool, e.cfg.KeepWorkspace)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ws.Cleanup(); cerr != nil {
			slog.Warn("executor: failed to clean up workspace", "dir", ws.Dir, "error", cerr)
		}
	}()

	store, err := OpenStateStore(ws.Dir)
	if err != nil {
		return nil, err
	}

	logDir := filepath.Join(e.cfg.ProjectRoot, "outputs", chatID, messageID)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("executor: creating output dir: %w", err)
	}

	result := &Result{Metadata: map[string]any{"workspace": ws.Dir}}

	for i, step := range chosenPath {
		stepName := step.StepName
		if stepName == "" {
			stepName = step.Tool.Name
		}

		params, rerr := resolveParams(step, stepName, store, chatID, messageID)
		if rerr != nil {
			result.ErrorInfo = &ErrorInfo{ToolName: step.Tool.Name, Message: rerr.Error(), ExecutionFailed: true}
			result.Success = false
			return result, nil
		}

		df := DriverFile{
			ModuleRef:      step.Tool.ModuleRef,
			FunctionName:   step.Tool.Name,
			StepName:       stepName,
			Params:         params,
			StateStorePath: ws.Dir,
			OutputParams:   step.Tool.OutputParams,
			OutputKey:      step.Tool.OutputKey,
			ChatID:         chatID,
			MessageID:      messageID,
			StepIndex:      i,
			IsolationMode:  string(e.cfg.IsolationMode),
		}

		if err := e.runStep(ctx, ws, df, i, logDir, sink); err != nil {
			result.ErrorInfo = &ErrorInfo{ToolName: step.Tool.Name, Message: err.Error(), ExecutionFailed: true}
			result.Success = false
			result.ExecutionPath = store.ExecutionPath()
			result.StepsCompleted = len(result.ExecutionPath)
			return result, nil
		}

		// The step wrote its outputs through its own handle on the state
		// file; reload so later steps and FinalOutput see them.
		store, err = OpenStateStore(ws.Dir)
		if err != nil {
			return nil, err
		}

		if err := store.AppendExecutionPath(stepName); err != nil {
			return nil, err
		}
	}

	result.Success = true
	result.ExecutionPath = store.ExecutionPath()
	result.StepsCompleted = len(result.ExecutionPath)

	last := chosenPath[len(chosenPath)-1]
	lastStepName := last.StepName
	if lastStepName == "" {
		lastStepName = last.Tool.Name
	}
	if v, ok := store.Get(lastStepName + "." + last.Tool.OutputKey); ok {
		result.FinalOutput = v
	}

	return result, nil
}

// runStep resolves the isolation decision and either invokes the tool
// in-process (testing only) or spawns the self re-exec child.
func (e *Executor) runStep(ctx context.Context, ws *Workspace, df DriverFile, stepIndex int, logDir string, sink EventSink) error {
	isolate := e.shouldIsolate(df.FunctionName)
	// Without an in-process invoker, only the child can run the tool.
	if !isolate && e.cfg.InProcess == nil && e.cfg.IsolationMode != IsolationNone {
		isolate = true
	}

	if !isolate {
		if e.cfg.InProcess == nil {
			return fmt.Errorf("executor: isolation mode 'none' requires an InProcessInvoker")
		}
		args := make(map[string]any, len(df.Params))
		for name, src := range df.Params {
			args[name] = src.Value
		}
		out, err := e.cfg.InProcess(df.ModuleRef, df.FunctionName, args)
		if err != nil {
			return err
		}
		return storeOutputs(ws.Dir, df, out)
	}

	driverPath := ws.DriverPath(stepIndex, df.FunctionName)
	if err := WriteDriverFile(driverPath, df); err != nil {
		return err
	}

	return e.runChild(ctx, driverPath, df, stepIndex, logDir, sink)
}

func (e *Executor) shouldIsolate(toolName string) bool {
	switch e.cfg.IsolationMode {
	case IsolationAll:
		return true
	case IsolationNone:
		return false
	default: // smart
		return heavyTools[toolName]
	}
}

// runChild spawns the same binary re-invoked with the hidden tool-exec
// subcommand, streaming its stdout/stderr live.
func (e *Executor) runChild(ctx context.Context, driverPath string, df DriverFile, stepIndex int, logDir string, sink EventSink) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("executor: resolving self executable: %w", err)
	}

	stepCtx, cancel := context.WithTimeout(ctx, e.cfg.StepTimeout)
	defer cancel()

	cmd := exec.CommandContext(stepCtx, self, "tool-exec", "--driver", driverPath)
	cmd.Dir = e.cfg.ProjectRoot
	cmd.Env = append(os.Environ(),
		"GENESIS_CHAT_ID="+df.ChatID,
		"GENESIS_MESSAGE_ID="+df.MessageID,
		fmt.Sprintf("GENESIS_STEP_INDEX=%d", df.StepIndex),
		"GENESIS_ISOLATION_MODE="+df.IsolationMode,
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	stdoutLog, err := os.Create(filepath.Join(logDir, fmt.Sprintf("%02d_%s_stdout.log", stepIndex, df.FunctionName)))
	if err != nil {
		return err
	}
	defer stdoutLog.Close()
	stderrLog, err := os.Create(filepath.Join(logDir, fmt.Sprintf("%02d_%s_stderr.log", stepIndex, df.FunctionName)))
	if err != nil {
		return err
	}
	defer stderrLog.Close()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("executor: starting step %q: %w", df.StepName, err)
	}

	done := make(chan struct{}, 2)
	go streamLines(stdout, stdoutLog, func(line string) { sink.OnStdout(df.StepName, df.FunctionName, line) }, done)
	go streamLines(stderr, stderrLog, func(line string) { sink.OnStderr(df.StepName, df.FunctionName, line) }, done)
	<-done
	<-done

	if err := cmd.Wait(); err != nil {
		if stepCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("step %q timed out after %s", df.StepName, e.cfg.StepTimeout)
		}
		return fmt.Errorf("step %q exited with error: %w", df.StepName, err)
	}
	return nil
}

// streamLines reads r line by line, writing each line to both log and
// emit, in read order — the ordering guarantee the spec requires between
// consecutive steps holds because the parent waits for this step's child
// to exit before launching the next.
func streamLines(r io.Reader, log io.Writer, emit func(string), done chan<- struct{}) {
	defer func() { done <- struct{}{} }()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintln(log, line)
		emit(line)
	}
}

// storeOutputs writes an in-process tool's return values into the state
// store under "stepName.outputKey", used only by the IsolationNone path.
func storeOutputs(workspaceDir string, df DriverFile, out map[string]any) error {
	store, err := OpenStateStore(workspaceDir)
	if err != nil {
		return err
	}
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
