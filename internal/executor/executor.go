package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"grimm.is/palisade/internal/logging"
	"grimm.is/palisade/internal/metrics"
)

// DefaultTimeout bounds a single command when no timeout is configured.
const DefaultTimeout = 2 * time.Minute

// maxLineLength caps a single output line; netsh never comes close.
const maxLineLength = 4 << 20

var (
	ErrSpawn      = errors.New("failed to start command")
	ErrTimeout    = errors.New("command timed out")
	ErrCanceled   = errors.New("command canceled")
	ErrStderr     = errors.New("command wrote to stderr")
	ErrExitStatus = errors.New("command exited with non-zero status")
	ErrOutput     = errors.New("failed to read command output")
)

// Command describes one external tool invocation.
type Command struct {
	Path string
	Args []string

	// Verbatim hands Args to the child exactly as written, joined by single
	// spaces, bypassing the platform's argument quoting. netsh parses its own
	// command line and expects name="value" tokens untouched.
	Verbatim bool

	// Timeout overrides the runner's default for this command.
	Timeout time.Duration

	// Display is what logs and dry runs show instead of Path and Args.
	Display string
}

// String renders the command for logs.
func (c Command) String() string {
	if c.Display != "" {
		return c.Display
	}
	if len(c.Args) == 0 {
		return c.Path
	}
	return c.Path + " " + strings.Join(c.Args, " ")
}

// Tool is the short tool name used as a metrics label.
func (c Command) Tool() string {
	base := strings.ToLower(filepath.Base(strings.ReplaceAll(c.Path, `\`, "/")))
	return strings.TrimSuffix(base, ".exe")
}

// Result is the outcome of one command.
type Result struct {
	Success  bool
	Output   string
	ExitCode int
	Duration time.Duration
	Err      error
}

// CommandRunner abstracts external command execution.
type CommandRunner interface {
	Execute(ctx context.Context, cmd Command) Result
}

// Options configures a RealCommandRunner.
type Options struct {
	// Timeout is the default bound on a command. Zero means DefaultTimeout.
	Timeout time.Duration

	// Encoding names the console code page, e.g. "gb2312" or "utf-8".
	Encoding string

	// WaitDelay bounds how long Wait lingers on open pipes after the process
	// has been killed.
	WaitDelay time.Duration

	Metrics *metrics.Registry
	Logger  *logging.Logger
}

// RealCommandRunner executes actual commands.
type RealCommandRunner struct {
	timeout   time.Duration
	waitDelay time.Duration
	encoding  encoding.Encoding
	metrics   *metrics.Registry
	logger    *logging.Logger
}

// NewRunner creates a runner, resolving the configured console encoding.
func NewRunner(opts Options) (*RealCommandRunner, error) {
	enc, err := LookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.WaitDelay <= 0 {
		opts.WaitDelay = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.WithComponent("exec")
	}
	return &RealCommandRunner{
		timeout:   opts.Timeout,
		waitDelay: opts.WaitDelay,
		encoding:  enc,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}, nil
}

// Execute runs the command and classifies its outcome.
func (r *RealCommandRunner) Execute(ctx context.Context, c Command) Result {
	start := time.Now()
	res := r.run(ctx, c)
	res.Duration = time.Since(start)

	r.metrics.ObserveCommand(c.Tool(), outcomeOf(res), res.Duration)
	if res.Success {
		r.logger.Debug("command finished", "cmd", c.String(), "duration", res.Duration)
	} else {
		r.logger.Debug("command failed", "cmd", c.String(), "exit", res.ExitCode, "error", res.Err)
	}
	return res
}

func (r *RealCommandRunner) run(ctx context.Context, c Command) Result {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.Path, c.Args...)
	cmd.WaitDelay = r.waitDelay
	configureProcAttr(cmd, c)

	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	cmd.Stdout = outW
	cmd.Stderr = errW

	if err := cmd.Start(); err != nil {
		outW.Close()
		errW.Close()
		if res, ok := contextFailure(runCtx, c, timeout, -1); ok {
			return res
		}
		return Result{
			Output:   err.Error(),
			ExitCode: -1,
			Err:      fmt.Errorf("%w: %s: %v", ErrSpawn, c.Tool(), err),
		}
	}

	var stdout, stderr []string
	var g errgroup.Group
	g.Go(func() error {
		return collectLines(transform.NewReader(outR, r.encoding.NewDecoder()), func(line string) {
			stdout = append(stdout, line)
		})
	})
	g.Go(func() error {
		return collectLines(transform.NewReader(errR, r.encoding.NewDecoder()), func(line string) {
			stderr = append(stderr, line)
		})
	})

	waitErr := cmd.Wait()
	outW.Close()
	errW.Close()
	readErr := g.Wait()

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	outText := joinLines(stdout)
	errText := joinLines(stderr)

	if res, ok := contextFailure(runCtx, c, timeout, exitCode); ok {
		return res
	}

	switch {
	case readErr != nil:
		return Result{
			Output:   readErr.Error(),
			ExitCode: exitCode,
			Err:      fmt.Errorf("%w: %v", ErrOutput, readErr),
		}
	case strings.TrimSpace(errText) != "":
		return Result{
			Output:   errText,
			ExitCode: exitCode,
			Err:      ErrStderr,
		}
	case waitErr != nil || exitCode != 0:
		return Result{
			Output:   outText,
			ExitCode: exitCode,
			Err:      fmt.Errorf("%w: %d", ErrExitStatus, exitCode),
		}
	}

	return Result{Success: true, Output: outText, ExitCode: exitCode}
}

// contextFailure reports a run that ended because its context did.
func contextFailure(ctx context.Context, c Command, timeout time.Duration, exitCode int) (Result, bool) {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return Result{
			Output:   fmt.Sprintf("%s timed out after %s", c.Tool(), timeout),
			ExitCode: exitCode,
			Err:      fmt.Errorf("%w after %s", ErrTimeout, timeout),
		}, true
	case ctx.Err() != nil:
		return Result{
			Output:   ctx.Err().Error(),
			ExitCode: exitCode,
			Err:      fmt.Errorf("%w: %v", ErrCanceled, ctx.Err()),
		}, true
	}
	return Result{}, false
}

// collectLines feeds every line of r to sink. On a read error the rest of r
// is drained so the writer side never blocks.
func collectLines(r io.Reader, sink func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		sink(strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		io.Copy(io.Discard, r)
		return err
	}
	return nil
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

func outcomeOf(res Result) string {
	switch {
	case res.Success:
		return metrics.OutcomeSuccess
	case errors.Is(res.Err, ErrTimeout):
		return metrics.OutcomeTimeout
	}
	return metrics.OutcomeFailure
}
