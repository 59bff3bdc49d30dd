package firewall

import (
	"context"
	"fmt"
	"sync"
	"time"

	"grimm.is/palisade/internal/executor"
)

// DefaultPowerShellPath is resolved through PATH.
const DefaultPowerShellPath = "powershell.exe"

// Session runs scripts in one PowerShell host. A session belongs to exactly
// one operation and must be closed on every exit path.
type Session interface {
	Invoke(ctx context.Context, script string) executor.Result
	// Close releases the session. It is idempotent; Invoke fails afterwards.
	Close() error
}

// SessionFactory opens a fresh session per operation, so no variables,
// modules or preferences leak between calls.
type SessionFactory interface {
	Open(ctx context.Context) (Session, error)
}

// ProcessSessions hosts each session in its own powershell.exe process.
type ProcessSessions struct {
	Runner  executor.CommandRunner
	Path    string
	Timeout time.Duration
}

// Open returns a session bound to a new process.
func (f *ProcessSessions) Open(ctx context.Context) (Session, error) {
	if f.Runner == nil {
		return nil, fmt.Errorf("powershell session: no command runner")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := f.Path
	if path == "" {
		path = DefaultPowerShellPath
	}
	return &processSession{runner: f.Runner, path: path, timeout: f.Timeout}, nil
}

type processSession struct {
	runner  executor.CommandRunner
	path    string
	timeout time.Duration

	mu     sync.Mutex
	closed bool
}

func (s *processSession) Invoke(ctx context.Context, script string) executor.Result {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return executor.Result{Output: ErrSessionClosed.Error(), ExitCode: -1, Err: ErrSessionClosed}
	}

	encoded, err := encodeCommand(script)
	if err != nil {
		return executor.Result{Output: err.Error(), ExitCode: -1, Err: err}
	}
	return s.runner.Execute(ctx, executor.Command{
		Path: s.path,
		Args: []string{
			"-NoLogo", "-NoProfile", "-NonInteractive",
			"-ExecutionPolicy", "Bypass",
			"-OutputFormat", "Text",
			"-EncodedCommand", encoded,
		},
		Timeout: s.timeout,
		Display: script,
	})
}

func (s *processSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
