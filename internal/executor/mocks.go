package executor

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockCommandRunner is a mock implementation of CommandRunner for testing.
type MockCommandRunner struct {
	mock.Mock
}

func (m *MockCommandRunner) Execute(ctx context.Context, cmd Command) Result {
	args := m.Called(cmd)
	return args.Get(0).(Result)
}

// FakeRunner answers commands from Handler and records every call. With no
// Handler every command succeeds with empty output, which makes it a dry-run
// runner.
type FakeRunner struct {
	Handler func(cmd Command) Result

	mu    sync.Mutex
	calls []Command
}

func (f *FakeRunner) Execute(ctx context.Context, cmd Command) Result {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	handler := f.Handler
	f.mu.Unlock()

	if handler == nil {
		return Result{Success: true}
	}
	return handler(cmd)
}

// Calls returns the recorded commands in execution order.
func (f *FakeRunner) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.calls...)
}

// Recorded returns the rendered commands in execution order.
func (f *FakeRunner) Recorded() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}
