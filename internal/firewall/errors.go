package firewall

import (
	"errors"
	"fmt"

	"grimm.is/palisade/internal/executor"
	"grimm.is/palisade/internal/metrics"
)

var (
	// ErrPrecondition means the host cannot run any backend.
	ErrPrecondition = errors.New("system preflight failed")
	// ErrNotElevated means the process lacks administrator privileges.
	ErrNotElevated = errors.New("administrator privileges required")
	// ErrInvalidInput means a parameter failed validation; nothing was executed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRuleNotFound means the target rule does not exist.
	ErrRuleNotFound = errors.New("rule not found")
	// ErrExecution means the external tool reported a failure.
	ErrExecution = errors.New("firewall command failed")
	// ErrTimeout means the external tool exceeded its time bound and was killed.
	ErrTimeout = errors.New("firewall command timed out")
	// ErrSessionClosed is returned by a Session used after Close.
	ErrSessionClosed = errors.New("session closed")
)

// InputError is a validation failure with an operator-facing message.
type InputError struct {
	Message string
	Cause   error
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrInvalidInput}
	}
	return []error{ErrInvalidInput, e.Cause}
}

// classifyExec maps an executor failure onto the contract's sentinels.
func classifyExec(res executor.Result) error {
	if errors.Is(res.Err, executor.ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, res.Err)
	}
	if res.Err == nil {
		return ErrExecution
	}
	return fmt.Errorf("%w: %w", ErrExecution, res.Err)
}

// outcome is the metrics label for an operation result.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrRuleNotFound):
		return metrics.OutcomeAbsent
	case errors.Is(err, ErrInvalidInput):
		return metrics.OutcomeInvalid
	case errors.Is(err, ErrNotElevated):
		return metrics.OutcomeDenied
	case errors.Is(err, ErrTimeout):
		return metrics.OutcomeTimeout
	}
	return metrics.OutcomeFailure
}
