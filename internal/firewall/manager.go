package firewall

import (
	"context"
	"errors"
)

// Backend identifies a rule-management tool.
type Backend string

const (
	BackendNetsh      Backend = "netsh"
	BackendPowerShell Backend = "powershell"
)

func (b Backend) String() string { return string(b) }

// Manager is the rule contract both backends satisfy.
//
// All methods are safe for concurrent use. No ordering is enforced between
// concurrent calls on the same rule name; the OS firewall store arbitrates.
type Manager interface {
	AddInboundProgramRule(ctx context.Context, name, path string) Result
	AddOutboundProgramRule(ctx context.Context, name, path string) Result
	// AddPortRule adds an allow rule for a local port. An empty protocol means TCP.
	AddPortRule(ctx context.Context, name string, port int, inbound bool, protocol string) Result
	AddRemoteIPRule(ctx context.Context, name, ip string, inbound, allow bool) Result
	AddLocalIPRule(ctx context.Context, name, ip string, inbound, allow bool) Result

	DeleteRule(ctx context.Context, name string) Result
	ListRules(ctx context.Context) RuleList
	// RuleExists reports presence through Result.Success. An absent rule
	// yields Success=false with Absent() true.
	RuleExists(ctx context.Context, name string) Result
	SetRuleEnabled(ctx context.Context, name string, enabled bool) Result

	ExportPolicy(ctx context.Context, path string) Result
	ImportPolicy(ctx context.Context, path string) Result
	ResetPolicy(ctx context.Context) Result

	IsElevated() bool
	Backend() Backend
}

// Result is the outcome of a single-rule or policy operation.
type Result struct {
	Success bool
	Message string
	// Err carries the classified cause; nil on success.
	Err error
}

// Absent reports whether the target rule does not exist.
func (r Result) Absent() bool {
	return errors.Is(r.Err, ErrRuleNotFound)
}

// RuleList is the outcome of ListRules. Order and duplicates follow the
// backend's own output.
type RuleList struct {
	Success bool
	Names   []string
	Message string
	Err     error
}
