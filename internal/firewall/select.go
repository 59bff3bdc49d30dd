package firewall

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/message"

	"grimm.is/palisade/internal/executor"
	"grimm.is/palisade/internal/health"
	"grimm.is/palisade/internal/host"
	"grimm.is/palisade/internal/logging"
	"grimm.is/palisade/internal/metrics"
)

// PowerShellMinVersion is the first Windows release the PowerShell backend is
// selected on automatically: Windows 10 / Server 2016 (NT 10.0).
var PowerShellMinVersion = host.Version{Major: 10, Minor: 0}

// SelectOptions configures Select.
type SelectOptions struct {
	// Backend is "auto" (or empty), "netsh" or "powershell".
	Backend string
	Facts   host.Facts
	Runner  executor.CommandRunner

	NetshPath      string
	PowerShellPath string
	Timeout        time.Duration

	NetshPhrases      *Phrasebook
	PowerShellPhrases *Phrasebook

	// Preflight replaces the default platform, service and elevation checks.
	Preflight *health.Checker

	Printer *message.Printer
	Logger  *logging.Logger
	Metrics *metrics.Registry
}

// Select runs the system preflight once and builds the backend for this
// host. A failed precondition returns an error wrapping ErrPrecondition and
// no manager.
func Select(ctx context.Context, opts SelectOptions) (Manager, error) {
	if opts.Facts == nil {
		opts.Facts = host.System()
	}
	if opts.Logger == nil {
		opts.Logger = logging.WithComponent("firewall")
	}

	checker := opts.Preflight
	if checker == nil {
		checker = health.NewChecker(opts.Facts, opts.Printer)
	}
	if ok, msg := checker.Preflight(ctx); !ok {
		return nil, fmt.Errorf("%w: %s", ErrPrecondition, msg)
	}

	backend, err := ChooseBackend(opts.Backend, opts.Facts)
	if err != nil {
		return nil, err
	}

	elevated, err := opts.Facts.IsElevated()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPrecondition, err)
	}

	mopts := Options{
		Runner:   opts.Runner,
		Elevated: elevated,
		Timeout:  opts.Timeout,
		Printer:  opts.Printer,
		Metrics:  opts.Metrics,
	}
	opts.Logger.Info("backend selected", "backend", backend)

	switch backend {
	case BackendPowerShell:
		mopts.ToolPath = opts.PowerShellPath
		mopts.Phrases = opts.PowerShellPhrases
		mopts.Logger = opts.Logger.WithComponent(string(BackendPowerShell))
		return NewPowerShellManager(mopts), nil
	default:
		mopts.ToolPath = opts.NetshPath
		mopts.Phrases = opts.NetshPhrases
		mopts.Logger = opts.Logger.WithComponent(string(BackendNetsh))
		return NewNetshManager(mopts), nil
	}
}

// ChooseBackend applies an explicit choice, or picks by OS version: Windows
// 10 and later get PowerShell, older releases get netsh. An unknown version
// falls back to netsh, which every release ships.
func ChooseBackend(choice string, facts host.Facts) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(choice)) {
	case string(BackendNetsh):
		return BackendNetsh, nil
	case string(BackendPowerShell):
		return BackendPowerShell, nil
	case "", "auto":
		v, err := facts.Version()
		if err != nil || !v.AtLeast(PowerShellMinVersion.Major, PowerShellMinVersion.Minor) {
			return BackendNetsh, nil
		}
		return BackendPowerShell, nil
	}
	return "", fmt.Errorf("unknown backend %q (want auto, netsh or powershell)", choice)
}
