// Package health runs the system preflight that must pass before any firewall
// backend is built.
package health

import (
	"context"
	"time"

	"golang.org/x/text/message"

	"grimm.is/palisade/internal/brand"
	"grimm.is/palisade/internal/clock"
	"grimm.is/palisade/internal/host"
	"grimm.is/palisade/internal/i18n"
)

// Status represents the outcome of a check.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusSkipped   Status = "skipped"
)

// FirewallService is the Windows Defender Firewall service name.
var FirewallService = brand.FirewallServiceName

// Check represents a single preflight check.
type Check struct {
	Name        string        `json:"name" yaml:"name"`
	Status      Status        `json:"status" yaml:"status"`
	Message     string        `json:"message,omitempty" yaml:"message,omitempty"`
	LastChecked time.Time     `json:"last_checked" yaml:"last_checked"`
	Duration    time.Duration `json:"duration_ms" yaml:"duration_ms"`
}

// Report is the ordered result of a preflight run.
type Report struct {
	Status    Status    `json:"status" yaml:"status"`
	Checks    []Check   `json:"checks" yaml:"checks"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// OK reports whether every check passed.
func (r Report) OK() bool {
	return r.Status == StatusHealthy
}

// Message is the first failure, or the pass message.
func (r Report) Message() string {
	for _, c := range r.Checks {
		if c.Status == StatusUnhealthy {
			return c.Message
		}
	}
	for _, c := range r.Checks {
		if c.Status == StatusHealthy && c.Name == "summary" {
			return c.Message
		}
	}
	return ""
}

// CheckFunc performs one check. It returns a Check without Name or timing.
type CheckFunc func(ctx context.Context) Check

type namedCheck struct {
	name string
	fn   CheckFunc
}

// Checker runs checks in registration order and stops at the first failure.
type Checker struct {
	checks  []namedCheck
	printer *message.Printer
	clock   clock.Clock
}

// NewChecker creates a checker with the platform, firewall service and
// elevation checks registered, in that order.
func NewChecker(facts host.Facts, p *message.Printer) *Checker {
	if p == nil {
		p = i18n.NewPrinter(i18n.DefaultLang)
	}
	c := &Checker{printer: p, clock: &clock.RealClock{}}
	c.Register("platform", c.checkPlatform(facts))
	c.Register("firewall-service", c.checkFirewallService(facts))
	c.Register("elevation", c.checkElevation(facts))
	return c
}

// Register appends a check.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.checks = append(c.checks, namedCheck{name: name, fn: fn})
}

// Check runs the checks in order. Once one fails the rest are marked skipped.
func (c *Checker) Check(ctx context.Context) Report {
	report := Report{Status: StatusHealthy, Timestamp: c.clock.Now()}

	for _, nc := range c.checks {
		if report.Status == StatusUnhealthy {
			report.Checks = append(report.Checks, Check{Name: nc.name, Status: StatusSkipped})
			continue
		}
		start := c.clock.Now()
		check := nc.fn(ctx)
		check.Name = nc.name
		check.LastChecked = start
		check.Duration = c.clock.Since(start)
		if check.Status == StatusUnhealthy {
			report.Status = StatusUnhealthy
		}
		report.Checks = append(report.Checks, check)
	}

	if report.Status == StatusHealthy {
		report.Checks = append(report.Checks, Check{
			Name:        "summary",
			Status:      StatusHealthy,
			Message:     c.printer.Sprintf(i18n.MsgPreflightPassed),
			LastChecked: report.Timestamp,
		})
	}
	return report
}

// Preflight runs the checks and reports the first failure message, or the
// pass message.
func (c *Checker) Preflight(ctx context.Context) (bool, string) {
	report := c.Check(ctx)
	return report.OK(), report.Message()
}

func (c *Checker) checkPlatform(facts host.Facts) CheckFunc {
	return func(ctx context.Context) Check {
		if facts.OS() != "windows" {
			return Check{Status: StatusUnhealthy, Message: c.printer.Sprintf(i18n.MsgUnsupportedOS)}
		}
		return Check{Status: StatusHealthy, Message: facts.OS()}
	}
}

func (c *Checker) checkFirewallService(facts host.Facts) CheckFunc {
	return func(ctx context.Context) Check {
		running, err := facts.ServiceRunning(FirewallService)
		if err != nil {
			return Check{Status: StatusUnhealthy, Message: c.printer.Sprintf(i18n.MsgServiceCheckFailed, err.Error())}
		}
		if !running {
			return Check{Status: StatusUnhealthy, Message: c.printer.Sprintf(i18n.MsgServiceNotRunning)}
		}
		return Check{Status: StatusHealthy, Message: FirewallService + " running"}
	}
}

func (c *Checker) checkElevation(facts host.Facts) CheckFunc {
	return func(ctx context.Context) Check {
		elevated, err := facts.IsElevated()
		if err != nil || !elevated {
			return Check{Status: StatusUnhealthy, Message: c.printer.Sprintf(i18n.MsgNotElevated)}
		}
		return Check{Status: StatusHealthy, Message: "elevated"}
	}
}
