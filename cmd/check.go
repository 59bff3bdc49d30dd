package cmd

import (
	"context"
	"fmt"

	"grimm.is/palisade/internal/firewall"
	"grimm.is/palisade/internal/health"
	"grimm.is/palisade/internal/tui"
)

// RunCheck runs the preflight checks and prints each one.
func RunCheck(ctx context.Context, env *Env, verbose bool) error {
	report := health.NewChecker(env.Facts, env.Printer).Check(ctx)

	rows := make([]tui.Row, 0, len(report.Checks))
	for _, c := range report.Checks {
		status := tui.StatusPass
		switch c.Status {
		case health.StatusUnhealthy:
			status = tui.StatusFail
		case health.StatusSkipped:
			status = tui.StatusSkip
		}
		detail := c.Message
		if verbose {
			detail = fmt.Sprintf("%s (%s)", detail, c.Duration)
		}
		rows = append(rows, tui.Row{Status: status, Label: c.Name, Detail: detail})
	}
	fmt.Fprintln(env.Out, tui.Card("Preflight", rows))

	if !report.OK() {
		return fmt.Errorf("%w: %s", firewall.ErrPrecondition, report.Message())
	}

	backend, err := firewall.ChooseBackend(env.Config.Backend, env.Facts)
	if err != nil {
		return Usage("%v", err)
	}
	fmt.Fprintf(env.Out, "Backend: %s\n", backend)
	if verbose {
		if v, err := env.Facts.Version(); err == nil {
			fmt.Fprintf(env.Out, "Windows version: %s\n", v)
		}
	}
	return nil
}
