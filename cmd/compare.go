package cmd

import (
	"context"
	"fmt"
	"strings"

	"grimm.is/palisade/internal/brand"
	"grimm.is/palisade/internal/compare"
	"grimm.is/palisade/internal/config"
	"grimm.is/palisade/internal/firewall"
)

// CompareArgs are the arguments of "palisade compare".
type CompareArgs struct {
	Program  string
	Backends []string
	Dir      string
	Format   string
	Rules    int
	Scratch  string
}

// RunCompare runs the comparison harness against the named backends and
// writes the report.
func RunCompare(ctx context.Context, env *Env, args CompareArgs) error {
	if args.Program == "" {
		return Usage("-program is required: an existing executable for program rules")
	}
	if len(args.Backends) == 0 {
		args.Backends = []string{config.BackendNetsh, config.BackendPowerShell}
	}
	if args.Dir == "" {
		args.Dir = env.Config.Report.Dir
	}
	if args.Dir == "" {
		args.Dir = brand.GetReportDir()
	}
	if args.Format == "" {
		args.Format = env.Config.Report.Format
	}
	if args.Rules == 0 {
		args.Rules = env.Config.Report.Rules
	}

	managers := make([]firewall.Manager, 0, len(args.Backends))
	for _, b := range args.Backends {
		b = strings.ToLower(strings.TrimSpace(b))
		if b != config.BackendNetsh && b != config.BackendPowerShell {
			return Usage("unknown backend %q (want netsh or powershell)", b)
		}
		m, err := env.ManagerFor(ctx, b)
		if err != nil {
			return err
		}
		managers = append(managers, m)
	}

	report, err := compare.Run(ctx, managers, compare.Options{
		Rules:   args.Rules,
		Program: args.Program,
		Scratch: args.Scratch,
		Metrics: env.Metrics,
		Logger:  env.Logger.WithComponent("compare"),
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(env.Out, report.Summary())
	path, err := compare.Write(args.Dir, report, args.Format)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "Report: %s\n", path)

	if !report.OK() {
		return fmt.Errorf("comparison failed, see %s", path)
	}
	return nil
}
