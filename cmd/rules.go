package cmd

import (
	"context"
	"fmt"
	"strings"

	"grimm.is/palisade/internal/firewall"
)

// AddArgs are the arguments of "palisade add".
type AddArgs struct {
	Kind     string // program, port, remote-ip or local-ip
	Name     string
	Target   string // program path or IP expression
	Port     int
	Protocol string
	Inbound  bool
	Allow    bool
}

// finish prints a result and turns it into an error with the right exit code.
func finish(env *Env, res firewall.Result) error {
	env.FlushDryRun()
	if res.Success {
		fmt.Fprintln(env.Out, res.Message)
		return nil
	}
	code := ExitFailure
	if res.Absent() {
		code = ExitAbsent
	}
	return &ExitError{Code: code, Err: fmt.Errorf("%s", res.Message)}
}

// RunAdd creates one rule.
func RunAdd(ctx context.Context, env *Env, args AddArgs) error {
	if strings.TrimSpace(args.Name) == "" {
		return Usage("rule name is required")
	}

	m, err := env.Manager(ctx)
	if err != nil {
		return err
	}

	var res firewall.Result
	switch args.Kind {
	case "program":
		if args.Inbound {
			res = m.AddInboundProgramRule(ctx, args.Name, args.Target)
		} else {
			res = m.AddOutboundProgramRule(ctx, args.Name, args.Target)
		}
	case "port":
		res = m.AddPortRule(ctx, args.Name, args.Port, args.Inbound, args.Protocol)
	case "remote-ip":
		res = m.AddRemoteIPRule(ctx, args.Name, args.Target, args.Inbound, args.Allow)
	case "local-ip":
		res = m.AddLocalIPRule(ctx, args.Name, args.Target, args.Inbound, args.Allow)
	default:
		return Usage("unknown rule kind %q (want program, port, remote-ip or local-ip)", args.Kind)
	}
	return finish(env, res)
}

// RunDelete deletes every rule with the given name. An absent rule exits 3.
func RunDelete(ctx context.Context, env *Env, name string) error {
	m, err := env.Manager(ctx)
	if err != nil {
		return err
	}
	return finish(env, m.DeleteRule(ctx, name))
}

// RunExists reports whether a rule exists. An absent rule exits 3.
func RunExists(ctx context.Context, env *Env, name string) error {
	m, err := env.Manager(ctx)
	if err != nil {
		return err
	}
	return finish(env, m.RuleExists(ctx, name))
}

// RunSetEnabled enables or disables a rule.
func RunSetEnabled(ctx context.Context, env *Env, name string, enabled bool) error {
	m, err := env.Manager(ctx)
	if err != nil {
		return err
	}
	return finish(env, m.SetRuleEnabled(ctx, name, enabled))
}

// RunList prints rule names, one per line.
func RunList(ctx context.Context, env *Env) error {
	m, err := env.Manager(ctx)
	if err != nil {
		return err
	}

	list := m.ListRules(ctx)
	env.FlushDryRun()
	if !list.Success {
		return fmt.Errorf("%s", list.Message)
	}
	for _, n := range list.Names {
		fmt.Fprintln(env.Out, n)
	}
	env.Logger.Debug("list complete", "backend", m.Backend(), "count", len(list.Names))
	return nil
}
