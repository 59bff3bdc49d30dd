package firewall

import (
	"context"
	"strconv"
	"strings"

	"grimm.is/palisade/internal/executor"
	"grimm.is/palisade/internal/i18n"
)

// DefaultNetshPath is resolved through PATH.
const DefaultNetshPath = "netsh.exe"

// NetshManager drives netsh advfirewall. Each operation is one command line;
// listings are scraped from netsh's tabular text.
type NetshManager struct {
	base
}

var _ Manager = (*NetshManager)(nil)

// NewNetshManager creates the netsh backend.
func NewNetshManager(opts Options) *NetshManager {
	return &NetshManager{base: newBase(BackendNetsh, DefaultNetshPath, NetshPhrases, opts)}
}

// command builds a verbatim netsh invocation; netsh reads name="value"
// tokens from its raw command line.
func (m *NetshManager) command(args ...string) executor.Command {
	return executor.Command{Path: m.path, Args: args, Verbatim: true, Timeout: m.timeout}
}

func (m *NetshManager) run(ctx context.Context, args ...string) executor.Result {
	cmd := m.command(args...)
	m.logger.Debug("dispatch", "cmd", cmd.String())
	return m.runner.Execute(ctx, cmd)
}

func (m *NetshManager) AddInboundProgramRule(ctx context.Context, name, path string) Result {
	return m.addRule(ctx, ProgramRule(name, path, true))
}

func (m *NetshManager) AddOutboundProgramRule(ctx context.Context, name, path string) Result {
	return m.addRule(ctx, ProgramRule(name, path, false))
}

func (m *NetshManager) AddPortRule(ctx context.Context, name string, port int, inbound bool, protocol string) Result {
	return m.addRule(ctx, PortRule(name, port, inbound, protocol))
}

func (m *NetshManager) AddRemoteIPRule(ctx context.Context, name, ip string, inbound, allow bool) Result {
	return m.addRule(ctx, RemoteIPRule(name, ip, inbound, allow))
}

func (m *NetshManager) AddLocalIPRule(ctx context.Context, name, ip string, inbound, allow bool) Result {
	return m.addRule(ctx, LocalIPRule(name, ip, inbound, allow))
}

func (m *NetshManager) addRule(ctx context.Context, intent RuleIntent) Result {
	var rule RuleIntent
	res, ok := m.guard(opAdd, intent.Name, func() (err error) {
		rule, err = intent.validate(m.printer)
		return err
	})
	if !ok {
		return res
	}

	out := m.run(ctx, netshAddArgs(rule)...)
	if !out.Success {
		return m.fail(opAdd, rule.Name, i18n.MsgAddFailed, out)
	}
	return m.succeed(opAdd, rule.Name, m.printer.Sprintf(i18n.MsgRuleAdded))
}

func (m *NetshManager) DeleteRule(ctx context.Context, name string) Result {
	res, ok := m.guard(opDelete, name, func() error { return validateName(m.printer, name) })
	if !ok {
		return res
	}

	out := m.run(ctx, "advfirewall", "firewall", "delete", "rule", "name="+netshValue(name))
	switch {
	case m.phrases.IsNoMatch(out.Output):
		return m.absent(opDelete, name)
	case !out.Success:
		return m.fail(opDelete, name, i18n.MsgDeleteFailed, out)
	}
	return m.succeed(opDelete, name, m.printer.Sprintf(i18n.MsgRuleDeleted))
}

// ListRules returns every rule netsh shows, enabled or not, in netsh's order.
func (m *NetshManager) ListRules(ctx context.Context) RuleList {
	res, ok := m.guard(opList, "", nil)
	if !ok {
		return listFailure(res)
	}

	out := m.run(ctx, "advfirewall", "firewall", "show", "rule", "name=all")
	if !out.Success {
		// An empty store answers name=all with the no-match phrase.
		if m.phrases.IsNoMatch(out.Output) {
			m.done(opList, "", Result{Success: true})
			return RuleList{Success: true, Names: []string{}, Message: m.printer.Sprintf(i18n.MsgRulesListed, 0)}
		}
		return listFailure(m.fail(opList, "", i18n.MsgListFailed, out))
	}

	names := parseNetshRuleNames(m.phrases, out.Output)
	m.done(opList, "", Result{Success: true})
	return RuleList{Success: true, Names: names, Message: m.printer.Sprintf(i18n.MsgRulesListed, len(names))}
}

func (m *NetshManager) RuleExists(ctx context.Context, name string) Result {
	res, ok := m.guard(opExists, name, func() error { return validateName(m.printer, name) })
	if !ok {
		return res
	}

	out := m.run(ctx, "advfirewall", "firewall", "show", "rule", "name="+netshValue(name))
	switch {
	case m.phrases.IsNoMatch(out.Output):
		return m.absent(opExists, name)
	case !out.Success:
		return m.fail(opExists, name, i18n.MsgCheckFailed, out)
	}
	return m.succeed(opExists, name, m.printer.Sprintf(i18n.MsgRuleExists))
}

func (m *NetshManager) SetRuleEnabled(ctx context.Context, name string, enabled bool) Result {
	res, ok := m.guard(opSet, name, func() error { return validateName(m.printer, name) })
	if !ok {
		return res
	}

	out := m.run(ctx, "advfirewall", "firewall", "set", "rule", "name="+netshValue(name), "new", "enable="+yesNo(enabled))
	switch {
	case m.phrases.IsNoMatch(out.Output):
		return m.absent(opSet, name)
	case !out.Success:
		return m.fail(opSet, name, i18n.MsgSetFailed, out)
	}
	if enabled {
		return m.succeed(opSet, name, m.printer.Sprintf(i18n.MsgRuleEnabled))
	}
	return m.succeed(opSet, name, m.printer.Sprintf(i18n.MsgRuleDisabled))
}

// ExportPolicy writes a native .wfw policy bundle.
func (m *NetshManager) ExportPolicy(ctx context.Context, path string) Result {
	res, ok := m.guard(opExport, path, func() error { return validateExportPath(m.printer, path) })
	if !ok {
		return res
	}

	out := m.run(ctx, "advfirewall", "export", netshValue(path))
	if !out.Success {
		return m.fail(opExport, path, i18n.MsgExportFailed, out)
	}
	return m.succeed(opExport, path, m.printer.Sprintf(i18n.MsgPolicyExported, path))
}

// ImportPolicy replaces the whole policy with a .wfw bundle.
func (m *NetshManager) ImportPolicy(ctx context.Context, path string) Result {
	res, ok := m.guard(opImport, path, func() error { return validateImportPath(m.printer, path) })
	if !ok {
		return res
	}

	out := m.run(ctx, "advfirewall", "import", netshValue(path))
	if !out.Success {
		return m.fail(opImport, path, i18n.MsgImportFailed, out)
	}
	return m.succeed(opImport, path, m.printer.Sprintf(i18n.MsgPolicyImported))
}

// ResetPolicy restores the Windows default policy.
func (m *NetshManager) ResetPolicy(ctx context.Context) Result {
	res, ok := m.guard(opReset, "policy", nil)
	if !ok {
		return res
	}

	out := m.run(ctx, "advfirewall", "reset")
	if !out.Success {
		return m.fail(opReset, "policy", i18n.MsgResetFailed, out)
	}
	return m.succeed(opReset, "policy", m.printer.Sprintf(i18n.MsgFirewallReset))
}

func netshAddArgs(r RuleIntent) []string {
	args := []string{
		"advfirewall", "firewall", "add", "rule",
		"name=" + netshValue(r.Name),
		"dir=" + string(r.Direction),
		"action=" + string(r.Action),
	}
	switch r.Kind {
	case KindProgram:
		args = append(args, "program="+netshValue(r.Program))
	case KindPort:
		args = append(args, "protocol="+strings.ToLower(r.Protocol), "localport="+strconv.Itoa(r.Port))
	case KindRemoteIP:
		args = append(args, "remoteip="+r.Address.String())
	case KindLocalIP:
		args = append(args, "localip="+r.Address.String())
	}
	return append(args, "enable=yes")
}

// netshValue double-quotes values netsh would otherwise split. Validation
// keeps double quotes and control characters out, since netsh has no escape
// for them.
func netshValue(v string) string {
	if v == "" || strings.ContainsAny(v, " \t=") {
		return `"` + v + `"`
	}
	return v
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// parseNetshRuleNames collects the value of every rule-name line.
func parseNetshRuleNames(pb *Phrasebook, output string) []string {
	names := []string{}
	for _, line := range strings.Split(output, "\n") {
		if name, ok := pb.RuleName(line); ok {
			names = append(names, name)
		}
	}
	return names
}
