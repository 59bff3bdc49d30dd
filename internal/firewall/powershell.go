package firewall

import (
	"context"
	"strings"

	"grimm.is/palisade/internal/executor"
	"grimm.is/palisade/internal/i18n"
)

// PowerShellManager drives the NetSecurity cmdlets. Every operation builds a
// script, opens a fresh Session, runs the script once and closes the session.
type PowerShellManager struct {
	base
	sessions SessionFactory
}

var _ Manager = (*PowerShellManager)(nil)

// NewPowerShellManager creates the PowerShell backend.
func NewPowerShellManager(opts Options) *PowerShellManager {
	m := &PowerShellManager{base: newBase(BackendPowerShell, DefaultPowerShellPath, PowerShellPhrases, opts)}
	m.sessions = opts.Sessions
	if m.sessions == nil {
		m.sessions = &ProcessSessions{Runner: m.runner, Path: m.path, Timeout: m.timeout}
	}
	return m
}

// invoke runs a script in its own session.
func (m *PowerShellManager) invoke(ctx context.Context, b *ScriptBuilder) executor.Result {
	session, err := m.sessions.Open(ctx)
	if err != nil {
		return executor.Result{Output: err.Error(), ExitCode: -1, Err: err}
	}
	defer session.Close()

	script := b.Build()
	m.logger.Debug("dispatch", "script", script)
	return session.Invoke(ctx, script)
}

func (m *PowerShellManager) AddInboundProgramRule(ctx context.Context, name, path string) Result {
	return m.addRule(ctx, ProgramRule(name, path, true))
}

func (m *PowerShellManager) AddOutboundProgramRule(ctx context.Context, name, path string) Result {
	return m.addRule(ctx, ProgramRule(name, path, false))
}

func (m *PowerShellManager) AddPortRule(ctx context.Context, name string, port int, inbound bool, protocol string) Result {
	return m.addRule(ctx, PortRule(name, port, inbound, protocol))
}

func (m *PowerShellManager) AddRemoteIPRule(ctx context.Context, name, ip string, inbound, allow bool) Result {
	return m.addRule(ctx, RemoteIPRule(name, ip, inbound, allow))
}

func (m *PowerShellManager) AddLocalIPRule(ctx context.Context, name, ip string, inbound, allow bool) Result {
	return m.addRule(ctx, LocalIPRule(name, ip, inbound, allow))
}

func (m *PowerShellManager) addRule(ctx context.Context, intent RuleIntent) Result {
	var rule RuleIntent
	res, ok := m.guard(opAdd, intent.Name, func() (err error) {
		rule, err = intent.validate(m.printer)
		return err
	})
	if !ok {
		return res
	}

	out := m.invoke(ctx, psAddScript(rule))
	if !out.Success {
		return m.fail(opAdd, rule.Name, i18n.MsgAddFailed, out)
	}
	return m.succeed(opAdd, rule.Name, m.printer.Sprintf(i18n.MsgRuleAdded))
}

// DeleteRule removes every rule with the display name. A missing rule makes
// the cmdlet fail with the phrasebook's not-found message.
func (m *PowerShellManager) DeleteRule(ctx context.Context, name string) Result {
	res, ok := m.guard(opDelete, name, func() error { return validateName(m.printer, name) })
	if !ok {
		return res
	}

	b := NewScriptBuilder()
	b.AddLine("Remove-NetFirewallRule -DisplayName " + psQuote(name))
	out := m.invoke(ctx, b)
	switch {
	case !out.Success && m.phrases.IsNoMatch(out.Output):
		return m.absent(opDelete, name)
	case !out.Success:
		return m.fail(opDelete, name, i18n.MsgDeleteFailed, out)
	}
	return m.succeed(opDelete, name, m.printer.Sprintf(i18n.MsgRuleDeleted))
}

// ListRules returns the display names of enabled rules, one per output line.
func (m *PowerShellManager) ListRules(ctx context.Context) RuleList {
	res, ok := m.guard(opList, "", nil)
	if !ok {
		return listFailure(res)
	}

	b := NewScriptBuilder()
	b.AddLine("Get-NetFirewallRule -Enabled True | ForEach-Object { $_.DisplayName }")
	out := m.invoke(ctx, b)
	if !out.Success {
		return listFailure(m.fail(opList, "", i18n.MsgListFailed, out))
	}

	names := []string{}
	for _, line := range strings.Split(out.Output, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	m.done(opList, "", Result{Success: true})
	return RuleList{Success: true, Names: names, Message: m.printer.Sprintf(i18n.MsgRulesListed, len(names))}
}

// RuleExists treats empty output as absent and anything else as present.
func (m *PowerShellManager) RuleExists(ctx context.Context, name string) Result {
	res, ok := m.guard(opExists, name, func() error { return validateName(m.printer, name) })
	if !ok {
		return res
	}

	b := NewScriptBuilder()
	b.AddLine("Get-NetFirewallRule -DisplayName " + psQuote(name) + " -ErrorAction SilentlyContinue | ForEach-Object { $_.Name }")
	out := m.invoke(ctx, b)
	switch {
	case !out.Success && m.phrases.IsNoMatch(out.Output):
		return m.absent(opExists, name)
	case !out.Success:
		return m.fail(opExists, name, i18n.MsgCheckFailed, out)
	case strings.TrimSpace(out.Output) == "":
		return m.absent(opExists, name)
	}
	return m.succeed(opExists, name, m.printer.Sprintf(i18n.MsgRuleExists))
}

func (m *PowerShellManager) SetRuleEnabled(ctx context.Context, name string, enabled bool) Result {
	res, ok := m.guard(opSet, name, func() error { return validateName(m.printer, name) })
	if !ok {
		return res
	}

	b := NewScriptBuilder()
	b.AddLine("Set-NetFirewallRule -DisplayName " + psQuote(name) + " -Enabled " + psBool(enabled))
	out := m.invoke(ctx, b)
	switch {
	case !out.Success && m.phrases.IsNoMatch(out.Output):
		return m.absent(opSet, name)
	case !out.Success:
		return m.fail(opSet, name, i18n.MsgSetFailed, out)
	}
	if enabled {
		return m.succeed(opSet, name, m.printer.Sprintf(i18n.MsgRuleEnabled))
	}
	return m.succeed(opSet, name, m.printer.Sprintf(i18n.MsgRuleDisabled))
}

// ExportPolicy serializes every rule with its filters to a CLIXML file.
func (m *PowerShellManager) ExportPolicy(ctx context.Context, path string) Result {
	res, ok := m.guard(opExport, path, func() error { return validateExportPath(m.printer, path) })
	if !ok {
		return res
	}

	out := m.invoke(ctx, psExportScript(path))
	if !out.Success {
		return m.fail(opExport, path, i18n.MsgExportFailed, out)
	}
	return m.succeed(opExport, path, m.printer.Sprintf(i18n.MsgPolicyExported, path))
}

// ImportPolicy re-creates serialized rules. It is additive: rules whose
// display name already exists are skipped, and nothing is removed.
func (m *PowerShellManager) ImportPolicy(ctx context.Context, path string) Result {
	res, ok := m.guard(opImport, path, func() error { return validateImportPath(m.printer, path) })
	if !ok {
		return res
	}

	out := m.invoke(ctx, psImportScript(path))
	if !out.Success {
		return m.fail(opImport, path, i18n.MsgImportFailed, out)
	}
	return m.succeed(opImport, path, m.printer.Sprintf(i18n.MsgPolicyImported))
}

// ResetPolicy removes all rules and restores the default profile actions:
// inbound blocked, outbound allowed.
func (m *PowerShellManager) ResetPolicy(ctx context.Context) Result {
	res, ok := m.guard(opReset, "policy", nil)
	if !ok {
		return res
	}

	b := NewScriptBuilder()
	b.AddLine("Remove-NetFirewallRule -All -ErrorAction SilentlyContinue")
	b.AddLine("Set-NetFirewallProfile -Profile Domain,Public,Private -Enabled True -DefaultInboundAction Block -DefaultOutboundAction Allow")
	out := m.invoke(ctx, b)
	if !out.Success {
		return m.fail(opReset, "policy", i18n.MsgResetFailed, out)
	}
	return m.succeed(opReset, "policy", m.printer.Sprintf(i18n.MsgFirewallReset))
}

func psAddScript(r RuleIntent) *ScriptBuilder {
	params := []psParam{
		{"DisplayName", psQuote(r.Name)},
		{"Direction", psDirection(r.Direction)},
		{"Action", psAction(r.Action)},
		{"Profile", "'Any'"},
		{"Enabled", psBool(true)},
	}
	switch r.Kind {
	case KindProgram:
		params = append(params, psParam{"Program", psQuote(r.Program)}, psParam{"Protocol", "'Any'"})
	case KindPort:
		params = append(params, psParam{"Protocol", psQuote(r.Protocol)}, psParam{"LocalPort", psInt(r.Port)})
	case KindRemoteIP:
		params = append(params, psParam{"RemoteAddress", psAddress(r.Address)})
	case KindLocalIP:
		params = append(params, psParam{"LocalAddress", psAddress(r.Address)})
	}

	b := NewScriptBuilder()
	b.Splat("params", params)
	b.AddLine("New-NetFirewallRule @params | Out-Null")
	return b
}

func psExportScript(path string) *ScriptBuilder {
	b := NewScriptBuilder()
	b.AddLine("$rules = Get-NetFirewallRule | ForEach-Object {")
	b.AddLine("    $app  = $_ | Get-NetFirewallApplicationFilter")
	b.AddLine("    $port = $_ | Get-NetFirewallPortFilter")
	b.AddLine("    $addr = $_ | Get-NetFirewallAddressFilter")
	b.AddLine("    [pscustomobject]@{")
	b.AddLine("        DisplayName   = $_.DisplayName")
	b.AddLine("        Enabled       = [string]$_.Enabled")
	b.AddLine("        Direction     = [string]$_.Direction")
	b.AddLine("        Action        = [string]$_.Action")
	b.AddLine("        Program       = $app.Program")
	b.AddLine("        Protocol      = $port.Protocol")
	b.AddLine("        LocalPort     = $port.LocalPort")
	b.AddLine("        RemoteAddress = $addr.RemoteAddress")
	b.AddLine("        LocalAddress  = $addr.LocalAddress")
	b.AddLine("    }")
	b.AddLine("}")
	b.AddLine("$rules | Export-Clixml -LiteralPath " + psQuote(path))
	return b
}

func psImportScript(path string) *ScriptBuilder {
	b := NewScriptBuilder()
	b.AddLine("$rules = Import-Clixml -LiteralPath " + psQuote(path))
	b.AddLine("$existing = @{}")
	b.AddLine("Get-NetFirewallRule | ForEach-Object { $existing[$_.DisplayName] = $true }")
	b.AddLine("foreach ($rule in $rules) {")
	b.AddLine("    if ($existing.ContainsKey($rule.DisplayName)) { continue }")
	b.AddLine("    $params = @{")
	b.AddLine("        DisplayName = $rule.DisplayName")
	b.AddLine("        Enabled     = $rule.Enabled")
	b.AddLine("        Direction   = $rule.Direction")
	b.AddLine("        Action      = $rule.Action")
	b.AddLine("    }")
	for _, field := range []string{"Program", "Protocol", "LocalPort", "RemoteAddress", "LocalAddress"} {
		b.AddLine("    if ($rule." + field + " -and \"$($rule." + field + ")\" -ne 'Any') { $params." + field + " = $rule." + field + " }")
	}
	b.AddLine("    New-NetFirewallRule @params -ErrorAction SilentlyContinue | Out-Null")
	b.AddLine("    $existing[$rule.DisplayName] = $true")
	b.AddLine("}")
	return b
}
