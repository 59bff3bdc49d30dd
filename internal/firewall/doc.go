// Package firewall manages Windows Firewall rules through one contract with
// two interchangeable backends.
//
// # Architecture
//
//	caller → Manager → NetshManager | PowerShellManager → executor → netsh.exe | powershell.exe
//
// Callers code only against [Manager]. [Select] runs the system preflight once
// and builds exactly one backend; the caller owns it for the process lifetime.
//
// # Key Types
//
//   - [Manager]: the rule contract (program, port and IP rules, delete, list,
//     exists, enable/disable, policy export/import/reset)
//   - [NetshManager]: builds netsh advfirewall command lines and scrapes the
//     tabular text netsh prints
//   - [PowerShellManager]: builds NetSecurity cmdlet scripts and runs each one
//     in a fresh [Session]
//   - [Phrasebook]: the per-locale phrases used to tell "rule absent" apart
//     from "command failed"
//   - [Result], [RuleList]: structured outcomes; no error crosses the contract
//     as a panic or a bare Go error
//
// # Guard Order
//
// Every operation checks, in order: elevation, input validation, dispatch,
// classification. A rejected request never reaches the executor.
//
// # Import Semantics
//
// The backends disagree on import and this package does not hide it. netsh
// import replaces the whole policy. The PowerShell import re-creates each
// serialized rule and skips display names that already exist.
package firewall
