// Package executor runs the external firewall tools.
//
// A [RealCommandRunner] spawns one child process per [Command], drains stdout and
// stderr concurrently line by line, decodes both streams from the console code
// page, and folds the outcome into a [Result]:
//
//   - anything written to stderr is a failure, and the stderr text is the output
//   - otherwise the exit code decides, and stdout is the output
//   - spawn, decode, timeout and cancellation problems are failures carrying the
//     error text; they are never returned as Go errors
//
// Every command runs under a bounded wait. When the timeout expires or the
// caller's context is cancelled the process is killed.
package executor
