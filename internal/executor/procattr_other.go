//go:build !windows

package executor

import "os/exec"

// configureProcAttr is a no-op off Windows; arguments are passed as an argv
// vector, so Verbatim has nothing to bypass.
func configureProcAttr(cmd *exec.Cmd, c Command) {}
