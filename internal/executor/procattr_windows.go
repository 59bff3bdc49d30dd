//go:build windows

package executor

import (
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sys/windows"
)

// configureProcAttr hides the console window and, for verbatim commands,
// hands the child the raw command line.
func configureProcAttr(cmd *exec.Cmd, c Command) {
	attr := &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
	if c.Verbatim {
		attr.CmdLine = windows.EscapeArg(c.Path) + " " + strings.Join(c.Args, " ")
	}
	cmd.SysProcAttr = attr
}
