package firewalltest

import (
	"fmt"
	"regexp"
	"strings"

	"grimm.is/palisade/internal/executor"
)

var (
	reDisplayName = regexp.MustCompile(`DisplayName\s+=?\s*'((?:[^']|'')*)'`)
	reLiteralPath = regexp.MustCompile(`-LiteralPath '((?:[^']|'')*)'`)
)

func psLiteral(re *regexp.Regexp, script string) string {
	m := re.FindStringSubmatch(script)
	if m == nil {
		return ""
	}
	return strings.ReplaceAll(m[1], "''", "'")
}

func notFound(name string) executor.Result {
	return stderr(fmt.Sprintf("No MSFT_NetFirewallRule objects found with property 'DisplayName' equal to '%s'.  Verify the value of the property and retry.", name))
}

// PowerShell returns a handler that answers the scripts the PowerShell
// backend sends. It reads the script from the command's Display text.
func (s *Store) PowerShell() func(executor.Command) executor.Result {
	return func(cmd executor.Command) executor.Result {
		s.mu.Lock()
		defer s.mu.Unlock()

		script := cmd.Display
		name := psLiteral(reDisplayName, script)

		switch {
		case strings.Contains(script, "Import-Clixml"):
			rules, found := s.exports[psLiteral(reLiteralPath, script)]
			if !found {
				return stderr("Could not find file.")
			}
			for _, r := range rules {
				exists := false
				for _, cur := range s.rules {
					if cur.Name == r.Name {
						exists = true
						break
					}
				}
				if !exists {
					s.rules = append(s.rules, r)
				}
			}
			return ok("")

		case strings.Contains(script, "Export-Clixml"):
			if err := s.export(psLiteral(reLiteralPath, script)); err != nil {
				return stderr(err.Error())
			}
			return ok("")

		case strings.Contains(script, "New-NetFirewallRule @params"):
			s.add(name)
			return ok("")

		case strings.Contains(script, "Remove-NetFirewallRule -All"):
			s.rules = nil
			return ok("")

		case strings.Contains(script, "Remove-NetFirewallRule -DisplayName"):
			if s.remove(name) == 0 {
				return notFound(name)
			}
			return ok("")

		case strings.Contains(script, "Set-NetFirewallRule -DisplayName"):
			if s.setEnabled(name, strings.Contains(script, "-Enabled 'True'")) == 0 {
				return notFound(name)
			}
			return ok("")

		case strings.Contains(script, "Get-NetFirewallRule -Enabled True"):
			var names []string
			for _, r := range s.rules {
				if r.Enabled {
					names = append(names, r.Name)
				}
			}
			return ok(strings.Join(names, "\n"))

		case strings.Contains(script, "Get-NetFirewallRule -DisplayName"):
			for _, r := range s.rules {
				if r.Name == name {
					s.seq++
					return ok(fmt.Sprintf("{%08d-0000-0000-0000-000000000000}", s.seq))
				}
			}
			return ok("")
		}
		return stderr("The term is not recognized as the name of a cmdlet: " + strings.TrimSpace(script))
	}
}
