package firewalltest

import (
	"fmt"
	"strings"

	"grimm.is/palisade/internal/executor"
)

// NetshLocale selects the display language of simulated netsh output.
type NetshLocale int

const (
	English NetshLocale = iota
	Chinese
)

type netshText struct {
	noMatch  string
	ruleName string
	enabled  string
	yes, no  string
}

var netshTexts = map[NetshLocale]netshText{
	English: {"No rules match the specified criteria.", "Rule Name:", "Enabled:", "Yes", "No"},
	Chinese: {"没有与指定条件匹配的规则。", "规则名称:", "已启用:", "是", "否"},
}

// Netsh returns a handler that answers netsh advfirewall commands.
func (s *Store) Netsh(locale NetshLocale) func(executor.Command) executor.Result {
	text := netshTexts[locale]
	return func(cmd executor.Command) executor.Result {
		s.mu.Lock()
		defer s.mu.Unlock()

		args := cmd.Args
		line := strings.Join(args, " ")
		name := ""
		for _, a := range args {
			if v, ok := strings.CutPrefix(a, "name="); ok {
				name = unquote(v)
			}
		}
		noMatch := exitWith(1, "\n"+text.noMatch+"\n")

		switch {
		case strings.HasPrefix(line, "advfirewall firewall add rule"):
			s.add(name)
			return ok("Ok.\n")

		case strings.HasPrefix(line, "advfirewall firewall delete rule"):
			n := s.remove(name)
			if n == 0 {
				return noMatch
			}
			return ok(fmt.Sprintf("\nDeleted %d rule(s).\nOk.\n", n))

		case strings.HasPrefix(line, "advfirewall firewall show rule"):
			var b strings.Builder
			for _, r := range s.rules {
				if name != "all" && r.Name != name {
					continue
				}
				state := text.no
				if r.Enabled {
					state = text.yes
				}
				fmt.Fprintf(&b, "\n%-38s%s\n", text.ruleName, r.Name)
				b.WriteString("----------------------------------------------------------------------\n")
				fmt.Fprintf(&b, "%-38s%s\n", text.enabled, state)
			}
			if b.Len() == 0 {
				return noMatch
			}
			return ok(b.String() + "Ok.\n")

		case strings.HasPrefix(line, "advfirewall firewall set rule"):
			enabled := strings.HasSuffix(line, "enable=yes")
			if s.setEnabled(name, enabled) == 0 {
				return noMatch
			}
			return ok("\nUpdated 1 rule(s).\nOk.\n")

		case strings.HasPrefix(line, "advfirewall export"):
			if err := s.export(unquote(args[len(args)-1])); err != nil {
				return exitWith(1, err.Error())
			}
			return ok("Ok.\n")

		case strings.HasPrefix(line, "advfirewall import"):
			rules, found := s.exports[unquote(args[len(args)-1])]
			if !found {
				return exitWith(1, "An error occurred while attempting to contact the Windows Defender Firewall service.")
			}
			s.rules = append([]Rule(nil), rules...)
			return ok("Ok.\n")

		case line == "advfirewall reset":
			s.rules = nil
			return ok("Ok.\n")
		}
		return exitWith(1, "The following command was not found: "+line)
	}
}
