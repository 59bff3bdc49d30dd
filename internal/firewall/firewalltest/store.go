// Package firewalltest simulates netsh and the NetSecurity cmdlets over an
// in-memory rule store, so the firewall backends can be exercised end to end
// on any OS.
package firewalltest

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"grimm.is/palisade/internal/executor"
)

// Rule is one simulated firewall rule.
type Rule struct {
	Name    string
	Enabled bool
}

// Store is the simulated OS firewall store.
type Store struct {
	mu      sync.Mutex
	rules   []Rule
	exports map[string][]Rule
	seq     int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{exports: make(map[string][]Rule)}
}

// Names returns every rule name in insertion order.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.Name
	}
	return names
}

// Len is the number of rules.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rules)
}

// Get returns the named rule.
func (s *Store) Get(name string) (Rule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

// Seed adds rules directly.
func (s *Store) Seed(rules ...Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rules...)
}

func (s *Store) add(name string) {
	s.rules = append(s.rules, Rule{Name: name, Enabled: true})
}

func (s *Store) remove(name string) int {
	kept := s.rules[:0]
	removed := 0
	for _, r := range s.rules {
		if r.Name == name {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.rules = kept
	return removed
}

func (s *Store) setEnabled(name string, enabled bool) int {
	n := 0
	for i := range s.rules {
		if s.rules[i].Name == name {
			s.rules[i].Enabled = enabled
			n++
		}
	}
	return n
}

func (s *Store) export(path string) error {
	s.exports[path] = append([]Rule(nil), s.rules...)
	return os.WriteFile(path, []byte(fmt.Sprintf("palisade-test-export %d\n", len(s.rules))), 0644)
}

func ok(output string) executor.Result {
	return executor.Result{Success: true, Output: output}
}

func exitWith(code int, output string) executor.Result {
	return executor.Result{Output: output, ExitCode: code, Err: fmt.Errorf("%w: %d", executor.ErrExitStatus, code)}
}

func stderr(output string) executor.Result {
	return executor.Result{Output: output, ExitCode: 1, Err: executor.ErrStderr}
}

func unquote(v string) string {
	if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
		return v[1 : len(v)-1]
	}
	return v
}
