package firewall

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Phrases is what one tool prints in one display language.
type Phrases struct {
	// NoMatch are fragments that appear only when the target rule is absent.
	NoMatch []string
	// RuleNameLabels prefix each rule name in a listing, separator included.
	RuleNameLabels []string
}

// Phrasebook recognizes locale-dependent tool output. The tool prints in the
// OS display language, not the operator's, so every registered locale is
// consulted on every match.
type Phrasebook struct {
	mu      sync.RWMutex
	order   []language.Tag
	entries map[language.Tag]Phrases
}

// NewPhrasebook returns an empty phrasebook.
func NewPhrasebook() *Phrasebook {
	return &Phrasebook{entries: make(map[language.Tag]Phrases)}
}

// NetshPhrases returns the phrases netsh prints on English and Simplified
// Chinese Windows.
func NetshPhrases() *Phrasebook {
	pb := NewPhrasebook()
	pb.Add(language.English, Phrases{
		NoMatch:        []string{"No rules match the specified criteria", "No rules match"},
		RuleNameLabels: []string{"Rule Name:"},
	})
	pb.Add(language.SimplifiedChinese, Phrases{
		NoMatch:        []string{"没有与指定条件匹配的规则", "没有规则匹配"},
		RuleNameLabels: []string{"规则名称:", "规则名称："},
	})
	return pb
}

// PowerShellPhrases returns the NetSecurity "object not found" messages on
// English and Simplified Chinese Windows.
func PowerShellPhrases() *Phrasebook {
	pb := NewPhrasebook()
	pb.Add(language.English, Phrases{
		NoMatch: []string{"No MSFT_NetFirewallRule objects found"},
	})
	pb.Add(language.SimplifiedChinese, Phrases{
		NoMatch: []string{"MSFT_NetFirewallRule 对象"},
	})
	return pb
}

// Add merges phrases for a locale.
func (pb *Phrasebook) Add(tag language.Tag, p Phrases) {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	cur, ok := pb.entries[tag]
	if !ok {
		pb.order = append(pb.order, tag)
	}
	cur.NoMatch = appendNew(cur.NoMatch, p.NoMatch...)
	cur.RuleNameLabels = appendNew(cur.RuleNameLabels, p.RuleNameLabels...)
	pb.entries[tag] = cur
}

// Locales lists the registered locales in registration order.
func (pb *Phrasebook) Locales() []language.Tag {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return append([]language.Tag(nil), pb.order...)
}

// IsNoMatch reports whether output says the target rule does not exist.
func (pb *Phrasebook) IsNoMatch(output string) bool {
	if output == "" {
		return false
	}
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	for _, tag := range pb.order {
		for _, phrase := range pb.entries[tag].NoMatch {
			if strings.Contains(output, phrase) {
				return true
			}
		}
	}
	return false
}

// RuleName extracts the rule name from a listing line that starts with a
// known label. The name is everything after the label, trimmed.
func (pb *Phrasebook) RuleName(line string) (string, bool) {
	line = strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))

	pb.mu.RLock()
	defer pb.mu.RUnlock()

	for _, tag := range pb.order {
		for _, label := range pb.entries[tag].RuleNameLabels {
			if rest, ok := strings.CutPrefix(line, label); ok {
				return strings.TrimSpace(rest), true
			}
		}
	}
	return "", false
}

func appendNew(dst []string, src ...string) []string {
	for _, s := range src {
		if s == "" {
			continue
		}
		dup := false
		for _, d := range dst {
			if d == s {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, s)
		}
	}
	return dst
}
