package firewall

import (
	"encoding/base64"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"grimm.is/palisade/internal/validation"
)

// ScriptBuilder assembles a PowerShell script. The body runs with errors
// promoted to terminating ones and the first error message written to stderr.
type ScriptBuilder struct {
	lines []string
}

// NewScriptBuilder creates an empty script.
func NewScriptBuilder() *ScriptBuilder {
	return &ScriptBuilder{lines: make([]string, 0, 16)}
}

// AddLine adds a raw statement. Caller values must already be quoted.
func (b *ScriptBuilder) AddLine(line string) {
	b.lines = append(b.lines, line)
}

// psParam is one splatted parameter with an already-rendered value.
type psParam struct {
	Name  string
	Value string
}

// Splat assigns a hashtable of parameters to $name for use as @name.
func (b *ScriptBuilder) Splat(name string, params []psParam) {
	width := 0
	for _, p := range params {
		width = max(width, len(p.Name))
	}
	b.AddLine("$" + name + " = @{")
	for _, p := range params {
		b.AddLine("    " + p.Name + strings.Repeat(" ", width-len(p.Name)) + " = " + p.Value)
	}
	b.AddLine("}")
}

// Build returns the complete script.
func (b *ScriptBuilder) Build() string {
	var sb strings.Builder
	sb.WriteString("$ErrorActionPreference = 'Stop'\n")
	sb.WriteString("$ProgressPreference = 'SilentlyContinue'\n")
	sb.WriteString("try {\n")
	for _, line := range b.lines {
		if line == "" {
			sb.WriteString("\n")
			continue
		}
		sb.WriteString("    " + line + "\n")
	}
	sb.WriteString("} catch {\n")
	sb.WriteString("    [Console]::Error.WriteLine($_.Exception.Message)\n")
	sb.WriteString("    exit 1\n")
	sb.WriteString("}\n")
	return sb.String()
}

// psSingleQuotes are the characters PowerShell accepts as a single quote.
const psSingleQuotes = "'\u2018\u2019\u201a\u201b"

// psQuote renders s as a single-quoted literal. Inside one, the only special
// characters are the quotes themselves, escaped by doubling.
func psQuote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('\'')
	for _, r := range s {
		if strings.ContainsRune(psSingleQuotes, r) {
			sb.WriteRune(r)
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('\'')
	return sb.String()
}

func psInt(n int) string {
	return strconv.Itoa(n)
}

func psBool(b bool) string {
	if b {
		return "'True'"
	}
	return "'False'"
}

func psDirection(d Direction) string {
	if d == DirectionOut {
		return "'Outbound'"
	}
	return "'Inbound'"
}

func psAction(a Action) string {
	if a == ActionBlock {
		return "'Block'"
	}
	return "'Allow'"
}

// psKeywords maps address keywords to the spelling NetSecurity documents.
var psKeywords = map[string]string{
	"any":            "Any",
	"localsubnet":    "LocalSubnet",
	"dns":            "DNS",
	"dhcp":           "DHCP",
	"wins":           "WINS",
	"defaultgateway": "DefaultGateway",
}

func psAddress(e validation.IPExpression) string {
	if e.Kind == validation.IPKeyword {
		if kw, ok := psKeywords[e.Keyword]; ok {
			return psQuote(kw)
		}
	}
	return psQuote(e.String())
}

// encodeCommand produces the -EncodedCommand argument: base64 of UTF-16LE.
func encodeCommand(script string) (string, error) {
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().String(script)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString([]byte(utf16)), nil
}
