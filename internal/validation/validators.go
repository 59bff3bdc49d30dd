package validation

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// MaxRuleNameLength is the longest display name the firewall store accepts.
const MaxRuleNameLength = 1024

// ipKeywords are the address keywords both firewall tools understand.
var ipKeywords = []string{"any", "localsubnet", "dns", "dhcp", "wins", "defaultgateway"}

// Characters netsh cannot carry inside a quoted value.
var forbiddenNameChars = "\"\x00"

// ValidateRuleName validates a firewall rule display name.
func ValidateRuleName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("rule name cannot be empty")
	}

	if len(name) > MaxRuleNameLength {
		return fmt.Errorf("rule name too long (max %d characters)", MaxRuleNameLength)
	}

	if strings.ContainsAny(name, forbiddenNameChars) {
		return fmt.Errorf("rule name contains a double quote: %s", name)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("rule name contains control character %U", r)
		}
	}

	return nil
}

// ValidatePortNumber validates a port number
func ValidatePortNumber(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be 1-65535)", port)
	}
	return nil
}

// NormalizeProtocol maps an empty protocol to TCP and upper-cases the rest.
func NormalizeProtocol(proto string) string {
	proto = strings.TrimSpace(proto)
	if proto == "" {
		return "TCP"
	}
	return strings.ToUpper(proto)
}

// ValidateProtocol validates the transport protocol of a port rule.
// Only protocols that carry ports are accepted.
func ValidateProtocol(proto string) error {
	switch NormalizeProtocol(proto) {
	case "TCP", "UDP":
		return nil
	}
	return fmt.Errorf("invalid protocol: %s (must be one of: tcp, udp)", proto)
}

// ValidateProgramPath checks that a program rule points at an existing file.
func ValidateProgramPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("program path cannot be empty")
	}
	if strings.ContainsAny(path, forbiddenNameChars) {
		return fmt.Errorf("program path contains a double quote: %s", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("program not found: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("program path is a directory: %s", path)
	}
	return nil
}

// ValidatePolicyPath validates the destination of a policy export.
func ValidatePolicyPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if strings.ContainsAny(path, forbiddenNameChars) {
		return fmt.Errorf("path contains a double quote or null byte: %s", path)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("path contains control character %U", r)
		}
	}

	return nil
}

// ValidatePolicyFile validates the source of a policy import, which must exist.
func ValidatePolicyFile(path string) error {
	if err := ValidatePolicyPath(path); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("policy file not found: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("policy file is a directory: %s", path)
	}
	return nil
}

// IPExpressionKind identifies which form an IP expression took.
type IPExpressionKind int

const (
	IPKeyword IPExpressionKind = iota
	IPRange
	IPSubnet
	IPSingle
)

func (k IPExpressionKind) String() string {
	switch k {
	case IPKeyword:
		return "keyword"
	case IPRange:
		return "range"
	case IPSubnet:
		return "subnet"
	case IPSingle:
		return "address"
	}
	return "unknown"
}

// IPExpression is a parsed address match for remote or local IP rules.
type IPExpression struct {
	Kind    IPExpressionKind
	Keyword string
	Start   netip.Addr
	End     netip.Addr
	Prefix  netip.Prefix
}

// String renders the expression in the form both firewall tools accept.
func (e IPExpression) String() string {
	switch e.Kind {
	case IPKeyword:
		return e.Keyword
	case IPRange:
		return e.Start.String() + "-" + e.End.String()
	case IPSubnet:
		return e.Prefix.String()
	default:
		return e.Start.String()
	}
}

var errEmptyIP = errors.New("IP expression cannot be empty")

// ParseIPExpression parses a keyword, an A-B range, an A/n subnet or a single address.
// Keywords are matched case-insensitively and returned in lower case.
func ParseIPExpression(s string) (IPExpression, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return IPExpression{}, errEmptyIP
	}

	lower := strings.ToLower(s)
	for _, kw := range ipKeywords {
		if lower == kw {
			return IPExpression{Kind: IPKeyword, Keyword: kw}, nil
		}
	}

	if strings.Contains(s, "-") {
		parts := strings.Split(s, "-")
		if len(parts) != 2 {
			return IPExpression{}, fmt.Errorf("invalid IP range: %s", s)
		}
		start, err := parseAddr(parts[0])
		if err != nil {
			return IPExpression{}, fmt.Errorf("invalid IP range start: %w", err)
		}
		end, err := parseAddr(parts[1])
		if err != nil {
			return IPExpression{}, fmt.Errorf("invalid IP range end: %w", err)
		}
		if start.Is4() != end.Is4() {
			return IPExpression{}, fmt.Errorf("IP range mixes address families: %s", s)
		}
		if end.Less(start) {
			return IPExpression{}, fmt.Errorf("IP range end precedes start: %s", s)
		}
		return IPExpression{Kind: IPRange, Start: start, End: end}, nil
	}

	if strings.Contains(s, "/") {
		parts := strings.Split(s, "/")
		if len(parts) != 2 {
			return IPExpression{}, fmt.Errorf("invalid subnet: %s", s)
		}
		addr, err := parseAddr(parts[0])
		if err != nil {
			return IPExpression{}, fmt.Errorf("invalid subnet address: %w", err)
		}
		bits, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return IPExpression{}, fmt.Errorf("invalid subnet length: %s", parts[1])
		}
		if bits < 0 || bits > addr.BitLen() {
			return IPExpression{}, fmt.Errorf("subnet length %d out of range (0-%d)", bits, addr.BitLen())
		}
		return IPExpression{Kind: IPSubnet, Start: addr, Prefix: netip.PrefixFrom(addr, bits)}, nil
	}

	addr, err := parseAddr(s)
	if err != nil {
		return IPExpression{}, err
	}
	return IPExpression{Kind: IPSingle, Start: addr}, nil
}

// ValidateIPExpression reports whether s is a well-formed IP expression.
func ValidateIPExpression(s string) error {
	_, err := ParseIPExpression(s)
	return err
}

func parseAddr(s string) (netip.Addr, error) {
	s = strings.TrimSpace(s)
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid IP address: %s", s)
	}
	if addr.Zone() != "" {
		return netip.Addr{}, fmt.Errorf("IP address zones are not supported: %s", s)
	}
	return addr.Unmap(), nil
}
