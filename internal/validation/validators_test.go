package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateRuleName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Happy paths
		{"simple", "T1", false},
		{"with spaces", "Allow Web Server", false},
		{"unicode", "测试规则", false},
		{"single quote", "Bob's rule", false},
		{"max length", strings.Repeat("a", MaxRuleNameLength), false},

		// Sad paths
		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", strings.Repeat("a", MaxRuleNameLength+1), true},
		{"double quote", `evil" dir=out`, true},
		{"newline", "rule\nname", true},
		{"null byte", "rule\x00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRuleName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRuleName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePortNumber(t *testing.T) {
	tests := []struct {
		port    int
		wantErr bool
	}{
		{1, false},
		{80, false},
		{65535, false},
		{0, true},
		{-1, true},
		{65536, true},
	}

	for _, tt := range tests {
		err := ValidatePortNumber(tt.port)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePortNumber(%d) error = %v, wantErr %v", tt.port, err, tt.wantErr)
		}
	}
}

func TestValidateProtocol(t *testing.T) {
	for _, p := range []string{"", "tcp", "TCP", "udp", " Udp "} {
		if err := ValidateProtocol(p); err != nil {
			t.Errorf("ValidateProtocol(%q) unexpected error: %v", p, err)
		}
	}
	for _, p := range []string{"icmp", "any", "tcp;calc"} {
		if err := ValidateProtocol(p); err == nil {
			t.Errorf("ValidateProtocol(%q) expected error", p)
		}
	}
	if got := NormalizeProtocol(""); got != "TCP" {
		t.Errorf("NormalizeProtocol(\"\") = %q, want TCP", got)
	}
	if got := NormalizeProtocol("udp"); got != "UDP" {
		t.Errorf("NormalizeProtocol(udp) = %q, want UDP", got)
	}
}

func TestValidateIPExpression(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		wantKind IPExpressionKind
	}{
		// Happy paths
		{"keyword any", "any", false, IPKeyword},
		{"keyword mixed case", "LocalSubnet", false, IPKeyword},
		{"keyword dns", "DNS", false, IPKeyword},
		{"keyword dhcp", "dhcp", false, IPKeyword},
		{"keyword wins", "wins", false, IPKeyword},
		{"keyword gateway", "DefaultGateway", false, IPKeyword},
		{"subnet", "192.168.1.0/24", false, IPSubnet},
		{"subnet zero", "0.0.0.0/0", false, IPSubnet},
		{"subnet 32", "10.0.0.1/32", false, IPSubnet},
		{"range", "10.0.0.1-10.0.0.255", false, IPRange},
		{"range with spaces", "10.0.0.1 - 10.0.0.2", false, IPRange},
		{"single", "8.8.8.8", false, IPSingle},
		{"ipv6 single", "2001:db8::1", false, IPSingle},
		{"ipv6 subnet", "2001:db8::/32", false, IPSubnet},

		// Sad paths
		{"empty", "", true, 0},
		{"bad octet", "999.1.1.1", true, 0},
		{"subnet too long", "10.0.0.0/33", true, 0},
		{"negative subnet", "10.0.0.0/-1", true, 0},
		{"subnet not numeric", "10.0.0.0/abc", true, 0},
		{"double slash", "10.0.0.0/8/8", true, 0},
		{"garbage range", "a-b", true, 0},
		{"reversed range", "10.0.0.9-10.0.0.1", true, 0},
		{"mixed family range", "10.0.0.1-2001:db8::1", true, 0},
		{"three part range", "1.1.1.1-2.2.2.2-3.3.3.3", true, 0},
		{"hostname", "example.com", true, 0},
		{"list", "1.1.1.1,2.2.2.2", true, 0},
		{"injection", "1.1.1.1; Remove-NetFirewallRule", true, 0},
		{"zone", "fe80::1%eth0", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := ParseIPExpression(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIPExpression(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && expr.Kind != tt.wantKind {
				t.Errorf("ParseIPExpression(%q) kind = %v, want %v", tt.input, expr.Kind, tt.wantKind)
			}
			if (ValidateIPExpression(tt.input) != nil) != tt.wantErr {
				t.Errorf("ValidateIPExpression(%q) disagrees with ParseIPExpression", tt.input)
			}
		})
	}
}

func TestIPExpressionString(t *testing.T) {
	tests := map[string]string{
		"ANY":                   "any",
		"192.168.1.0/24":        "192.168.1.0/24",
		"10.0.0.1 - 10.0.0.255": "10.0.0.1-10.0.0.255",
		" 8.8.8.8 ":             "8.8.8.8",
	}
	for in, want := range tests {
		expr, err := ParseIPExpression(in)
		if err != nil {
			t.Fatalf("ParseIPExpression(%q): %v", in, err)
		}
		if got := expr.String(); got != want {
			t.Errorf("ParseIPExpression(%q).String() = %q, want %q", in, got, want)
		}
	}
}

func TestValidateProgramPath(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "app.exe")
	if err := os.WriteFile(exe, []byte("MZ"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ValidateProgramPath(exe); err != nil {
		t.Errorf("existing program rejected: %v", err)
	}
	if err := ValidateProgramPath(filepath.Join(dir, "missing.exe")); err == nil {
		t.Error("missing program accepted")
	}
	if err := ValidateProgramPath(dir); err == nil {
		t.Error("directory accepted as program")
	}
	if err := ValidateProgramPath(""); err == nil {
		t.Error("empty program path accepted")
	}
}

func TestValidatePolicyPaths(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "policy.wfw")

	if err := ValidatePolicyPath(file); err != nil {
		t.Errorf("ValidatePolicyPath(%q) error = %v", file, err)
	}
	if err := ValidatePolicyPath(""); err == nil {
		t.Error("empty export path accepted")
	}
	if err := ValidatePolicyPath(`C:\x" & calc`); err == nil {
		t.Error("quote in export path accepted")
	}

	if err := ValidatePolicyFile(file); err == nil {
		t.Error("missing import file accepted")
	}
	if err := os.WriteFile(file, []byte("policy"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ValidatePolicyFile(file); err != nil {
		t.Errorf("existing import file rejected: %v", err)
	}
	if err := ValidatePolicyFile(dir); err == nil {
		t.Error("directory accepted as import file")
	}
}
