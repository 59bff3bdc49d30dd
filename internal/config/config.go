package config

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"grimm.is/palisade/internal/executor"
	"grimm.is/palisade/internal/logging"
)

// Backend choices.
const (
	BackendAuto       = "auto"
	BackendNetsh      = "netsh"
	BackendPowerShell = "powershell"
)

// Report formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// Defaults.
const (
	DefaultNetshPath      = "netsh.exe"
	DefaultPowerShellPath = "powershell.exe"
	DefaultReportRules    = 10
)

// Config is the decoded configuration file.
type Config struct {
	Backend        string         `hcl:"backend,optional"`
	Locale         string         `hcl:"locale,optional"`
	Encoding       string         `hcl:"encoding,optional"`
	CommandTimeout string         `hcl:"command_timeout,optional"`
	NetshPath      string         `hcl:"netsh_path,optional"`
	PowerShellPath string         `hcl:"powershell_path,optional"`
	Log            *LogConfig     `hcl:"log,block"`
	Phrases        []PhraseConfig `hcl:"phrases,block"`
	Report         *ReportConfig  `hcl:"report,block"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string `hcl:"level,optional"`
	JSON  bool   `hcl:"json,optional"`
}

// PhraseConfig adds the "no rules match" wording and rule-name label one
// backend prints in a locale that is not built in.
type PhraseConfig struct {
	Backend       string   `hcl:"backend,label"`
	Locale        string   `hcl:"locale"`
	NoMatch       []string `hcl:"no_match,optional"`
	RuleNameLabel string   `hcl:"rule_name_label,optional"`
}

// ReportConfig configures the comparison harness report.
type ReportConfig struct {
	Dir    string `hcl:"dir,optional"`
	Format string `hcl:"format,optional"`
	Rules  int    `hcl:"rules,optional"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendAuto
	}
	if c.Encoding == "" {
		c.Encoding = executor.DefaultEncoding
	}
	if c.CommandTimeout == "" {
		c.CommandTimeout = executor.DefaultTimeout.String()
	}
	if c.NetshPath == "" {
		c.NetshPath = DefaultNetshPath
	}
	if c.PowerShellPath == "" {
		c.PowerShellPath = DefaultPowerShellPath
	}
	if c.Log == nil {
		c.Log = &LogConfig{}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Report == nil {
		c.Report = &ReportConfig{}
	}
	if c.Report.Format == "" {
		c.Report.Format = FormatText
	}
	if c.Report.Rules == 0 {
		c.Report.Rules = DefaultReportRules
	}
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.Report.Format = strings.ToLower(c.Report.Format)
}

// Timeout returns the parsed command timeout. Call Validate first.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.CommandTimeout)
	if err != nil || d <= 0 {
		return executor.DefaultTimeout
	}
	return d
}

// Validate checks every key and returns the first problem found.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendNetsh, BackendPowerShell:
	default:
		return fmt.Errorf("backend must be auto, netsh or powershell, got %q", c.Backend)
	}

	if c.Locale != "" {
		if _, err := language.Parse(strings.ReplaceAll(c.Locale, "_", "-")); err != nil {
			return fmt.Errorf("invalid locale %q: %w", c.Locale, err)
		}
	}

	if _, err := executor.LookupEncoding(c.Encoding); err != nil {
		return err
	}

	d, err := time.ParseDuration(c.CommandTimeout)
	if err != nil {
		return fmt.Errorf("invalid command_timeout %q: %w", c.CommandTimeout, err)
	}
	if d <= 0 {
		return fmt.Errorf("command_timeout must be positive, got %s", d)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	for _, p := range c.Phrases {
		if p.Backend != BackendNetsh && p.Backend != BackendPowerShell {
			return fmt.Errorf("phrases block label must be netsh or powershell, got %q", p.Backend)
		}
		if _, err := language.Parse(p.Locale); err != nil {
			return fmt.Errorf("phrases %q: invalid locale %q: %w", p.Backend, p.Locale, err)
		}
		if len(p.NoMatch) == 0 && p.RuleNameLabel == "" {
			return fmt.Errorf("phrases %q %s: needs no_match or rule_name_label", p.Backend, p.Locale)
		}
	}

	switch c.Report.Format {
	case FormatText, FormatYAML:
	default:
		return fmt.Errorf("report format must be text or yaml, got %q", c.Report.Format)
	}
	if c.Report.Rules < 1 {
		return fmt.Errorf("report rules must be at least 1, got %d", c.Report.Rules)
	}
	return nil
}
