package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"grimm.is/palisade/internal/brand"
)

// Getenv looks up an environment variable.
type Getenv func(string) string

// Load reads the configuration.
//
// An explicit path must exist. Without one the file named by PALISADE_CONFIG
// or the default location is used when present, and defaults otherwise.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = brand.GetConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		cfg := Default()
		cfg.ApplyEnv(os.Getenv)
		return cfg, cfg.Validate()
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := LoadBytes(path, data, os.Environ())
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, cfg.Validate()
}

// LoadBytes decodes HCL source. environ feeds the env object.
func LoadBytes(filename string, data []byte, environ []string) (*Config, error) {
	var cfg Config
	if err := hclsimple.Decode(filename, data, EvalContext(environ), &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// EvalContext exposes environment variables to expressions as env.NAME.
func EvalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}

// ApplyEnv applies the PALISADE_BACKEND and PALISADE_LOCALE overrides.
func (c *Config) ApplyEnv(getenv Getenv) {
	if v := getenv(brand.ConfigEnvPrefix + "_BACKEND"); v != "" {
		c.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := getenv(brand.ConfigEnvPrefix + "_LOCALE"); v != "" {
		c.Locale = v
	}
}

// Render writes the configuration back out as HCL.
func (c *Config) Render() []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	body.SetAttributeValue("backend", cty.StringVal(c.Backend))
	if c.Locale != "" {
		body.SetAttributeValue("locale", cty.StringVal(c.Locale))
	}
	body.SetAttributeValue("encoding", cty.StringVal(c.Encoding))
	body.SetAttributeValue("command_timeout", cty.StringVal(c.CommandTimeout))
	body.SetAttributeValue("netsh_path", cty.StringVal(c.NetshPath))
	body.SetAttributeValue("powershell_path", cty.StringVal(c.PowerShellPath))

	if c.Log != nil {
		body.AppendNewline()
		log := body.AppendNewBlock("log", nil).Body()
		log.SetAttributeValue("level", cty.StringVal(c.Log.Level))
		log.SetAttributeValue("json", cty.BoolVal(c.Log.JSON))
	}

	for _, p := range c.Phrases {
		body.AppendNewline()
		pb := body.AppendNewBlock("phrases", []string{p.Backend}).Body()
		pb.SetAttributeValue("locale", cty.StringVal(p.Locale))
		if len(p.NoMatch) > 0 {
			vals := make([]cty.Value, len(p.NoMatch))
			for i, s := range p.NoMatch {
				vals[i] = cty.StringVal(s)
			}
			pb.SetAttributeValue("no_match", cty.ListVal(vals))
		}
		if p.RuleNameLabel != "" {
			pb.SetAttributeValue("rule_name_label", cty.StringVal(p.RuleNameLabel))
		}
	}

	if c.Report != nil {
		body.AppendNewline()
		rb := body.AppendNewBlock("report", nil).Body()
		if c.Report.Dir != "" {
			rb.SetAttributeValue("dir", cty.StringVal(c.Report.Dir))
		}
		rb.SetAttributeValue("format", cty.StringVal(c.Report.Format))
		rb.SetAttributeValue("rules", cty.NumberIntVal(int64(c.Report.Rules)))
	}

	return f.Bytes()
}

// SaveTo writes the rendered configuration, keeping a .bak of any file it
// replaces.
func (c *Config) SaveTo(path string) error {
	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, path+".bak"); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, c.Render(), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
