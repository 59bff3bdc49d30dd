// Package brand provides centralized branding constants for Palisade.
//
// The brand identity is loaded from brand.json at compile time via go:embed.
// This allows other tools (scripts, docs generators) to read the same file.
package brand

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
)

//go:embed brand.json
var brandJSON []byte

// Brand holds all branding information
type Brand struct {
	Name                string `json:"name"`
	LowerName           string `json:"lowerName"`
	Vendor              string `json:"vendor"`
	Website             string `json:"website"`
	Repository          string `json:"repository"`
	Description         string `json:"description"`
	Tagline             string `json:"tagline"`
	ConfigEnvPrefix     string `json:"configEnvPrefix"`
	DefaultConfigDir    string `json:"defaultConfigDir"`
	DefaultReportDir    string `json:"defaultReportDir"`
	DefaultLogDir       string `json:"defaultLogDir"`
	BinaryName          string `json:"binaryName"`
	FirewallServiceName string `json:"firewallServiceName"`
	ConfigFileName      string `json:"configFileName"`
	Copyright           string `json:"copyright"`
	License             string `json:"license"`
}

var b Brand

func init() {
	if err := json.Unmarshal(brandJSON, &b); err != nil {
		panic("failed to parse brand.json: " + err.Error())
	}

	Name = b.Name
	LowerName = b.LowerName
	Vendor = b.Vendor
	Website = b.Website
	Repository = b.Repository
	Description = b.Description
	Tagline = b.Tagline
	ConfigEnvPrefix = b.ConfigEnvPrefix
	DefaultConfigDir = b.DefaultConfigDir
	DefaultReportDir = b.DefaultReportDir
	DefaultLogDir = b.DefaultLogDir
	BinaryName = b.BinaryName
	FirewallServiceName = b.FirewallServiceName
	ConfigFileName = b.ConfigFileName
	Copyright = b.Copyright
	License = b.License
}

// Exported variables for convenience
var (
	Name                string
	LowerName           string
	Vendor              string
	Website             string
	Repository          string
	Description         string
	Tagline             string
	ConfigEnvPrefix     string
	DefaultConfigDir    string
	DefaultReportDir    string
	DefaultLogDir       string
	BinaryName          string
	FirewallServiceName string
	ConfigFileName      string
	Copyright           string
	License             string

	// Version is set at build time via -ldflags
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Get returns the full Brand struct
func Get() Brand {
	return b
}

// GetConfigDir returns the config directory, checking env vars first.
// Priority: PALISADE_CONFIG_DIR > PALISADE_PREFIX > DefaultConfigDir
func GetConfigDir() string {
	if dir := os.Getenv(ConfigEnvPrefix + "_CONFIG_DIR"); dir != "" {
		return dir
	}
	if prefix := os.Getenv(ConfigEnvPrefix + "_PREFIX"); prefix != "" {
		return prefix
	}
	return DefaultConfigDir
}

// GetReportDir returns the directory comparison reports are written to.
// Priority: PALISADE_REPORT_DIR > PALISADE_PREFIX/reports > DefaultReportDir
func GetReportDir() string {
	if dir := os.Getenv(ConfigEnvPrefix + "_REPORT_DIR"); dir != "" {
		return dir
	}
	if prefix := os.Getenv(ConfigEnvPrefix + "_PREFIX"); prefix != "" {
		return filepath.Join(prefix, "reports")
	}
	return DefaultReportDir
}

// GetConfigPath returns the default config file location.
func GetConfigPath() string {
	if p := os.Getenv(ConfigEnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(GetConfigDir(), ConfigFileName)
}
