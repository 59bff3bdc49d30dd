package brand

import (
	"path/filepath"
	"testing"
)

func TestGet(t *testing.T) {
	b := Get()
	if b.Name == "" {
		t.Error("Brand name should not be empty")
	}
	if Version == "" {
		t.Error("Global Version should be initialized (to dev default)")
	}
	if FirewallServiceName != "MpsSvc" {
		t.Errorf("FirewallServiceName = %q, want MpsSvc", FirewallServiceName)
	}
}

func TestGetDirectories(t *testing.T) {
	t.Setenv(ConfigEnvPrefix+"_PREFIX", "")
	t.Setenv(ConfigEnvPrefix+"_CONFIG_DIR", "")
	t.Setenv(ConfigEnvPrefix+"_REPORT_DIR", "")
	t.Setenv(ConfigEnvPrefix+"_CONFIG", "")

	if got := GetConfigDir(); got != DefaultConfigDir {
		t.Errorf("GetConfigDir() = %q, want %q", got, DefaultConfigDir)
	}
	if got := GetReportDir(); got != DefaultReportDir {
		t.Errorf("GetReportDir() = %q, want %q", got, DefaultReportDir)
	}

	t.Setenv(ConfigEnvPrefix+"_PREFIX", "/opt/palisade")
	if got := GetConfigDir(); got != "/opt/palisade" {
		t.Errorf("GetConfigDir() with prefix = %q", got)
	}
	if got := GetReportDir(); got != filepath.Join("/opt/palisade", "reports") {
		t.Errorf("GetReportDir() with prefix = %q", got)
	}
	if got := GetConfigPath(); got != filepath.Join("/opt/palisade", ConfigFileName) {
		t.Errorf("GetConfigPath() with prefix = %q", got)
	}

	t.Setenv(ConfigEnvPrefix+"_REPORT_DIR", "/tmp/reports")
	if got := GetReportDir(); got != "/tmp/reports" {
		t.Errorf("GetReportDir() override = %q", got)
	}

	t.Setenv(ConfigEnvPrefix+"_CONFIG", "/etc/custom.hcl")
	if got := GetConfigPath(); got != "/etc/custom.hcl" {
		t.Errorf("GetConfigPath() override = %q", got)
	}
}
