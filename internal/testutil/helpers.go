package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// RequireLiveFirewall skips the test unless it runs on Windows with
// PALISADE_LIVE_TEST set. Live tests create and delete real firewall rules
// and need an elevated shell.
func RequireLiveFirewall(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "windows" {
		t.Skip("Skipping test: requires Windows")
	}
	if os.Getenv("PALISADE_LIVE_TEST") == "" {
		t.Skip("Skipping test: requires PALISADE_LIVE_TEST environment")
	}
}

// TempProgram creates an empty file that program rules can point at.
func TempProgram(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.exe")
	if err := os.WriteFile(path, []byte("MZ"), 0644); err != nil {
		t.Fatalf("create temp program: %v", err)
	}
	return path
}
