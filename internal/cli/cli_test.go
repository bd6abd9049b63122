package cli

import (
	"os"
	"path/filepath"
	"testing"
)

// useConfig points --config at a fresh path in a temp dir and isolates the
// environment lookups.
func useConfig(t *testing.T) string {
	t.Helper()
	t.Setenv("SYSMON_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "sysmon.yaml")
	old := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = old })
	return path
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
