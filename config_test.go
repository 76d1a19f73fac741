package main

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// isolate points HOME at an empty directory and clears RMGUARD_* so the
// developer's own config cannot leak into a test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, envPrefix+"_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	return home
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	home := isolate(t)
	cfg := DefaultConfig()

	if !cfg.LogEnabled() {
		t.Error("Expected log enabled by default")
	}
	if want := filepath.Join(home, ".config", "rm-guard"); cfg.Log.Dir != want {
		t.Errorf("Expected log dir %q, got %q", want, cfg.Log.Dir)
	}
	if cfg.Log.Level != "info" || cfg.Log.MaxInput != 200 {
		t.Errorf("Unexpected log defaults: %+v", cfg.Log)
	}
	if cfg.Hook.Output != OutputExitCode {
		t.Errorf("Expected output %q, got %q", OutputExitCode, cfg.Hook.Output)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoadConfigMissingDefaultFile(t *testing.T) {
	isolate(t)
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("Expected no error without a config file, got %v", err)
	}
	if cfg.Hook.Output != OutputExitCode {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	isolate(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Expected error for a missing explicit config file")
	}
	if cfg == nil || cfg.Hook.Output != OutputExitCode {
		t.Errorf("Expected usable defaults alongside the error, got %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
log:
  enabled: false
  dir: /var/log/rm-guard
  level: debug
  max_input: 50
classifier:
  extra_destructive: [trash, srm]
  protected: ["**/.git/**"]
hook:
  output: json
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogEnabled() {
		t.Error("Expected log disabled")
	}
	if cfg.Log.Dir != "/var/log/rm-guard" || cfg.Log.Level != "debug" || cfg.Log.MaxInput != 50 {
		t.Errorf("Unexpected log config: %+v", cfg.Log)
	}
	if !slices.Equal(cfg.Classifier.ExtraDestructive, []string{"trash", "srm"}) {
		t.Errorf("Unexpected extra_destructive: %v", cfg.Classifier.ExtraDestructive)
	}
	if !slices.Equal(cfg.Classifier.Protected, []string{"**/.git/**"}) {
		t.Errorf("Unexpected protected: %v", cfg.Classifier.Protected)
	}
	if cfg.Hook.Output != OutputJSON {
		t.Errorf("Expected json output, got %q", cfg.Hook.Output)
	}
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "hook:\n  output: json\n")
	t.Setenv("RMGUARD_CONFIG", path)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Hook.Output != OutputJSON {
		t.Errorf("Expected RMGUARD_CONFIG file to load, got output %q", cfg.Hook.Output)
	}
}

func TestLoadConfigDefaultLocation(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".config", "rm-guard")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Expected level from default config file, got %q", cfg.Log.Level)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, `
log:
  level: debug
classifier:
  extra_destructive: [trash]
  protected: [".env"]
`)
	t.Setenv("RMGUARD_LOG_ENABLED", "false")
	t.Setenv("RMGUARD_LOG_DIR", "~/logs")
	t.Setenv("RMGUARD_LOG_LEVEL", "error")
	t.Setenv("RMGUARD_HOOK_OUTPUT", "json")
	t.Setenv("RMGUARD_EXTRA_DESTRUCTIVE", "srm,trash")
	t.Setenv("RMGUARD_PROTECTED", "**/.git")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogEnabled() {
		t.Error("Expected RMGUARD_LOG_ENABLED=false to disable logging")
	}
	if want := filepath.Join(home, "logs"); cfg.Log.Dir != want {
		t.Errorf("Expected log dir %q, got %q", want, cfg.Log.Dir)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Expected env level to win, got %q", cfg.Log.Level)
	}
	if cfg.Hook.Output != OutputJSON {
		t.Errorf("Expected json output, got %q", cfg.Hook.Output)
	}
	// lists are unioned, never replaced
	if !slices.Equal(cfg.Classifier.ExtraDestructive, []string{"trash", "srm"}) {
		t.Errorf("Unexpected extra_destructive: %v", cfg.Classifier.ExtraDestructive)
	}
	if !slices.Equal(cfg.Classifier.Protected, []string{".env", "**/.git"}) {
		t.Errorf("Unexpected protected: %v", cfg.Classifier.Protected)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"bad yaml", "log: [", "parse yaml"},
		{"bad output", "hook:\n  output: popup\n", "hook.output"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad command", "classifier:\n  extra_destructive: [\"a b\"]\n", "extra_destructive"},
		{"bad pattern", "classifier:\n  protected: [\"[x\"]\n", "classifier.protected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			cfg, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("Expected error containing %q, got %v", tt.errText, err)
			}
			if cfg == nil {
				t.Error("Expected a usable config alongside the error")
			}
		})
	}
}

func TestClassifierOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Classifier.ExtraDestructive = []string{"trash"}
	cfg.Classifier.Protected = []string{"**/.env"}

	c, err := New(cfg.ClassifierOptions()...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if v := c.Classify("trash /etc", "/w"); v.Reason != ReasonOutside {
		t.Errorf("Expected extra destructive command to be checked, got %s", v.Reason)
	}
	if v := c.Classify("rm .env", "/w"); v.Reason != ReasonProtected {
		t.Errorf("Expected protected pattern to apply, got %s", v.Reason)
	}
}

func TestMergeList(t *testing.T) {
	got := mergeList([]string{"a", "b"}, []string{"b", " c ", "", "a"})
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("mergeList() = %v", got)
	}
}
