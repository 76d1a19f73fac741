package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix = "RMGUARD"

	OutputExitCode = "exit-code"
	OutputJSON     = "json"

	defaultLogLevel = "info"
	defaultMaxInput = 200
)

// Config holds all rm-guard configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" json:"log"`
	Classifier ClassifierConfig `yaml:"classifier" json:"classifier"`
	Hook       HookConfig       `yaml:"hook" json:"hook"`
}

// LogConfig controls the decision log and the diagnostic logger.
type LogConfig struct {
	// Enabled turns the decision log on. Nil means unset. Default: true
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// Dir holds decisions.log and rm-guard.log. Default: ~/.config/rm-guard
	Dir string `yaml:"dir" json:"dir"`

	// Level is the diagnostic logger threshold (trace, debug, info, warn, error).
	Level string `yaml:"level" json:"level"`

	// MaxInput truncates logged commands (0 = default of 200).
	MaxInput int `yaml:"max_input" json:"max_input"`
}

// ClassifierConfig tightens the classifier.
type ClassifierConfig struct {
	// ExtraDestructive names commands handled like rm.
	ExtraDestructive []string `yaml:"extra_destructive" json:"extra_destructive"`

	// Protected lists glob patterns that block even inside the working directory.
	Protected []string `yaml:"protected" json:"protected"`
}

// HookConfig controls how the hook reports a verdict.
type HookConfig struct {
	// Output is "exit-code" (exit 2 + stderr) or "json" (permissionDecision deny).
	Output string `yaml:"output" json:"output"`
}

// envOverrides is filled by envconfig from RMGUARD_* variables.
type envOverrides struct {
	Config           string   `envconfig:"CONFIG"`
	LogEnabled       *bool    `envconfig:"LOG_ENABLED"`
	LogDir           string   `envconfig:"LOG_DIR"`
	LogLevel         string   `envconfig:"LOG_LEVEL"`
	HookOutput       string   `envconfig:"HOOK_OUTPUT"`
	ExtraDestructive []string `envconfig:"EXTRA_DESTRUCTIVE"`
	Protected        []string `envconfig:"PROTECTED"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	enabled := true
	return &Config{
		Log: LogConfig{
			Enabled:  &enabled,
			Dir:      configDir(),
			Level:    defaultLogLevel,
			MaxInput: defaultMaxInput,
		},
		Hook: HookConfig{
			Output: OutputExitCode,
		},
	}
}

// configDir returns ~/.config/rm-guard, or "" when there is no home.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "rm-guard")
}

// LoadConfig loads configuration from (highest to lowest priority):
// 1. Environment variables (RMGUARD_*)
// 2. Config file (--config, RMGUARD_CONFIG, or ~/.config/rm-guard/config.yaml)
// 3. Defaults
//
// Lists are unioned across layers, so no layer can remove a destructive
// command or protected pattern added by another. An explicit path
// that does not exist is an error; a missing default file is not. On error
// the returned config is still usable: defaults plus whatever loaded.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return cfg, fmt.Errorf("read %s_* environment: %w", envPrefix, err)
	}

	if path == "" {
		path = env.Config
	}
	explicit := path != ""
	if !explicit && configDir() != "" {
		path = filepath.Join(configDir(), "config.yaml")
	}

	var loadErr error
	if path != "" {
		fileCfg, err := loadConfigFile(path)
		switch {
		case err == nil:
			cfg = mergeConfig(cfg, fileCfg)
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			loadErr = fmt.Errorf("load config %s: %w", path, err)
		}
	}

	cfg = applyEnv(cfg, &env)
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Join(loadErr, err)
	}
	return cfg, loadErr
}

// loadConfigFile loads config from a YAML file.
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config, env *envOverrides) *Config {
	if env.LogEnabled != nil {
		v := *env.LogEnabled
		cfg.Log.Enabled = &v
	}
	mergeStr(&cfg.Log.Dir, expandHome(env.LogDir))
	mergeStr(&cfg.Log.Level, env.LogLevel)
	mergeStr(&cfg.Hook.Output, env.HookOutput)
	cfg.Classifier.ExtraDestructive = mergeList(cfg.Classifier.ExtraDestructive, env.ExtraDestructive)
	cfg.Classifier.Protected = mergeList(cfg.Classifier.Protected, env.Protected)
	return cfg
}

// mergeStr overwrites dst with src when src is non-empty.
func mergeStr(dst *string, src string) {
	if src = strings.TrimSpace(src); src != "" {
		*dst = src
	}
}

// mergeList appends the entries of src missing from dst.
func mergeList(dst, src []string) []string {
	for _, s := range src {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}

// mergeConfig merges src into dst, with src values taking precedence.
func mergeConfig(dst, src *Config) *Config {
	if src.Log.Enabled != nil {
		v := *src.Log.Enabled
		dst.Log.Enabled = &v
	}
	mergeStr(&dst.Log.Dir, expandHome(src.Log.Dir))
	mergeStr(&dst.Log.Level, src.Log.Level)
	if src.Log.MaxInput > 0 {
		dst.Log.MaxInput = src.Log.MaxInput
	}
	mergeStr(&dst.Hook.Output, src.Hook.Output)
	dst.Classifier.ExtraDestructive = mergeList(dst.Classifier.ExtraDestructive, src.Classifier.ExtraDestructive)
	dst.Classifier.Protected = mergeList(dst.Classifier.Protected, src.Classifier.Protected)
	return dst
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}

// LogEnabled reports whether decisions are written to decisions.log.
func (c *Config) LogEnabled() bool {
	return c.Log.Enabled == nil || *c.Log.Enabled
}

// Validate checks values that would otherwise fail later.
func (c *Config) Validate() error {
	var errs []error
	switch c.Hook.Output {
	case OutputExitCode, OutputJSON:
	default:
		errs = append(errs, fmt.Errorf("hook.output: unknown mode %q (valid: %s, %s)", c.Hook.Output, OutputExitCode, OutputJSON))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	for _, name := range c.Classifier.ExtraDestructive {
		if strings.ContainsAny(name, " \t\n/") {
			errs = append(errs, fmt.Errorf("classifier.extra_destructive: %q is not a command name", name))
		}
	}
	if _, err := New(WithProtected(c.Classifier.Protected...)); err != nil {
		errs = append(errs, fmt.Errorf("classifier.protected: %w", err))
	}
	return errors.Join(errs...)
}

// ClassifierOptions turns the classifier section into Classifier options.
func (c *Config) ClassifierOptions() []Option {
	return []Option{
		WithExtraDestructive(c.Classifier.ExtraDestructive...),
		WithProtected(c.Classifier.Protected...),
	}
}
