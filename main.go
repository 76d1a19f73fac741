package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	cfgFile string
	verbose bool
)

// errBlocked makes Execute exit with the block status without printing.
var errBlocked = errors.New("blocked")

// rootCmd runs the hook when called without a subcommand, which is how
// Claude Code invokes it.
var rootCmd = &cobra.Command{
	Use:   "rm-guard",
	Short: "Claude Code hook that blocks rm outside the working directory",
	Long: `rm-guard is a PreToolUse hook for Claude Code's Bash tool.

It reads the hook event on stdin and blocks any command that could delete
files outside the session's working directory: rm, unlink, rmdir, shred and
find -delete, including when wrapped in sudo, env, timeout, bash -c, xargs
or find -exec. Targets it cannot resolve (variables, globs, substitutions)
are blocked by default.

Commands:
  hook      Evaluate a hook event from stdin (default)
  check     Classify a command from the command line
  settings  Print the settings.json snippet that installs the hook
  version   Show version information`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHookCommand()
	},
}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Evaluate a PreToolUse event from stdin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHookCommand()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rm-guard %s\n", version)
	},
}

func main() {
	Execute()
}

// Execute runs the root command and maps errors to exit codes.
func Execute() {
	err := rootCmd.Execute()
	switch {
	case err == nil:
	case errors.Is(err, errBlocked):
		os.Exit(exitBlock)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.config/rm-guard/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics to stderr")

	rootCmd.AddCommand(hookCmd, checkCmd, settingsCmd, versionCmd)
}

func runHookCommand() error {
	g := newGuard(cfgFile)
	defer g.Close()

	if code := runHook(os.Stdin, os.Stdout, os.Stderr, g); code == exitBlock {
		return errBlocked
	}
	return nil
}

// guard bundles what one invocation needs: config, classifier and the
// diagnostic log file.
type guard struct {
	cfg        *Config
	classifier *Classifier
	logFile    *os.File
}

// newGuard loads configuration and builds the classifier. It never fails:
// a broken config falls back to the parts that load, and the problem is
// logged.
func newGuard(path string) *guard {
	cfg, cfgErr := LoadConfig(path)
	g := &guard{cfg: cfg}

	level, err := ParseLevel(cfg.Log.Level)
	if err != nil {
		level = LevelInfo
	}
	SetLogLevel(level)
	if verbose {
		SetLogLevel(min(level, LevelDebug))
		SetLogOutput(os.Stderr, isTerminal(os.Stderr))
	} else if dir := g.logDir(); dir != "" {
		if os.MkdirAll(dir, 0o755) == nil {
			if f, err := os.OpenFile(filepath.Join(dir, "rm-guard.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
				g.logFile = f
				SetLogOutput(f, false)
			}
		}
	}

	log := NewLogger("config")
	if cfgErr != nil {
		log.Warn("%v", cfgErr)
	}

	g.classifier, err = New(cfg.ClassifierOptions()...)
	if err != nil {
		log.Warn("%v", err)
		g.classifier = fallbackClassifier(cfg)
	}
	return g
}

// fallbackClassifier keeps every protected pattern that compiles.
func fallbackClassifier(cfg *Config) *Classifier {
	opts := []Option{WithExtraDestructive(cfg.Classifier.ExtraDestructive...)}
	for _, p := range cfg.Classifier.Protected {
		if _, err := New(WithProtected(p)); err == nil {
			opts = append(opts, WithProtected(p))
		}
	}
	c, err := New(opts...)
	if err != nil {
		c, _ = New()
	}
	return c
}

// logDir is where log files go, "" when logging is off.
func (g *guard) logDir() string {
	if !g.cfg.LogEnabled() {
		return ""
	}
	return strings.TrimSpace(g.cfg.Log.Dir)
}

func (g *guard) Close() {
	if g.logFile != nil {
		SetLogOutput(nil, false)
		g.logFile.Close()
		g.logFile = nil
	}
}
