package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	checkCommand string
	checkCwd     string
	checkJSON    bool
)

var checkCmd = &cobra.Command{
	Use:   "check [-c COMMAND | -- ARGV...]",
	Short: "Classify a command without running it",
	Long: `Classify one command line the way the hook would and print the verdict.

The command is given with -c as a single string, or after -- as an argument
vector that is quoted back into a command line. Exits 2 when the command
would be blocked.

Examples:
  rm-guard check -c 'rm -rf ./build'
  rm-guard check --cwd ~/src/app -- rm -rf ../other
  rm-guard check --json -c 'find . -name "*.o" -delete'`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkCommand, "command", "c", "", "Command line to classify")
	checkCmd.Flags().StringVar(&checkCwd, "cwd", "", "Working directory (default: current directory)")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the verdict as JSON")
}

func runCheck(cmd *cobra.Command, args []string) error {
	command := checkCommand
	if command == "" {
		command = shellquote.Join(args...)
	} else if len(args) > 0 {
		return errors.New("give the command either with -c or after --, not both")
	}
	if strings.TrimSpace(command) == "" {
		return errors.New("no command given: use -c COMMAND or -- ARGV")
	}

	cwd := checkCwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		cwd = wd
	}
	workDir, err := canonicalWorkDir(expandHome(cwd))
	if err != nil {
		// A directory that does not exist yet is still a fine question to ask.
		workDir, err = filepath.Abs(expandHome(cwd))
		if err != nil {
			return fmt.Errorf("resolve --cwd: %w", err)
		}
	}

	g := newGuard(cfgFile)
	defer g.Close()

	v := g.classifier.Classify(command, workDir)
	NewLogger("check").Debug("%s %q in %s", v.Decision, command, workDir)

	out := cmd.OutOrStdout()
	if checkJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode verdict: %w", err)
		}
	} else {
		printVerdict(out, v, out == os.Stdout && isTerminal(os.Stdout))
	}

	if v.Blocked() {
		return errBlocked
	}
	return nil
}

var (
	styleAllow = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3FB950"))
	styleBlock = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F85149"))
)

func printVerdict(w io.Writer, v Verdict, colored bool) {
	label := v.Decision.String()
	if colored {
		if v.Blocked() {
			label = styleBlock.Render(label)
		} else {
			label = styleAllow.Render(label)
		}
	}
	fmt.Fprintln(w, label)
	if v.Blocked() {
		fmt.Fprintln(w, v.Message())
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
