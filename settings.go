package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
)

// HookEntry represents a single hook command (e.g., {"type": "command", "command": "..."}).
type HookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// HookGroup represents a hook group with optional matcher and a hooks array.
type HookGroup struct {
	Matcher string      `json:"matcher,omitempty"`
	Hooks   []HookEntry `json:"hooks"`
}

// hookSettings is the settings.json fragment that installs the guard.
type hookSettings struct {
	Hooks map[string][]HookGroup `json:"hooks"`
}

var settingsBinary string

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Print the settings.json snippet that installs the hook",
	Long: `Print the hooks section to merge into ~/.claude/settings.json
(or a project's .claude/settings.json). The command defaults to this
executable's absolute path.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		binary := settingsBinary
		if binary == "" {
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("locate executable: %w", err)
			}
			binary = exe
		}

		data, err := json.MarshalIndent(newHookSettings(binary), "", "  ")
		if err != nil {
			return fmt.Errorf("encode settings: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	settingsCmd.Flags().StringVar(&settingsBinary, "binary", "", "Path of the rm-guard binary to reference")
}

func newHookSettings(binary string) hookSettings {
	return hookSettings{
		Hooks: map[string][]HookGroup{
			hookEventName: {{
				Matcher: "Bash",
				Hooks: []HookEntry{{
					Type:    "command",
					Command: shellquote.Join(binary, "hook"),
					Timeout: 10,
				}},
			}},
		},
	}
}
