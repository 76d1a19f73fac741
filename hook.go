package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	exitAllow = 0
	exitBlock = 2 // Claude Code treats exit 2 as "block, show stderr to the model"

	hookEventName = "PreToolUse"
)

// HookInput matches Claude Code's PreToolUse hook input
type HookInput struct {
	SessionID     string          `json:"session_id"`
	HookEventName string          `json:"hook_event_name,omitempty"`
	ToolName      string          `json:"tool_name"`
	ToolInput     json.RawMessage `json:"tool_input"`
	WorkingDir    string          `json:"cwd"`
}

// HookOutput is the JSON form of a PreToolUse decision
type HookOutput struct {
	HookSpecificOutput *HookSpecificOutput `json:"hookSpecificOutput,omitempty"`
}

type HookSpecificOutput struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision"` // "allow", "deny" or "ask"
	PermissionDecisionReason string `json:"permissionDecisionReason,omitempty"`
}

// evaluatedTools contains the tools whose input is a shell command.
var evaluatedTools = map[string]bool{
	"Bash": true,
}

func shouldEvaluate(toolName string) bool {
	return evaluatedTools[toolName]
}

func readHookInput(r io.Reader) (*HookInput, error) {
	input, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	var hookInput HookInput
	if err := json.Unmarshal(input, &hookInput); err != nil {
		return nil, fmt.Errorf("invalid JSON input: %w", err)
	}
	return &hookInput, nil
}

// bashCommand extracts tool_input.command. A missing command is "".
func bashCommand(toolInput json.RawMessage) (string, error) {
	if len(toolInput) == 0 || string(toolInput) == "null" {
		return "", nil
	}
	var input struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(toolInput, &input); err != nil {
		return "", fmt.Errorf("invalid tool_input: %w", err)
	}
	return input.Command, nil
}

var errWorkDir = errors.New("invalid or missing working directory")

// canonicalWorkDir resolves symlinks in the hook's cwd so that lexical
// containment checks compare like with like.
func canonicalWorkDir(cwd string) (string, error) {
	if cwd == "" {
		return "", errWorkDir
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errWorkDir, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", errWorkDir, cwd)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errWorkDir, err)
	}
	return resolved, nil
}

// runHook is the hook entry point. It returns the process exit code.
func runHook(stdin io.Reader, stdout, stderr io.Writer, g *guard) int {
	log := NewLogger("hook")

	hookInput, err := readHookInput(stdin)
	if err != nil {
		log.Error("%v", err)
		logDecision(g.logDir(), g.cfg.Log.MaxInput, "(error)", "", "", "BLOCK", "hook", err.Error())
		return g.block(stdout, stderr, "ERROR: "+capitalize(err.Error()))
	}

	if !shouldEvaluate(hookInput.ToolName) {
		log.Trace("skip tool %s", hookInput.ToolName)
		return exitAllow
	}

	command, err := bashCommand(hookInput.ToolInput)
	if err != nil {
		log.Error("%v", err)
		logDecision(g.logDir(), g.cfg.Log.MaxInput, hookInput.ToolName, string(hookInput.ToolInput), hookInput.WorkingDir, "BLOCK", "hook", err.Error())
		return g.block(stdout, stderr, "ERROR: "+capitalize(err.Error()))
	}
	if strings.TrimSpace(command) == "" {
		return exitAllow
	}

	workDir, err := canonicalWorkDir(hookInput.WorkingDir)
	if err != nil {
		log.Warn("%v", err)
		v := Verdict{
			Decision:   DecisionBlock,
			Reason:     ReasonUnresolvable,
			Detail:     UnresolvedWorkDir,
			WorkingDir: hookInput.WorkingDir,
			Input:      command,
		}
		logVerdict(g.cfg, hookInput.ToolName, v)
		return g.block(stdout, stderr, "ERROR: Invalid or missing working directory: "+hookInput.WorkingDir)
	}

	v := g.classifier.Classify(command, workDir)
	logVerdict(g.cfg, hookInput.ToolName, v)
	if !v.Blocked() {
		log.Debug("allow %q in %s", command, workDir)
		return exitAllow
	}
	log.Info("block %q: %s", command, v.Reason)
	return g.block(stdout, stderr, v.Message())
}

// block reports a block in the configured output mode.
func (g *guard) block(stdout, stderr io.Writer, message string) int {
	if g.cfg.Hook.Output == OutputJSON {
		output := HookOutput{
			HookSpecificOutput: &HookSpecificOutput{
				HookEventName:            hookEventName,
				PermissionDecision:       "deny",
				PermissionDecisionReason: message,
			},
		}
		if err := json.NewEncoder(stdout).Encode(output); err == nil {
			return exitAllow
		}
	}
	fmt.Fprintln(stderr, message)
	return exitBlock
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
