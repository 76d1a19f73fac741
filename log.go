package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// logDecision appends one line to decisions.log under logDir. It never
// fails the caller: a guard that cannot log still guards.
func logDecision(logDir string, maxInput int, toolName, command, workDir, decision, source, reason string) {
	if logDir == "" {
		return
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return
	}

	logFile := filepath.Join(logDir, "decisions.log")
	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	if maxInput <= 0 {
		maxInput = defaultMaxInput
	}
	command = truncate(oneLine(command), maxInput)

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	logEntry := fmt.Sprintf("[%s] %s | tool=%s | dir=%s | source=%s | input=%s | reason=%s\n",
		timestamp, decision, toolName, workDir, source, command, oneLine(reason))
	f.WriteString(logEntry)
}

// logVerdict records a classifier verdict.
func logVerdict(cfg *Config, toolName string, v Verdict) {
	if !cfg.LogEnabled() {
		return
	}
	reason := v.Reason.String()
	if v.Blocked() {
		reason = firstLine(v.Message())
		if v.Path != "" {
			reason += " (" + v.Path + ")"
		}
	}
	logDecision(cfg.Log.Dir, cfg.Log.MaxInput, toolName, v.Input, v.WorkingDir, v.Decision.String(), "classifier", reason)
}

func oneLine(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r", `\r`), "\n", `\n`)
}

// truncate cuts s to at most limit bytes on a rune boundary.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
