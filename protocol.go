package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Decision is the outcome of classifying one command line.
type Decision int

const (
	DecisionAllow Decision = iota // Every destructive target verified inside the working directory
	DecisionBlock                 // Anything else
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "ALLOW"
	default:
		return "BLOCK"
	}
}

// BlockReason says which policy rule produced a Block.
type BlockReason int

const (
	ReasonNone BlockReason = iota
	ReasonUnresolvable
	ReasonOutside
	ReasonProtected
)

func (r BlockReason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonUnresolvable:
		return "unresolvable target, blocked by default"
	case ReasonOutside:
		return "target outside working directory"
	case ReasonProtected:
		return "target is a protected path"
	default:
		return "blocked"
	}
}

// UnresolvedReason tags a target that could not be reduced to a literal path.
// The empty value means the target resolved.
type UnresolvedReason string

const (
	UnresolvedVariable     UnresolvedReason = "variable"
	UnresolvedGlob         UnresolvedReason = "glob"
	UnresolvedSubstitution UnresolvedReason = "substitution"
	UnresolvedDynamic      UnresolvedReason = "dynamic"   // xargs, find -exec, parallel: targets come from input
	UnresolvedMissing      UnresolvedReason = "missing"   // destructive command with no operands
	UnresolvedMalformed    UnresolvedReason = "malformed" // unterminated quote
	UnresolvedDepth        UnresolvedReason = "depth"     // wrapper nesting ceiling reached
	UnresolvedChdir        UnresolvedReason = "chdir"     // a directory change could not be followed
	UnresolvedWorkDir      UnresolvedReason = "workdir"   // working directory is not an absolute path
)

var unresolvedText = map[UnresolvedReason]string{
	UnresolvedVariable:     "variable reference",
	UnresolvedGlob:         "glob pattern",
	UnresolvedSubstitution: "command substitution",
	UnresolvedDynamic:      "targets come from input at run time",
	UnresolvedMissing:      "no identifiable target",
	UnresolvedMalformed:    "unterminated quote",
	UnresolvedDepth:        "command nesting too deep",
	UnresolvedChdir:        "directory change could not be followed",
	UnresolvedWorkDir:      "invalid working directory",
}

// Describe returns a human-readable explanation of the tag.
func (r UnresolvedReason) Describe() string {
	if s, ok := unresolvedText[r]; ok {
		return s
	}
	return string(r)
}

// Verdict is the single decision produced for a top-level command line.
type Verdict struct {
	Decision   Decision
	Reason     BlockReason
	Detail     UnresolvedReason // set when Reason is ReasonUnresolvable
	Command    string           // destructive command that caused the block
	Path       string           // offending path: resolved for outside/protected, as written otherwise
	Pattern    string           // protected pattern that matched
	WorkingDir string
	Input      string // the command line that was classified
}

// Allow builds an Allow verdict.
func Allow(input, workDir string) Verdict {
	return Verdict{Decision: DecisionAllow, WorkingDir: workDir, Input: input}
}

func (v Verdict) Blocked() bool {
	return v.Decision != DecisionAllow
}

// Message renders the diagnostic shown to the host when the verdict blocks.
// The line layout is stable; callers parse "Target:" and "Working directory:".
func (v Verdict) Message() string {
	if !v.Blocked() {
		return ""
	}

	name := v.Command
	if name == "" {
		name = "command"
	}

	var b strings.Builder
	switch v.Reason {
	case ReasonOutside:
		fmt.Fprintf(&b, "BLOCKED: %s targets path outside working directory\n", name)
		fmt.Fprintf(&b, "Target: %s\n", v.Path)
	case ReasonProtected:
		fmt.Fprintf(&b, "BLOCKED: %s targets a protected path\n", name)
		fmt.Fprintf(&b, "Target: %s\n", v.Path)
		fmt.Fprintf(&b, "Pattern: %s\n", v.Pattern)
	default:
		switch v.Detail {
		case UnresolvedWorkDir:
			b.WriteString("BLOCKED: Invalid or missing working directory\n")
		case UnresolvedMissing:
			fmt.Fprintf(&b, "BLOCKED: %s has no identifiable target, blocked by default\n", name)
		case UnresolvedMalformed:
			fmt.Fprintf(&b, "BLOCKED: Malformed command (unterminated quote) mentions %s, blocked by default\n", name)
		default:
			fmt.Fprintf(&b, "BLOCKED: %s has an unresolvable target (%s), blocked by default\n", name, v.Detail)
			fmt.Fprintf(&b, "Reason: %s\n", v.Detail.Describe())
			if v.Path != "" {
				fmt.Fprintf(&b, "Target: %s\n", v.Path)
			}
		}
	}
	fmt.Fprintf(&b, "Working directory: %s", v.WorkingDir)
	if v.Input != "" {
		fmt.Fprintf(&b, "\nCommand: %s", v.Input)
	}
	return b.String()
}

// verdictJSON is the wire form used by `check --json`.
type verdictJSON struct {
	Decision   string `json:"decision"`
	Reason     string `json:"reason,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Command    string `json:"command,omitempty"`
	Path       string `json:"path,omitempty"`
	Pattern    string `json:"pattern,omitempty"`
	WorkingDir string `json:"working_dir"`
	Message    string `json:"message,omitempty"`
}

func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(verdictJSON{
		Decision:   v.Decision.String(),
		Reason:     v.Reason.String(),
		Detail:     string(v.Detail),
		Command:    v.Command,
		Path:       v.Path,
		Pattern:    v.Pattern,
		WorkingDir: v.WorkingDir,
		Message:    v.Message(),
	})
}
