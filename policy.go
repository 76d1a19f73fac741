package main

import (
	"path/filepath"
	"strings"
)

// decide turns the targets of a whole command line into one verdict.
//
// The verdict starts as Block and only becomes Allow after every target has
// been checked in bounds. Unresolvable targets win over outside targets,
// which win over protected ones; within a class the first target reported
// in analysis order is named.
func (c *Classifier) decide(targets []Target, command, workDir string) Verdict {
	v := Verdict{
		Decision:   DecisionBlock,
		Reason:     ReasonUnresolvable,
		WorkingDir: workDir,
		Input:      command,
	}
	if len(targets) == 0 {
		return Allow(command, workDir)
	}

	if workDir == "" || !filepath.IsAbs(workDir) {
		v.Detail = UnresolvedWorkDir
		v.Command = targets[0].Command
		v.Path = targets[0].Raw
		return v
	}

	for _, t := range targets {
		if t.Reason != "" || t.Path == "" {
			v.Detail = t.Reason
			if v.Detail == "" {
				v.Detail = UnresolvedMissing
			}
			v.Command = t.Command
			v.Path = t.Raw
			return v
		}
	}

	for _, t := range targets {
		if !isWithinDir(t.Path, workDir) {
			v.Reason = ReasonOutside
			v.Command = t.Command
			v.Path = t.Path
			return v
		}
	}

	for _, t := range targets {
		if pattern, ok := c.protects(t.Path, workDir); ok {
			v.Reason = ReasonProtected
			v.Command = t.Command
			v.Path = t.Path
			v.Pattern = pattern
			return v
		}
	}

	return Allow(command, workDir)
}

// protects reports the first protected pattern matching path, tried against
// the absolute path and the path relative to workDir.
func (c *Classifier) protects(path, workDir string) (string, bool) {
	if len(c.protected) == 0 {
		return "", false
	}
	rel, err := filepath.Rel(workDir, path)
	if err != nil {
		rel = ""
	}
	for _, p := range c.protected {
		if p.glob.Match(path) || (rel != "" && p.glob.Match(rel)) {
			return p.pattern, true
		}
	}
	return "", false
}

// isWithinDir reports whether path is dir or lies below it. Both must be
// clean absolute paths; the comparison is lexical.
func isWithinDir(path, dir string) bool {
	if dir == "" {
		return false
	}
	path = filepath.Clean(path)
	dir = filepath.Clean(dir)
	if dir == string(filepath.Separator) {
		return filepath.IsAbs(path)
	}
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}
