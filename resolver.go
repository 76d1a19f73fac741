package main

import (
	"path/filepath"
	"regexp"
	"strings"
)

// $NAME, ${...}, $1, $@, $*, $#, $?, $$, $!, $-
var variableRef = regexp.MustCompile(`\$([A-Za-z_{]|[0-9@*#?$!-])`)

// resolvePath reduces a path argument to an absolute, lexically clean path
// relative to dir. It never touches the filesystem; only ~ lookups consult
// the account database.
func (c *Classifier) resolvePath(arg Token, dir string) (string, UnresolvedReason) {
	if reason := unresolvable(arg); reason != "" {
		return "", reason
	}

	p := arg.Value
	if strings.HasPrefix(p, "~") && strings.HasPrefix(arg.Raw, "~") {
		expanded, reason := c.expandTilde(p, dir)
		if reason != "" {
			return "", reason
		}
		p = expanded
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	return filepath.Clean(p), ""
}

// unresolvable reports why a word cannot be reduced to one literal path, or
// "" if it can.
func unresolvable(arg Token) UnresolvedReason {
	switch {
	case variableRef.MatchString(arg.Value):
		return UnresolvedVariable
	case strings.ContainsAny(arg.Value, "*?") || hasPattern(arg.Raw):
		return UnresolvedGlob
	case strings.Contains(arg.Value, "`") || strings.Contains(arg.Value, "$(") ||
		strings.Contains(arg.Value, "<(") || strings.Contains(arg.Value, ">("):
		return UnresolvedSubstitution
	}
	return ""
}

// hasPattern finds expansion syntax that only shows in the raw source: an
// unescaped [ bracket, brace expansion ({a,b} or {1..3}) and extglob groups.
func hasPattern(raw string) bool {
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '\\':
			i++
		case '[':
			return true
		case '{':
			if isBraceExpansion(raw[i+1:]) {
				return true
			}
		case '+', '@', '!':
			if i+1 < len(raw) && raw[i+1] == '(' {
				return true
			}
		}
	}
	return false
}

func isBraceExpansion(rest string) bool {
	end := strings.IndexByte(rest, '}')
	if end < 0 {
		return false
	}
	body := rest[:end]
	return strings.Contains(body, ",") || strings.Contains(body, "..")
}

// expandTilde handles ~, ~/x, ~user/x, ~+ and ~-.
func (c *Classifier) expandTilde(p, dir string) (string, UnresolvedReason) {
	name, rest := p[1:], ""
	if i := strings.IndexByte(name, '/'); i >= 0 {
		name, rest = name[:i], name[i:]
	}

	var base string
	switch name {
	case "":
		home, err := c.homeDir()
		if err != nil || home == "" {
			return "", UnresolvedVariable
		}
		base = home
	case "+":
		base = dir
	case "-":
		return "", UnresolvedVariable
	default:
		home, err := c.lookupHome(name)
		if err != nil || home == "" {
			return "", UnresolvedVariable
		}
		base = home
	}
	if !filepath.IsAbs(base) {
		return "", UnresolvedVariable
	}
	return filepath.Join(base, rest), ""
}
