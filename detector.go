package main

import (
	"path/filepath"
	"slices"
	"strings"
)

// danger is a destructive invocation together with the words naming what
// it destroys.
type danger struct {
	command string
	targets []Token
}

// isDestructive reports whether name (already passed through programName)
// deletes or overwrites the files it is given.
func (c *Classifier) isDestructive(name string) bool {
	if _, ok := destructiveCommands[name]; ok {
		return true
	}
	return c.extraDestructive[name]
}

// detect decides whether args runs a destructive command and extracts its
// path operands. args[0] is the program word; wrappers are expected to be
// peeled already.
func (c *Classifier) detect(args []Token) (danger, bool) {
	if len(args) == 0 {
		return danger{}, false
	}
	name := programName(args[0].Value)

	if name == "find" {
		return findDelete(args[1:])
	}

	table, builtin := destructiveCommands[name]
	if !builtin {
		if !c.extraDestructive[name] {
			return danger{}, false
		}
		return danger{command: name, targets: genericOperands(args[1:])}, true
	}

	targets, parents := table.operands(args[1:])
	if name == "rmdir" && parents {
		targets = withAncestors(targets)
	}
	return danger{command: name, targets: targets}, true
}

// operands walks args against the flag table and returns the path operands.
// Words that look like flags but are unknown count as paths. parents reports
// whether -p/--parents was seen.
func (t flagTable) operands(args []Token) (paths []Token, parents bool) {
	endOfOptions := false
	for i := 0; i < len(args); i++ {
		arg := args[i]
		v := arg.Value
		if endOfOptions || len(v) < 2 || v[0] != '-' {
			paths = append(paths, arg)
			continue
		}
		if v == "--" {
			endOfOptions = true
			continue
		}

		if strings.HasPrefix(v, "--") {
			name, _, hasValue := strings.Cut(v, "=")
			switch {
			case slices.Contains(t.long, name):
				parents = parents || name == "--parents"
			case slices.Contains(t.longValue, name):
				if !hasValue {
					i++
				}
			default:
				paths = append(paths, arg)
			}
			continue
		}

		known := true
		consumeNext := false
	cluster:
		for j := 1; j < len(v); j++ {
			ch := v[j]
			switch {
			case strings.IndexByte(t.short, ch) >= 0:
				parents = parents || ch == 'p'
			case strings.IndexByte(t.shortValue, ch) >= 0:
				consumeNext = j == len(v)-1
				break cluster
			default:
				known = false
				break cluster
			}
		}
		if !known {
			paths = append(paths, arg)
			continue
		}
		if consumeNext {
			i++
		}
	}
	return paths, parents
}

// genericOperands treats every dash word before -- as a flag. Used for
// configured commands with no flag table.
func genericOperands(args []Token) []Token {
	var paths []Token
	endOfOptions := false
	for _, arg := range args {
		switch {
		case endOfOptions:
			paths = append(paths, arg)
		case arg.Value == "--":
			endOfOptions = true
		case len(arg.Value) > 1 && arg.Value[0] == '-':
		default:
			paths = append(paths, arg)
		}
	}
	return paths
}

// withAncestors adds the parent directories rmdir -p removes: a/b/c also
// removes a/b and a.
func withAncestors(targets []Token) []Token {
	out := slices.Clone(targets)
	for _, t := range targets {
		if unresolvable(t) != "" {
			continue
		}
		p := strings.TrimRight(t.Value, "/")
		for {
			parent := filepath.Dir(p)
			if parent == p || parent == "." || parent == "/" {
				break
			}
			out = append(out, word(parent))
			p = parent
		}
	}
	return out
}

// findDelete reports find invocations using -delete. The starting points
// are the targets; find defaults to the current directory.
func findDelete(args []Token) (danger, bool) {
	if !slices.ContainsFunc(args, func(t Token) bool { return t.Value == "-delete" }) {
		return danger{}, false
	}

	i := 0
	// leading -H -L -P -D opts -Olevel
options:
	for i < len(args) {
		v := args[i].Value
		switch {
		case v == "-H" || v == "-L" || v == "-P":
			i++
		case v == "-D":
			i += 2
		case strings.HasPrefix(v, "-O"):
			i++
		default:
			break options
		}
	}

	var starts []Token
	for ; i < len(args); i++ {
		v := args[i].Value
		if strings.HasPrefix(v, "-") || v == "(" || v == "!" || v == "," {
			break
		}
		starts = append(starts, args[i])
	}
	if len(starts) == 0 {
		starts = []Token{word(".")}
	}
	return danger{command: "find", targets: starts}, true
}

// mentionsDestructive looks for a destructive command or a relay that can
// run one anywhere in the words, including inside the text of an
// unterminated quote.
func (c *Classifier) mentionsDestructive(tokens []Token) (string, bool) {
	for _, tok := range tokens {
		fields := strings.FieldsFunc(tok.Value, func(r rune) bool {
			return strings.ContainsRune(" \t\n;|&()<>'\"`$", r)
		})
		for _, f := range fields {
			name := programName(f)
			if c.isDestructive(name) || streamRelays[name] {
				return name, true
			}
		}
	}
	return "", false
}
