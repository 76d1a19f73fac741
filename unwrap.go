package main

import (
	"slices"
	"strings"
)

// relay is what a wrapper runs on behalf of its caller.
type relay struct {
	wrapper  string
	commands [][]Token // argument vectors the wrapper executes
	scripts  []string  // command lines the wrapper hands to a shell
	chdir    []Token   // directories the relayed commands run in
	stream   bool      // the relayed commands get their arguments from input
}

// unwrap peels one wrapper layer off args. It returns false when args[0] is
// not a wrapper. A wrapper whose boundary is ambiguous yields every
// plausible reading.
func unwrap(args []Token) (relay, bool) {
	if len(args) == 0 {
		return relay{}, false
	}
	name := programName(args[0].Value)
	rest := args[1:]
	r := relay{wrapper: name}

	if spec, ok := wrappers[name]; ok {
		p := spec.parse(rest)
		for _, start := range p.starts {
			r.commands = append(r.commands, rest[start:])
		}
		r.chdir = p.chdir
		r.scripts = p.scripts
		return r, true
	}

	switch {
	case shells[name]:
		if script, ok := shellScript(rest); ok {
			r.scripts = append(r.scripts, script)
		}
	case name == "watch":
		p := watchSpec.parse(rest)
		for _, start := range p.starts {
			r.scripts = append(r.scripts, joinValues(rest[start:]))
		}
	case name == "xargs":
		p := xargsSpec.parse(rest)
		for _, start := range p.starts {
			r.commands = append(r.commands, rest[start:])
		}
		r.stream = true
	case name == "parallel":
		r.commands, r.scripts = parallelCommands(rest)
		r.stream = true
	case name == "find":
		r.commands = findExecClauses(rest)
		r.stream = true
	default:
		return relay{}, false
	}
	return r, true
}

// wrapperParse is every reading of a wrapper's options.
type wrapperParse struct {
	starts  []int // indices where the wrapped command may begin
	chdir   []Token
	scripts []string
}

// parse walks the wrapper's options. An unknown option forks the walk three
// ways: the option begins the command, the option takes no value, the
// option takes one value. Positions are visited once, so the walk is linear
// in len(args).
func (w wrapperSpec) parse(args []Token) wrapperParse {
	var out wrapperParse
	type state struct{ i, operands int }

	seen := map[state]bool{}
	var queue []state
	push := func(s state) {
		if s.i < len(args) && !seen[s] {
			seen[s] = true
			queue = append(queue, s)
		}
	}
	start := func(i int) {
		if i < len(args) && !slices.Contains(out.starts, i) {
			out.starts = append(out.starts, i)
		}
	}

	push(state{0, w.operands})
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		v := args[s.i].Value

		switch {
		case v == "--":
			start(s.i + 1 + s.operands)
		case w.assignments && isAssignment(v):
			push(state{s.i + 1, s.operands})
		case w.dash && v == "-":
			push(state{s.i + 1, s.operands})
		case len(v) > 1 && v[0] == '-':
			next, query, known := w.option(args, s.i, &out)
			switch {
			case query:
			case known:
				push(state{next, s.operands})
			default:
				start(s.i)
				push(state{s.i + 1, s.operands})
				push(state{s.i + 2, s.operands})
			}
		case s.operands > 0:
			push(state{s.i + 1, s.operands - 1})
		default:
			start(s.i)
		}
	}

	slices.Sort(out.starts)
	return out
}

// option matches args[i] against the table. next is the index after the
// option and any value it consumed. query reports a flag that stops the
// wrapper from running anything.
func (w wrapperSpec) option(args []Token, i int, out *wrapperParse) (next int, query, known bool) {
	v := args[i].Value

	if strings.HasPrefix(v, "--") {
		name, val, hasValue := strings.Cut(v, "=")
		switch {
		case slices.Contains(w.long, name):
			return i + 1, false, true
		case slices.Contains(w.longValue, name):
			if hasValue {
				w.record(name, word(val), out)
				return i + 1, false, true
			}
			if i+1 < len(args) {
				w.record(name, args[i+1], out)
			}
			return i + 2, false, true
		}
		return 0, false, false
	}

	if w.numeric && isDigits(v[1:]) {
		return i + 1, false, true
	}

	for j := 1; j < len(v); j++ {
		ch := v[j]
		switch {
		case strings.IndexByte(w.query, ch) >= 0:
			return 0, true, true
		case strings.IndexByte(w.short, ch) >= 0:
		case strings.IndexByte(w.shortAttach, ch) >= 0:
			return i + 1, false, true
		case strings.IndexByte(w.shortValue, ch) >= 0:
			name := "-" + string(ch)
			if j+1 < len(v) {
				w.record(name, word(v[j+1:]), out)
				return i + 1, false, true
			}
			if i+1 < len(args) {
				w.record(name, args[i+1], out)
			}
			return i + 2, false, true
		default:
			return 0, false, false
		}
	}
	return i + 1, false, true
}

func (w wrapperSpec) record(name string, value Token, out *wrapperParse) {
	switch {
	case slices.Contains(w.chdir, name):
		out.chdir = append(out.chdir, value)
	case slices.Contains(w.split, name):
		out.scripts = append(out.scripts, value.Value)
	}
}

// shellScript finds the -c argument of a shell invocation. Options may be
// clustered (-lc, -ec); the script is the first operand after them.
func shellScript(args []Token) (string, bool) {
	command := false
	for i := 0; i < len(args); i++ {
		v := args[i].Value
		switch {
		case v == "--" || v == "-":
			if command && i+1 < len(args) {
				return args[i+1].Value, true
			}
			return "", false
		case v == "--command":
			if i+1 < len(args) {
				return args[i+1].Value, true
			}
			return "", false
		case strings.HasPrefix(v, "--command="):
			return strings.TrimPrefix(v, "--command="), true
		case shellValueOptions[v]:
			i++
		case strings.HasPrefix(v, "--"):
		case len(v) > 1 && (v[0] == '-' || v[0] == '+'):
			if v[0] == '-' && strings.IndexByte(v, 'c') > 0 {
				command = true
			}
		default:
			if command {
				return v, true
			}
			// script file: its contents are not visible here
			return "", false
		}
	}
	return "", false
}

// findExecClauses returns the command of every -exec style action. A
// clause runs to ; or + or the end of the words.
func findExecClauses(args []Token) [][]Token {
	var clauses [][]Token
	for i := 0; i < len(args); i++ {
		if !findExecActions[args[i].Value] {
			continue
		}
		j := i + 1
		for j < len(args) && args[j].Value != ";" && args[j].Value != "+" {
			j++
		}
		if j > i+1 {
			clauses = append(clauses, args[i+1:j])
		}
		i = j
	}
	return clauses
}

// parallelCommands splits a GNU parallel invocation into the command
// template and, when there is none, the input lines that parallel runs as
// commands themselves.
func parallelCommands(args []Token) ([][]Token, []string) {
	sep := slices.IndexFunc(args, func(t Token) bool { return strings.HasPrefix(t.Value, ":::") })
	head, inputs := args, []Token(nil)
	if sep >= 0 {
		head, inputs = args[:sep], args[sep+1:]
	}

	var commands [][]Token
	p := parallelSpec.parse(head)
	for _, start := range p.starts {
		commands = append(commands, head[start:])
	}
	if len(commands) > 0 {
		return commands, nil
	}

	var scripts []string
	for _, in := range inputs {
		if !strings.HasPrefix(in.Value, ":::") {
			scripts = append(scripts, in.Value)
		}
	}
	return nil, scripts
}

func joinValues(args []Token) string {
	values := make([]string, len(args))
	for i, a := range args {
		values[i] = a.Value
	}
	return strings.Join(values, " ")
}
