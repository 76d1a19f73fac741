package main

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// maxDepth bounds how many wrapper and script layers are peeled before the
// classifier gives up and blocks.
const maxDepth = 10

// maxCommands bounds how many argument vectors one command line may expand
// into. Ambiguous wrapper options fork; past the bound the command line
// blocks.
const maxCommands = 10000

// Classifier decides whether a command line may destroy filesystem content
// outside a working directory. A Classifier is immutable after New and safe
// for concurrent use.
type Classifier struct {
	extraDestructive map[string]bool
	protected        []protectedPattern
	homeDir          func() (string, error)
	lookupHome       func(name string) (string, error)
}

type protectedPattern struct {
	pattern string
	glob    glob.Glob
}

// Option configures a Classifier.
type Option func(*Classifier) error

// WithExtraDestructive adds command names treated like rm. Their dash
// words are flags and every other word is a target.
func WithExtraDestructive(names ...string) Option {
	return func(c *Classifier) error {
		for _, n := range names {
			n = strings.TrimSpace(n)
			if n == "" {
				continue
			}
			c.extraDestructive[programName(n)] = true
		}
		return nil
	}
}

// WithProtected blocks resolved targets matching any of the glob patterns
// even inside the working directory. Patterns use / as separator and match
// either the absolute path or the path relative to the working directory.
func WithProtected(patterns ...string) Option {
	return func(c *Classifier) error {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			g, err := glob.Compile(p, '/')
			if err != nil {
				return fmt.Errorf("compile protected pattern %q: %w", p, err)
			}
			c.protected = append(c.protected, protectedPattern{pattern: p, glob: g})
		}
		return nil
	}
}

// WithHomeDir replaces the lookup used to expand ~.
func WithHomeDir(fn func() (string, error)) Option {
	return func(c *Classifier) error {
		c.homeDir = fn
		return nil
	}
}

// WithUserLookup replaces the lookup used to expand ~name.
func WithUserLookup(fn func(name string) (string, error)) Option {
	return func(c *Classifier) error {
		c.lookupHome = fn
		return nil
	}
}

func lookupUserHome(name string) (string, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return "", err
	}
	return u.HomeDir, nil
}

// New builds a Classifier.
func New(opts ...Option) (*Classifier, error) {
	c := &Classifier{
		extraDestructive: map[string]bool{},
		homeDir:          os.UserHomeDir,
		lookupHome:       lookupUserHome,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Classify returns the verdict for one command line run in workDir.
// workDir should already be canonical (absolute, symlinks resolved); a
// relative or empty workDir makes every destructive target unverifiable.
func (c *Classifier) Classify(command, workDir string) Verdict {
	dir := workDir
	if filepath.IsAbs(dir) {
		dir = filepath.Clean(dir)
	}
	a := &analysis{
		c:        c,
		scripts:  map[string]bool{},
		commands: map[string]bool{},
	}
	a.script(command, scope{dirs: &dirSet{dirs: []string{dir}}}, 0)
	return c.decide(a.targets, command, dir)
}

// --- Analysis ---

// Target is one thing a destructive command would destroy.
type Target struct {
	Command string
	Raw     string           // argument as written
	Path    string           // absolute path, set when Reason is empty
	Reason  UnresolvedReason // why the argument could not be resolved
}

type analysis struct {
	c        *Classifier
	targets  []Target
	scripts  map[string]bool // scripts already analyzed, keyed by scope and text
	commands map[string]bool // argument vectors already analyzed, keyed by scope, depth and words
	spent    int             // command analyses started, repeats included
}

// dirSet is every directory the commands seen so far might be running in.
type dirSet struct {
	dirs []string
	lost bool // a change of directory could not be followed
}

func (d *dirSet) clone() *dirSet {
	return &dirSet{dirs: slices.Clone(d.dirs), lost: d.lost}
}

func (d *dirSet) add(dir string) {
	if !slices.Contains(d.dirs, dir) {
		d.dirs = append(d.dirs, dir)
	}
}

func (d *dirSet) key() string {
	return fmt.Sprintf("%t\x00%s", d.lost, strings.Join(d.dirs, "\x00"))
}

func (d *dirSet) merge(other *dirSet) {
	for _, dir := range other.dirs {
		d.add(dir)
	}
	d.lost = d.lost || other.lost
}

type scope struct {
	dirs    *dirSet
	stream  string // relay feeding run-time input to the commands, "" if none
	relayed bool   // commands were handed over by a wrapper
}

func (a *analysis) add(t Target) {
	a.targets = append(a.targets, t)
}

// script analyzes a command line: first as tokens split at operators, then
// as a bash syntax tree. Both passes only add targets.
func (a *analysis) script(src string, sc scope, depth int) {
	if depth > maxDepth {
		a.add(Target{Raw: src, Reason: UnresolvedDepth})
		return
	}
	key := fmt.Sprintf("%s\x00%t\x00%s\x00%s", sc.stream, sc.relayed, sc.dirs.key(), src)
	if a.scripts[key] {
		return
	}
	a.scripts[key] = true

	tokens := Tokenize(src)
	if hasUnterminated(tokens) {
		if name, ok := a.c.mentionsDestructive(tokens); ok {
			a.add(Target{Command: name, Raw: src, Reason: UnresolvedMalformed})
		}
	}

	before := sc.dirs.clone()
	for _, sub := range Split(tokens) {
		a.subcommand(sub, sc, depth)
	}

	structural := sc
	structural.dirs = before
	a.structural(src, structural, depth)
	sc.dirs.merge(before)
}

func (a *analysis) subcommand(sub Subcommand, sc scope, depth int) {
	for _, r := range sub.Redirects {
		a.substitutions(r.Target, sc, depth)
	}
	for _, w := range sub.Words {
		a.substitutions(w, sc, depth)
	}
	a.command(sub.Words, sc, depth)
}

func (a *analysis) substitutions(tok Token, sc scope, depth int) {
	inner := sc
	inner.relayed = false
	for _, body := range tok.Substitutions {
		a.script(body, inner, depth+1)
	}
}

// command analyzes one argument vector.
func (a *analysis) command(args []Token, sc scope, depth int) {
	a.spent++
	if a.spent > maxCommands {
		if a.spent == maxCommands+1 {
			a.add(Target{Raw: joinValues(args), Reason: UnresolvedDepth})
		}
		return
	}
	if depth > maxDepth {
		a.add(Target{Raw: joinValues(args), Reason: UnresolvedDepth})
		return
	}
	key := commandKey(args, sc, depth)
	if a.commands[key] {
		return
	}
	a.commands[key] = true

	for len(args) > 0 && (isAssignment(args[0].Value) || shellKeywords[args[0].Raw]) {
		args = args[1:]
	}
	if len(args) == 0 {
		return
	}

	program := args[0]
	if reason := unresolvable(program); reason != "" {
		a.dynamicProgram(args, reason, sc, depth)
		return
	}

	name := programName(program.Value)
	switch name {
	case "cd", "pushd", "popd":
		a.chdir(name, args[1:], sc)
		return
	}

	if d, ok := a.c.detect(args); ok {
		a.destructive(d, sc)
	}

	r, ok := unwrap(args)
	if !ok {
		return
	}
	inner := sc
	inner.relayed = true
	if r.stream {
		inner.stream = r.wrapper
	}
	if len(r.chdir) > 0 {
		inner.dirs = a.enter(sc.dirs, r.chdir)
	}
	for _, cmd := range r.commands {
		a.command(cmd, inner, depth+1)
	}
	for _, s := range r.scripts {
		a.script(s, inner, depth+1)
	}
}

// commandKey identifies one command analysis. The directory set is keyed by
// identity and content: a cd seen through one set must not be skipped for
// another.
func commandKey(args []Token, sc scope, depth int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\x00%s\x00%t\x00%p\x00%s", depth, sc.stream, sc.relayed, sc.dirs, sc.dirs.key())
	for _, t := range args {
		b.WriteString("\x00")
		b.WriteString(t.Raw)
		b.WriteString("\x01")
		b.WriteString(t.Value)
	}
	return b.String()
}

// dynamicProgram handles a command whose name is only known at run time.
// A wrapper relaying to it cannot be unwrapped, which blocks. Otherwise the
// remaining words are analyzed as a command of their own in case the
// program turns out to be a wrapper ($SUDO rm ...).
func (a *analysis) dynamicProgram(args []Token, reason UnresolvedReason, sc scope, depth int) {
	if sc.relayed {
		a.add(Target{Command: args[0].Raw, Raw: args[0].Raw, Reason: reason})
		return
	}
	a.command(args[1:], sc, depth+1)
}

// destructive records the targets of one destructive invocation.
func (a *analysis) destructive(d danger, sc scope) {
	if sc.stream != "" {
		a.add(Target{Command: d.command, Raw: "input from " + sc.stream, Reason: UnresolvedDynamic})
	}
	if len(d.targets) == 0 {
		a.add(Target{Command: d.command, Reason: UnresolvedMissing})
		return
	}
	for _, t := range d.targets {
		a.resolve(d.command, t, sc.dirs)
	}
}

// resolve adds one target per directory the command might run in.
func (a *analysis) resolve(command string, arg Token, dirs *dirSet) {
	if reason := unresolvable(arg); reason != "" {
		a.add(Target{Command: command, Raw: arg.Raw, Reason: reason})
		return
	}
	relative := isRelative(arg)
	if relative && dirs.lost {
		a.add(Target{Command: command, Raw: arg.Raw, Reason: UnresolvedChdir})
		return
	}
	for _, dir := range dirs.dirs {
		path, reason := a.c.resolvePath(arg, dir)
		a.add(Target{Command: command, Raw: arg.Raw, Path: path, Reason: reason})
		if !relative {
			return
		}
	}
}

// chdir follows cd, pushd and popd. The old directories stay candidates
// since the change may fail or be skipped by && / ||.
func (a *analysis) chdir(name string, args []Token, sc scope) {
	var operands []Token
	for i, arg := range args {
		if arg.Value == "--" {
			operands = append(operands, args[i+1:]...)
			break
		}
		if len(arg.Value) > 1 && arg.Value[0] == '-' && !isDigits(arg.Value[1:]) {
			continue
		}
		operands = append(operands, arg)
	}

	if name == "popd" || len(operands) > 1 {
		sc.dirs.lost = true
		return
	}
	if len(operands) == 0 {
		if name == "pushd" {
			sc.dirs.lost = true
			return
		}
		operands = []Token{{Kind: TokenWord, Value: "~", Raw: "~"}}
	}

	v := operands[0].Value
	switch {
	case v == "":
		return
	case v == "-" || ((v[0] == '+' || v[0] == '-') && isDigits(v[1:])):
		sc.dirs.lost = true
		return
	}
	sc.dirs.merge(a.enter(sc.dirs, operands))
}

// enter returns the directories reached by changing into each of targets
// from every directory in dirs. The starting directories are kept.
func (a *analysis) enter(dirs *dirSet, targets []Token) *dirSet {
	out := dirs.clone()
	for _, t := range targets {
		if unresolvable(t) != "" {
			out.lost = true
			continue
		}
		relative := isRelative(t)
		if relative && dirs.lost {
			out.lost = true
			continue
		}
		for _, dir := range dirs.dirs {
			path, reason := a.c.resolvePath(t, dir)
			if reason != "" {
				out.lost = true
				continue
			}
			out.add(path)
			if !relative {
				break
			}
		}
	}
	return out
}

// isRelative reports whether a word resolves against the working directory.
// ~ and ~user do not; ~+ is the working directory itself.
func isRelative(t Token) bool {
	if filepath.IsAbs(t.Value) {
		return false
	}
	if strings.HasPrefix(t.Raw, "~") && !strings.HasPrefix(t.Value, "~+") {
		return false
	}
	return true
}
