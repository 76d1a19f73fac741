package main

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// --- Destructive commands ---

// flagTable lists the options a command accepts. Short flags may be
// clustered (-rf). Long options may carry =VALUE.
type flagTable struct {
	short      string   // boolean short flags
	shortValue string   // short flags that consume a value
	long       []string // boolean long options
	longValue  []string // long options that consume the next word unless given as --opt=VALUE
}

var destructiveCommands = map[string]flagTable{
	"rm": {
		short: "fiIrRdv",
		long: []string{
			"--force", "--interactive", "--recursive", "--dir", "--verbose",
			"--one-file-system", "--preserve-root", "--no-preserve-root",
			"--help", "--version",
		},
	},
	"unlink": {
		long: []string{"--help", "--version"},
	},
	"rmdir": {
		short: "pv",
		long:  []string{"--parents", "--verbose", "--ignore-fail-on-non-empty", "--help", "--version"},
	},
	"shred": {
		short:      "fuvxz",
		shortValue: "ns",
		long:       []string{"--force", "--remove", "--verbose", "--exact", "--zero", "--help", "--version"},
		longValue:  []string{"--iterations", "--size", "--random-source"},
	},
}

// Commands that can run a destructive command on input they read at run time.
var streamRelays = map[string]bool{
	"xargs":    true,
	"parallel": true,
	"find":     true,
}

// --- Wrappers ---

// wrapperSpec describes how a relay command's own options end and the
// command it runs begins.
type wrapperSpec struct {
	flagTable
	shortAttach string   // short flags whose optional value must be attached (xargs -i, -l, -e)
	query       string   // short flags that make the wrapper print instead of run (command -v)
	chdir       []string // options whose value is the directory the command runs in
	split       []string // options whose value is a command line of its own (env -S)
	operands    int      // words between the options and the command (timeout DURATION)
	assignments bool     // NAME=value words belong to the wrapper
	numeric     bool     // -N is an option (nice -10)
	dash        bool     // a lone - is an option (env -)
}

var wrappers = map[string]wrapperSpec{
	"sudo": {
		flagTable: flagTable{
			short:      "AbEeHiKklnPSsVv",
			shortValue: "CDgpRrTtUu",
			long: []string{
				"--askpass", "--background", "--preserve-env", "--edit", "--set-home",
				"--login", "--remove-timestamp", "--reset-timestamp", "--list",
				"--non-interactive", "--preserve-groups", "--stdin", "--shell",
				"--validate", "--version", "--help",
			},
			longValue: []string{
				"--close-from", "--chdir", "--group", "--host", "--prompt", "--role",
				"--type", "--command-timeout", "--other-user", "--user", "--chroot",
			},
		},
		chdir: []string{"-D", "--chdir"},
	},
	"doas": {
		flagTable: flagTable{short: "nsL", shortValue: "uC"},
	},
	"env": {
		flagTable: flagTable{
			short:      "0iv",
			shortValue: "uCS",
			long: []string{
				"--ignore-environment", "--null", "--debug", "--help", "--version",
				"--block-signal", "--default-signal", "--ignore-signal", "--list-signal-handling",
			},
			longValue: []string{"--unset", "--chdir", "--split-string"},
		},
		chdir:       []string{"-C", "--chdir"},
		split:       []string{"-S", "--split-string"},
		assignments: true,
		dash:        true,
	},
	"nice": {
		flagTable: flagTable{shortValue: "n", long: []string{"--help", "--version"}, longValue: []string{"--adjustment"}},
		numeric:   true,
	},
	"nohup": {
		flagTable: flagTable{long: []string{"--help", "--version"}},
	},
	"time": {
		flagTable: flagTable{
			short:      "pavq",
			shortValue: "fo",
			long:       []string{"--portability", "--append", "--verbose", "--quiet", "--help", "--version"},
			longValue:  []string{"--format", "--output"},
		},
	},
	"timeout": {
		flagTable: flagTable{
			short:      "v",
			shortValue: "sk",
			long:       []string{"--preserve-status", "--foreground", "--verbose", "--help", "--version"},
			longValue:  []string{"--signal", "--kill-after"},
		},
		operands: 1,
	},
	"command": {
		flagTable: flagTable{short: "p"},
		query:     "vV",
	},
	"exec": {
		flagTable: flagTable{short: "cl", shortValue: "a"},
	},
	"builtin": {},
	"stdbuf": {
		flagTable: flagTable{
			shortValue: "ioe",
			long:       []string{"--help", "--version"},
			longValue:  []string{"--input", "--output", "--error"},
		},
	},
	"ionice": {
		flagTable: flagTable{
			short:      "t",
			shortValue: "cnpPu",
			long:       []string{"--ignore", "--help", "--version"},
			longValue:  []string{"--class", "--classdata", "--pid", "--pgid", "--uid"},
		},
	},
	"chrt": {
		flagTable: flagTable{
			short:      "abdefiormRpv",
			shortValue: "TPD",
			long: []string{
				"--all-tasks", "--batch", "--deadline", "--ext", "--fifo", "--idle",
				"--other", "--rr", "--reset-on-fork", "--max", "--pid", "--verbose",
				"--help", "--version",
			},
			longValue: []string{"--sched-runtime", "--sched-period", "--sched-deadline"},
		},
		operands: 1,
	},
	"taskset": {
		flagTable: flagTable{short: "acp", long: []string{"--all-tasks", "--cpu-list", "--pid", "--help", "--version"}},
		operands:  1,
	},
}

var xargsSpec = wrapperSpec{
	flagTable: flagTable{
		short:      "0oprtx",
		shortValue: "aEdILnPs",
		long: []string{
			"--null", "--no-run-if-empty", "--verbose", "--interactive", "--exit",
			"--open-tty", "--show-limits", "--help", "--version",
			"--eof", "--replace", "--max-lines",
		},
		longValue: []string{
			"--arg-file", "--delimiter", "--max-args", "--max-procs",
			"--max-chars", "--process-slot-var",
		},
	},
	shortAttach: "eil",
}

var parallelSpec = wrapperSpec{
	flagTable: flagTable{
		short:      "0gkmquvX",
		shortValue: "aEdIjS",
		long: []string{
			"--keep-order", "--verbose", "--dry-run", "--group", "--line-buffer",
			"--null", "--quote", "--tag", "--bar", "--progress", "--eta",
			"--help", "--version",
		},
		longValue: []string{
			"--jobs", "--delimiter", "--arg-file", "--results", "--joblog", "--halt",
			"--timeout", "--sshlogin", "--tmpdir", "--workdir", "--colsep",
			"--tagstring", "--replace",
		},
	},
}

var watchSpec = wrapperSpec{
	flagTable: flagTable{
		short:      "bcCegprtwx",
		shortValue: "nq",
		long: []string{
			"--beep", "--color", "--no-color", "--differences", "--errexit", "--chgexit",
			"--precise", "--no-rerun", "--no-title", "--no-wrap", "--no-linewrap",
			"--exec", "--help", "--version",
		},
		longValue: []string{"--interval", "--equexit"},
	},
	shortAttach: "d",
}

// --- Shells ---

var shells = map[string]bool{
	"sh": true, "bash": true, "zsh": true, "dash": true, "ksh": true, "fish": true,
}

// Shell options that take the next word as their value.
var shellValueOptions = map[string]bool{
	"-o": true, "+o": true, "-O": true, "+O": true,
	"--rcfile": true, "--init-file": true, "--init-command": true,
}

// Reserved words that may precede a command in the same subcommand.
// Matched against the raw word: a quoted "if" is a program name.
var shellKeywords = map[string]bool{
	"if": true, "then": true, "else": true, "elif": true, "fi": true,
	"do": true, "done": true, "while": true, "until": true,
	"{": true, "}": true, "!": true, "coproc": true,
}

// find actions that run a command.
var findExecActions = map[string]bool{
	"-exec": true, "-execdir": true, "-ok": true, "-okdir": true,
}

// --- Names ---

// programName reduces the first word of a command to the name it would be
// looked up by: basename, compatibility-folded, lower-cased.
func programName(word string) string {
	name := norm.NFKC.String(strings.ToValidUTF8(word, "�"))
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

// isAssignment matches a NAME=value word.
func isAssignment(word string) bool {
	name, _, ok := strings.Cut(word, "=")
	if !ok || name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
