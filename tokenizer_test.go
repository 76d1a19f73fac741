package main

import (
	"slices"
	"testing"
)

// tokenValues renders tokens as "value" for words and "<op>" style markers
// for the rest, which keeps the tables readable.
func tokenValues(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		switch tok.Kind {
		case TokenOperator:
			out[i] = "op:" + tok.Value
		case TokenRedirect:
			out[i] = "redir:" + tok.Value
		default:
			out[i] = tok.Value
		}
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{"simple", "rm -rf foo", []string{"rm", "-rf", "foo"}},
		{"extra whitespace", "  rm \t foo  ", []string{"rm", "foo"}},
		{"semicolon without spaces", "cmd1;cmd2", []string{"cmd1", "op:;", "cmd2"}},
		{"and or", "a&&b||c", []string{"a", "op:&&", "b", "op:||", "c"}},
		{"pipe and background", "a|b&c", []string{"a", "op:|", "b", "op:&", "c"}},
		{"pipe stderr", "a |& b", []string{"a", "op:|", "b"}},
		{"parentheses", "(cd x)", []string{"op:(", "cd", "x", "op:)"}},
		{"newline", "a\nb", []string{"a", "op:\n", "b"}},
		{"line continuation", "rm \\\n-rf x", []string{"rm", "-rf", "x"}},
		{"single quotes", "echo 'a b' c", []string{"echo", "a b", "c"}},
		{"double quotes", `echo "a b"`, []string{"echo", "a b"}},
		{"adjacent quotes", `echo a'b'"c"`, []string{"echo", "abc"}},
		{"empty quotes", `rm ''`, []string{"rm", ""}},
		{"escaped space", `rm a\ b`, []string{"rm", "a b"}},
		{"escaped operator", `find . -exec rm {} \;`, []string{"find", ".", "-exec", "rm", "{}", ";"}},
		{"escapes in double quotes", `echo "\$x \a"`, []string{"echo", `$x \a`}},
		{"comment", "rm a # b; c", []string{"rm", "a"}},
		{"hash inside word", "echo a#b", []string{"echo", "a#b"}},
		{"redirect", "ls > out", []string{"ls", "redir:>", "out"}},
		{"redirect with fd", "ls 2>/dev/null", []string{"ls", "redir:2>", "/dev/null"}},
		{"append", "ls >>log", []string{"ls", "redir:>>", "log"}},
		{"both streams", "ls &> out", []string{"ls", "redir:&>", "out"}},
		{"dup", "ls 2>&1", []string{"ls", "redir:2>&", "1"}},
		{"here string", "cat <<< x", []string{"cat", "redir:<<<", "x"}},
		{"substitution keeps operators", "echo $(a; b)", []string{"echo", "$(a; b)"}},
		{"ansi-c hex", `rm $'\x2fhome'`, []string{"rm", "/home"}},
		{"ansi-c octal", `rm $'\057etc'`, []string{"rm", "/etc"}},
		{"ansi-c quote inside", `echo $'it\'s'`, []string{"echo", "it's"}},
		{"ansi-c in word", `rm a$'\tb'c`, []string{"rm", "a\tbc"}},
		{"locale string", `rm $"/home" x`, []string{"rm", "/home", "x"}},
		{"dollar single quote inside double", `echo "$'x'"`, []string{"echo", "$'x'"}},
		{"arithmetic", "echo $((1+2))", []string{"echo", "$((1+2))"}},
		{"parameter expansion", "echo ${a:-x y}", []string{"echo", "${a:-x y}"}},
		{"process substitution", "diff <(ls a) b", []string{"diff", "<(ls a)", "b"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenValues(Tokenize(tt.command))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.command, got, tt.want)
			}
		})
	}
}

func TestTokenizeRaw(t *testing.T) {
	tests := []struct {
		command string
		raw     string
		value   string
	}{
		{`a\[b]`, `a\[b]`, "a[b]"},
		{`"~"`, `"~"`, "~"},
		{`~/x`, `~/x`, "~/x"},
		{`'$HOME'`, `'$HOME'`, "$HOME"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			tokens := Tokenize(tt.command)
			if len(tokens) != 1 {
				t.Fatalf("Tokenize(%q) returned %d tokens", tt.command, len(tokens))
			}
			if tokens[0].Raw != tt.raw {
				t.Errorf("Raw = %q, want %q", tokens[0].Raw, tt.raw)
			}
			if tokens[0].Value != tt.value {
				t.Errorf("Value = %q, want %q", tokens[0].Value, tt.value)
			}
		})
	}
}

func TestTokenizeSubstitutions(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{"dollar paren", "$(rm -rf /)", []string{"rm -rf /"}},
		{"backtick", "`rm x`", []string{"rm x"}},
		{"nested", "$(echo $(rm x))", []string{"echo $(rm x)"}},
		{"in double quotes", `"a $(rm x) b"`, []string{"rm x"}},
		{"process", ">(rm x)", []string{"rm x"}},
		{"two in one word", "$(a)$(b)", []string{"a", "b"}},
		{"single quotes are text", `'$(rm x)'`, nil},
		{"ansi-c quotes are text", `$'$(rm x)'`, nil},
		{"ansi-c inside", `$(rm $'a\')b')`, []string{`rm $'a\')b'`}},
		{"arithmetic is not a command", "$((1+2))", nil},
		{"parameter is not a command", "${x}", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Tokenize(tt.command)
			if len(tokens) != 1 {
				t.Fatalf("Tokenize(%q) returned %d tokens: %q", tt.command, len(tokens), tokenValues(tokens))
			}
			if !slices.Equal(tokens[0].Substitutions, tt.want) {
				t.Errorf("Substitutions = %q, want %q", tokens[0].Substitutions, tt.want)
			}
		})
	}
}

func TestTokenizeUnterminated(t *testing.T) {
	tests := []struct {
		name    string
		command string
		value   string
	}{
		{"double quote", `rm "foo bar`, "foo bar"},
		{"single quote", `echo 'rm -rf /`, "rm -rf /"},
		{"substitution", `ls $(rm x`, "$(rm x"},
		{"backtick", "ls `rm x", "`rm x"},
		{"ansi-c", `rm $'\x2fetc`, "/etc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Tokenize(tt.command)
			if !hasUnterminated(tokens) {
				t.Fatalf("Expected an unterminated token in %q", tt.command)
			}
			last := tokens[len(tokens)-1]
			if !last.Unterminated || last.Value != tt.value {
				t.Errorf("last token = %+v, want unterminated %q", last, tt.value)
			}
		})
	}

	if hasUnterminated(Tokenize(`echo "fine" 'also'`)) {
		t.Error("Expected balanced quotes to tokenize cleanly")
	}
}

func TestTokenizeIsTotal(t *testing.T) {
	inputs := []string{
		`\`, `'`, `"`, "`", "$(", "${", "<(", "$((", "&", "|", "2>", ">&", "\"\\", "$(\"", "$('",
		"\x00\xff", "ｒｍ", "((((", "))))",
	}
	for _, in := range inputs {
		Tokenize(in)
	}
}

func TestDecodeANSIC(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{`\x2fhome`, "/home"},
		{`\x2Fhome`, "/home"},
		{`\057etc`, "/etc"},
		{`\0`, ""},
		{`/etc\0junk`, "/etc"},
		{`\u00e9`, "é"},
		{`\U0001F600`, "\U0001F600"},
		{`a\nb\tc`, "a\nb\tc"},
		{`\e[0m`, "\x1b[0m"},
		{`\cA`, "\x01"},
		{`\\ \' \" \?`, `\ ' " ?`},
		{`\xzz`, `\xzz`},
		{`\q`, `\q`},
		{`trailing\`, `trailing\`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := decodeANSIC(tt.in); got != tt.want {
				t.Errorf("decodeANSIC(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
