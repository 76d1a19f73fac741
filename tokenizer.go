package main

import "strings"

// TokenKind distinguishes words from control operators and redirections.
type TokenKind int

const (
	TokenWord TokenKind = iota
	TokenOperator
	TokenRedirect
)

// Token is one shell word or operator.
//
// Value has quotes and escapes removed. Raw is the exact slice of the source
// the token came from, so callers can tell an escaped \[ from a glob [.
type Token struct {
	Kind         TokenKind
	Value        string
	Raw          string
	Unterminated bool

	// Substitutions holds the bodies of $(...), backtick and <(...) / >(...)
	// constructs found outside single quotes. They run as commands.
	Substitutions []string
}

// word builds a plain word token. Used for tokens synthesized from other
// tokens (rmdir -p ancestors, find starting points).
func word(value string) Token {
	return Token{Kind: TokenWord, Value: value, Raw: value}
}

// Tokenize splits a command line into words, operators and redirections.
// It never fails: malformed input yields best-effort tokens flagged
// Unterminated.
func Tokenize(command string) []Token {
	t := &tokenizer{src: command}
	t.run()
	return t.tokens
}

type tokenizer struct {
	src    string
	pos    int
	tokens []Token

	// current word
	open   bool
	start  int
	value  strings.Builder
	broken bool
	substs []string
}

func (t *tokenizer) peek(offset int) byte {
	if t.pos+offset < len(t.src) {
		return t.src[t.pos+offset]
	}
	return 0
}

func (t *tokenizer) begin() {
	if t.open {
		return
	}
	t.open = true
	t.start = t.pos
	t.value.Reset()
	t.broken = false
	t.substs = nil
}

func (t *tokenizer) end() {
	if !t.open {
		return
	}
	t.tokens = append(t.tokens, Token{
		Kind:          TokenWord,
		Value:         t.value.String(),
		Raw:           t.src[t.start:t.pos],
		Unterminated:  t.broken,
		Substitutions: t.substs,
	})
	t.open = false
}

func (t *tokenizer) emit(kind TokenKind, start int) {
	raw := t.src[start:t.pos]
	t.tokens = append(t.tokens, Token{Kind: kind, Value: raw, Raw: raw})
}

func (t *tokenizer) run() {
	for t.pos < len(t.src) {
		ch := t.src[t.pos]
		switch {
		case ch == '\\':
			if t.peek(1) == '\n' {
				t.pos += 2
				continue
			}
			t.begin()
			if t.pos+1 >= len(t.src) {
				t.value.WriteByte('\\')
				t.pos++
				continue
			}
			t.value.WriteByte(t.src[t.pos+1])
			t.pos += 2
		case ch == '\'':
			t.begin()
			t.singleQuoted()
		case ch == '"':
			t.begin()
			t.doubleQuoted()
		case ch == '`':
			t.begin()
			t.backtick()
		case ch == '$' && t.peek(1) == '\'':
			t.begin()
			t.ansiQuoted()
		case ch == '$' && t.peek(1) == '"':
			// $"..." is a translated string; the text is the same as "..."
			t.begin()
			t.pos++
			t.doubleQuoted()
		case ch == '$' && (t.peek(1) == '(' || t.peek(1) == '{'):
			t.begin()
			t.dollar()
		case (ch == '<' || ch == '>') && t.peek(1) == '(':
			t.begin()
			t.processSubst()
		case ch == '\n':
			t.end()
			t.pos++
			t.emit(TokenOperator, t.pos-1)
		case ch == ' ' || ch == '\t' || ch == '\r':
			t.end()
			t.pos++
		case ch == '#' && !t.open:
			for t.pos < len(t.src) && t.src[t.pos] != '\n' {
				t.pos++
			}
		case ch == ';' || ch == '(' || ch == ')':
			t.end()
			t.pos++
			t.emit(TokenOperator, t.pos-1)
		case ch == '|':
			t.end()
			start := t.pos
			t.pos++
			if t.peek(0) == '|' {
				t.pos++
				t.emit(TokenOperator, start)
				continue
			}
			if t.peek(0) == '&' {
				t.pos++
			}
			t.tokens = append(t.tokens, Token{Kind: TokenOperator, Value: "|", Raw: t.src[start:t.pos]})
		case ch == '&':
			t.end()
			start := t.pos
			t.pos++
			switch t.peek(0) {
			case '&':
				t.pos++
				t.emit(TokenOperator, start)
			case '>':
				t.pos++
				if t.peek(0) == '>' {
					t.pos++
				}
				t.emit(TokenRedirect, start)
			default:
				t.emit(TokenOperator, start)
			}
		case ch == '<' || ch == '>':
			t.redirect()
		default:
			t.begin()
			t.value.WriteByte(ch)
			t.pos++
		}
	}
	t.end()
}

// redirect emits a redirection operator, absorbing a preceding fd number
// written without a space (2>, 10>>).
func (t *tokenizer) redirect() {
	start := t.pos
	if t.open && isDigits(t.src[t.start:t.pos]) {
		start = t.start
		t.open = false
	} else {
		t.end()
	}

	ch := t.src[t.pos]
	t.pos++
	if ch == '>' {
		switch t.peek(0) {
		case '>', '|', '&':
			t.pos++
		}
	} else {
		switch t.peek(0) {
		case '<':
			t.pos++
			if t.peek(0) == '<' || t.peek(0) == '-' {
				t.pos++
			}
		case '>', '&':
			t.pos++
		}
	}
	t.emit(TokenRedirect, start)
}

func (t *tokenizer) singleQuoted() {
	t.pos++
	end := strings.IndexByte(t.src[t.pos:], '\'')
	if end < 0 {
		t.value.WriteString(t.src[t.pos:])
		t.pos = len(t.src)
		t.broken = true
		return
	}
	t.value.WriteString(t.src[t.pos : t.pos+end])
	t.pos += end + 1
}

// ansiQuoted consumes $'...' and writes its decoded text.
func (t *tokenizer) ansiQuoted() {
	t.pos += 2
	start := t.pos
	for t.pos < len(t.src) {
		switch t.src[t.pos] {
		case '\\':
			t.pos += 2
		case '\'':
			t.value.WriteString(decodeANSIC(t.src[start:t.pos]))
			t.pos++
			return
		default:
			t.pos++
		}
	}
	t.pos = len(t.src)
	t.value.WriteString(decodeANSIC(t.src[start:]))
	t.broken = true
}

// decodeANSIC expands the backslash escapes of a $'...' body the way bash
// does. The string ends at the first NUL it produces.
func decodeANSIC(body string) string {
	if !strings.Contains(body, `\`) {
		return body
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' || i+1 >= len(body) {
			b.WriteByte(body[i])
			continue
		}
		i++
		switch e := body[i]; e {
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'e', 'E':
			b.WriteByte(0x1b)
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '\\', '\'', '"', '?':
			b.WriteByte(e)
		case 'c':
			if i+1 >= len(body) {
				b.WriteString(`\c`)
				break
			}
			i++
			b.WriteByte(body[i] & 0x1f)
		case 'x', 'u', 'U':
			limit := 2
			switch e {
			case 'u':
				limit = 4
			case 'U':
				limit = 8
			}
			v, n := digitsValue(body[i+1:], 16, limit)
			if n == 0 {
				b.WriteByte('\\')
				b.WriteByte(e)
				break
			}
			i += n
			if e == 'x' {
				b.WriteByte(byte(v))
			} else {
				b.WriteRune(rune(v))
			}
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v, n := digitsValue(body[i:], 8, 3)
			i += n - 1
			b.WriteByte(byte(v))
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	s := b.String()
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return s
}

// digitsValue reads up to limit leading digits of s in base 8 or 16.
func digitsValue(s string, base, limit int) (value, n int) {
	for n < len(s) && n < limit {
		var d int
		switch c := s[n]; {
		case c >= '0' && c <= '7':
			d = int(c - '0')
		case base == 16 && c >= '8' && c <= '9':
			d = int(c - '0')
		case base == 16 && c >= 'a' && c <= 'f':
			d = int(c-'a') + 10
		case base == 16 && c >= 'A' && c <= 'F':
			d = int(c-'A') + 10
		default:
			return value, n
		}
		value = value*base + d
		n++
	}
	return value, n
}

func (t *tokenizer) doubleQuoted() {
	t.pos++
	for t.pos < len(t.src) {
		ch := t.src[t.pos]
		switch {
		case ch == '"':
			t.pos++
			return
		case ch == '\\' && t.pos+1 < len(t.src):
			next := t.src[t.pos+1]
			switch next {
			case '$', '`', '"', '\\':
				t.value.WriteByte(next)
			case '\n':
			default:
				t.value.WriteByte('\\')
				t.value.WriteByte(next)
			}
			t.pos += 2
		case ch == '`':
			t.backtick()
		case ch == '$' && (t.peek(1) == '(' || t.peek(1) == '{'):
			t.dollar()
		default:
			t.value.WriteByte(ch)
			t.pos++
		}
	}
	t.broken = true
}

// dollar consumes $(...), $((...)) or ${...} into the current word.
func (t *tokenizer) dollar() {
	start := t.pos
	open, close := byte('('), byte(')')
	if t.peek(1) == '{' {
		open, close = '{', '}'
	}
	arith := open == '(' && t.peek(2) == '('
	end, ok := scanBalanced(t.src, t.pos+2, open, close)
	t.pos = end
	t.value.WriteString(t.src[start:end])
	if !ok {
		t.broken = true
		return
	}
	if open == '(' && !arith {
		t.substs = append(t.substs, t.src[start+2:end-1])
	}
}

func (t *tokenizer) processSubst() {
	start := t.pos
	end, ok := scanBalanced(t.src, t.pos+2, '(', ')')
	t.pos = end
	t.value.WriteString(t.src[start:end])
	if !ok {
		t.broken = true
		return
	}
	t.substs = append(t.substs, t.src[start+2:end-1])
}

func (t *tokenizer) backtick() {
	start := t.pos
	i := t.pos + 1
	for i < len(t.src) && t.src[i] != '`' {
		if t.src[i] == '\\' {
			i++
		}
		i++
	}
	if i >= len(t.src) {
		t.value.WriteString(t.src[start:])
		t.pos = len(t.src)
		t.broken = true
		return
	}
	t.value.WriteString(t.src[start : i+1])
	t.substs = append(t.substs, strings.ReplaceAll(t.src[start+1:i], "\\`", "`"))
	t.pos = i + 1
}

// scanBalanced returns the index just past the close byte matching an
// opening already consumed before i. Quotes and escapes inside are honored.
// ok is false when the input ends first.
func scanBalanced(src string, i int, open, close byte) (int, bool) {
	depth := 1
	for i < len(src) {
		switch ch := src[i]; ch {
		case '\\':
			i += 2
			continue
		case '$':
			if i+1 >= len(src) || src[i+1] != '\'' {
				break
			}
			j := i + 2
			for j < len(src) && src[j] != '\'' {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(src) {
				return len(src), false
			}
			i = j + 1
			continue
		case '\'':
			end := strings.IndexByte(src[i+1:], '\'')
			if end < 0 {
				return len(src), false
			}
			i += end + 2
			continue
		case '"':
			j := i + 1
			for j < len(src) && src[j] != '"' {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(src) {
				return len(src), false
			}
			i = j + 1
			continue
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
		i++
	}
	return len(src), false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// hasUnterminated reports whether any token was cut short by end of input.
func hasUnterminated(tokens []Token) bool {
	for _, tok := range tokens {
		if tok.Unterminated {
			return true
		}
	}
	return false
}
