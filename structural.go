package main

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// parseBash parses src as a bash program. It returns nil when src does not
// parse; the token pass then stands alone.
func parseBash(src string) (file *syntax.File) {
	defer func() {
		if recover() != nil {
			file = nil
		}
	}()

	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(syntax.LangBash))
	f, err := parser.Parse(strings.NewReader(src), "")
	if err != nil {
		return nil
	}
	return f
}

// structural feeds every simple command of the syntax tree through the same
// analysis as the token pass. This reaches commands inside if/while bodies,
// functions, subshells and substitutions.
func (a *analysis) structural(src string, sc scope, depth int) {
	file := parseBash(src)
	if file == nil {
		return
	}

	printer := syntax.NewPrinter()
	syntax.Walk(file, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		args := make([]Token, 0, len(call.Args))
		for _, w := range call.Args {
			args = append(args, wordToken(printer, w))
		}
		a.command(args, sc, depth)
		return true
	})
}

// wordToken converts a syntax word into the token form the analysis uses.
// Raw is the word as printed; Value drops quoting and keeps expansions in
// source form, so the resolver still sees $, backticks and $(.
func wordToken(printer *syntax.Printer, w *syntax.Word) Token {
	var raw strings.Builder
	if err := printer.Print(&raw, w); err != nil {
		raw.Reset()
	}
	var value strings.Builder
	for _, part := range w.Parts {
		writePart(printer, &value, part, false)
	}
	return Token{Kind: TokenWord, Value: value.String(), Raw: raw.String()}
}

func writePart(printer *syntax.Printer, b *strings.Builder, part syntax.WordPart, quoted bool) {
	switch p := part.(type) {
	case *syntax.Lit:
		b.WriteString(unescapeLit(p.Value, quoted))
	case *syntax.SglQuoted:
		if p.Dollar {
			b.WriteString(decodeANSIC(p.Value))
		} else {
			b.WriteString(p.Value)
		}
	case *syntax.DblQuoted:
		for _, inner := range p.Parts {
			writePart(printer, b, inner, true)
		}
	default:
		// ParamExp, CmdSubst, ArithmExp, ProcSubst, ExtGlob
		if err := printer.Print(b, &syntax.Word{Parts: []syntax.WordPart{part}}); err != nil {
			b.WriteString("$?")
		}
	}
}

// unescapeLit removes backslash escapes the way the shell would. Inside
// double quotes only $ ` " \ and newline are escapable.
func unescapeLit(s string, quoted bool) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		next := s[i+1]
		switch {
		case next == '\n':
		case !quoted, strings.IndexByte("$`\"\\", next) >= 0:
			b.WriteByte(next)
		default:
			b.WriteByte('\\')
			b.WriteByte(next)
		}
		i++
	}
	return b.String()
}
