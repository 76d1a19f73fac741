package main

// Redirect is a redirection operator and the word it applies to.
type Redirect struct {
	Op     string
	Target Token
}

// Subcommand is one simple command between control operators.
type Subcommand struct {
	Words      []Token
	Terminator string // operator that closed it, "" at end of input
	Redirects  []Redirect
}

// Split groups tokens into subcommands at every control operator.
// Subcommands with neither words nor redirections are dropped. Every branch of && and || is kept:
// the guard cannot know which one will run.
func Split(tokens []Token) []Subcommand {
	var subs []Subcommand
	var cur Subcommand

	flush := func(terminator string) {
		if len(cur.Words) > 0 || len(cur.Redirects) > 0 {
			cur.Terminator = terminator
			subs = append(subs, cur)
		}
		cur = Subcommand{}
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.Kind {
		case TokenOperator:
			flush(tok.Value)
		case TokenRedirect:
			r := Redirect{Op: tok.Value}
			if i+1 < len(tokens) && tokens[i+1].Kind == TokenWord {
				r.Target = tokens[i+1]
				i++
			}
			cur.Redirects = append(cur.Redirects, r)
		default:
			cur.Words = append(cur.Words, tok)
		}
	}
	flush("")

	return subs
}
