package lex

import (
	"strconv"

	"github.com/slowlang/stackc/compiler/diag"
	"github.com/slowlang/stackc/compiler/source"
)

type (
	Kind int

	Token struct {
		Kind Kind
		Pos  source.Pos
		Text []byte
	}

	// Lexer produces tokens lazily, one at a time.
	// Skipped kinds (spaces and comments) never leave the Lexer.
	Lexer struct {
		rules *Rules
		b     []byte

		i   int
		pos source.Pos

		cur Token

		peeked  bool
		peek    Token
		peekEnd int
		peekPos source.Pos
		peekErr error
	}
)

const (
	EOF Kind = iota

	Whitespace
	LineComment
	BlockComment

	Let
	Syscall

	ParenOpen
	ParenClose
	BraceOpen
	BraceClose

	Alias
	Number

	Assign
	Add
	Sub
	Mul
	Div
	SemiColon
)

var kindNames = []string{
	EOF:          "EOF",
	Whitespace:   "whitespace",
	LineComment:  "line comment",
	BlockComment: "block comment",
	Let:          "let",
	Syscall:      "syscall",
	ParenOpen:    "(",
	ParenClose:   ")",
	BraceOpen:    "{",
	BraceClose:   "}",
	Alias:        "alias",
	Number:       "number",
	Assign:       "=",
	Add:          "+",
	Sub:          "-",
	Mul:          "*",
	Div:          "/",
	SemiColon:    ";",
}

func New(rules *Rules, text []byte) *Lexer {
	if rules == nil {
		rules = DefaultRules()
	}

	return &Lexer{
		rules: rules,
		b:     text,
		pos:   source.Start(),
	}
}

// Next consumes and returns the next significant token.
// At the end of input it returns an EOF token, as many times as asked.
func (l *Lexer) Next() (tk Token, err error) {
	if l.peeked {
		l.peeked = false

		if l.peekErr != nil {
			return Token{}, l.peekErr
		}

		l.cur, l.i, l.pos = l.peek, l.peekEnd, l.peekPos

		return l.cur, nil
	}

	tk, l.i, l.pos, err = l.scan(l.i, l.pos)
	if err != nil {
		return Token{}, err
	}

	l.cur = tk

	return tk, nil
}

// Peek returns the next significant token without consuming it.
func (l *Lexer) Peek() (Token, error) {
	if !l.peeked {
		l.peek, l.peekEnd, l.peekPos, l.peekErr = l.scan(l.i, l.pos)
		l.peeked = true
	}

	return l.peek, l.peekErr
}

// Slice returns the text of the last token returned by Next.
func (l *Lexer) Slice() []byte { return l.cur.Text }

// Pos returns the position of the last token returned by Next.
func (l *Lexer) Pos() source.Pos { return l.cur.Pos }

func (l *Lexer) scan(i int, pos source.Pos) (tk Token, _ int, _ source.Pos, err error) {
	for {
		if i == len(l.b) {
			return Token{Kind: EOF, Pos: pos}, i, pos, nil
		}

		r, end, ok, err := l.rules.Match(l.b, i)
		if err != nil {
			return Token{}, i, pos, diag.New(diag.Lexical, pos, string(l.b[i:min(end, i+2)]), "%v", err)
		}

		if !ok {
			return Token{}, i, pos, diag.New(diag.Lexical, pos, string(l.b[i:i+1]), "unexpected character")
		}

		text := l.b[i:end]
		next := pos.Advance(text)

		if r.Skip {
			i, pos = end, next
			continue
		}

		return Token{Kind: r.Kind, Pos: pos, Text: text}, end, next, nil
	}
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

func (t Token) String() string {
	if t.Kind == EOF || len(t.Text) == 0 {
		return t.Kind.String()
	}

	return t.Kind.String() + " " + strconv.Quote(string(t.Text))
}
