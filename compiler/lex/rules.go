package lex

import (
	"bytes"
	"sync"

	"tlog.app/go/errors"
)

type (
	// Matcher reports the end of the lexeme starting at b[st].
	// end == st means no match. An error means the lexeme started but is malformed.
	Matcher func(b []byte, st int) (end int, err error)

	Rule struct {
		Kind  Kind
		Skip  bool
		Match Matcher
	}

	// Rules is an immutable token rule table.
	// Rules earlier in the table have higher priority when two rules match the same length.
	Rules struct {
		list []Rule
	}
)

var defaultRules = sync.OnceValue(func() *Rules {
	return NewRules(
		Rule{Kind: Whitespace, Skip: true, Match: Run(isSpace, isSpace)},
		Rule{Kind: LineComment, Skip: true, Match: LineCommentOf("//")},
		Rule{Kind: BlockComment, Skip: true, Match: BlockCommentOf("/*", "*/")},

		Rule{Kind: Let, Match: Literal("let")},
		Rule{Kind: Syscall, Match: Literal("syscall")},

		Rule{Kind: ParenOpen, Match: Literal("(")},
		Rule{Kind: ParenClose, Match: Literal(")")},
		Rule{Kind: BraceOpen, Match: Literal("{")},
		Rule{Kind: BraceClose, Match: Literal("}")},

		Rule{Kind: Alias, Match: Run(isLower, isAliasChar)},
		Rule{Kind: Number, Match: Run(isDigit, isDigit)},

		Rule{Kind: Assign, Match: Literal("=")},
		Rule{Kind: Add, Match: Literal("+")},
		Rule{Kind: Sub, Match: Literal("-")},
		Rule{Kind: Mul, Match: Literal("*")},
		Rule{Kind: Div, Match: Literal("/")},
		Rule{Kind: SemiColon, Match: Literal(";")},
	)
})

// DefaultRules returns the rule table of the language.
// It's built once and shared.
func DefaultRules() *Rules { return defaultRules() }

func NewRules(rules ...Rule) *Rules {
	return &Rules{
		list: append([]Rule(nil), rules...),
	}
}

func (r *Rules) Len() int { return len(r.list) }

// Match finds the longest matching rule at b[st].
// ok is false if no rule matches.
func (r *Rules) Match(b []byte, st int) (rule Rule, end int, ok bool, err error) {
	end = st

	for _, x := range r.list {
		e, err := x.Match(b, st)
		if err != nil {
			return x, e, false, err
		}

		if e > end {
			rule, end, ok = x, e, true
		}
	}

	return
}

func Literal(s string) Matcher {
	p := []byte(s)

	return func(b []byte, st int) (int, error) {
		if bytes.HasPrefix(b[st:], p) {
			return st + len(p), nil
		}

		return st, nil
	}
}

// Run matches one byte satisfying first followed by any number of bytes satisfying rest.
func Run(first, rest func(byte) bool) Matcher {
	return func(b []byte, st int) (int, error) {
		if st == len(b) || !first(b[st]) {
			return st, nil
		}

		i := st + 1

		for i < len(b) && rest(b[i]) {
			i++
		}

		return i, nil
	}
}

func LineCommentOf(open string) Matcher {
	p := []byte(open)

	return func(b []byte, st int) (int, error) {
		if !bytes.HasPrefix(b[st:], p) {
			return st, nil
		}

		i := bytes.IndexByte(b[st:], '\n')
		if i < 0 {
			return len(b), nil
		}

		return st + i, nil
	}
}

func BlockCommentOf(open, close string) Matcher {
	o, c := []byte(open), []byte(close)

	return func(b []byte, st int) (int, error) {
		if !bytes.HasPrefix(b[st:], o) {
			return st, nil
		}

		i := bytes.Index(b[st+len(o):], c)
		if i < 0 {
			return len(b), errors.New("unterminated block comment")
		}

		return st + len(o) + i + len(c), nil
	}
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAliasChar(c byte) bool { return isLower(c) || isDigit(c) || c == '_' }
