package lex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/slowlang/stackc/compiler/diag"
	"github.com/slowlang/stackc/compiler/source"
)

func kinds(t *testing.T, text string) (r []Kind) {
	t.Helper()

	l := New(nil, []byte(text))

	for {
		tk, err := l.Next()
		require.NoError(t, err)

		if tk.Kind == EOF {
			return r
		}

		r = append(r, tk.Kind)
	}
}

func TestTokens(t *testing.T) {
	for _, tc := range []struct {
		text string
		exp  []Kind
	}{
		{"", nil},
		{"  \n\t ", nil},
		{"let x = 5;", []Kind{Let, Alias, Assign, Number, SemiColon}},
		{"syscall exit x;", []Kind{Syscall, Alias, Alias, SemiColon}},
		{"a+b-c*d/e", []Kind{Alias, Add, Alias, Sub, Alias, Mul, Alias, Div, Alias}},
		{"(){}", []Kind{ParenOpen, ParenClose, BraceOpen, BraceClose}},
		{"letter lets let_x let", []Kind{Alias, Alias, Alias, Let}},
		{"syscalls syscall", []Kind{Alias, Syscall}},
		{"x1_y2 007", []Kind{Alias, Number}},
		{"5x", []Kind{Number, Alias}},
		{"let // comment ; let\nx", []Kind{Let, Alias}},
		{"let /* block\n comment */ x", []Kind{Let, Alias}},
		{"a / b // tail", []Kind{Alias, Div, Alias}},
		{"a/**/b", []Kind{Alias, Alias}},
	} {
		assert.Equal(t, tc.exp, kinds(t, tc.text), "%q", tc.text)
	}
}

func TestPositions(t *testing.T) {
	l := New(nil, []byte("let x = 5;\n  syscall exit x;"))

	var toks []Token

	for {
		tk, err := l.Next()
		require.NoError(t, err)

		toks = append(toks, tk)

		if tk.Kind == EOF {
			break
		}
	}

	require.Len(t, toks, 10)

	assert.Equal(t, source.Pos{Offset: 0, Line: 1, Col: 1}, toks[0].Pos)
	assert.Equal(t, source.Pos{Offset: 8, Line: 1, Col: 9}, toks[3].Pos)
	assert.Equal(t, "5", string(toks[3].Text))
	assert.Equal(t, source.Pos{Offset: 13, Line: 2, Col: 3}, toks[5].Pos)
	assert.Equal(t, "syscall", string(toks[5].Text))
	assert.Equal(t, EOF, toks[9].Kind)
}

func TestPeek(t *testing.T) {
	l := New(nil, []byte("let x"))

	tk, err := l.Peek()
	require.NoError(t, err)
	assert.Equal(t, Let, tk.Kind)

	tk, err = l.Peek()
	require.NoError(t, err)
	assert.Equal(t, Let, tk.Kind)

	tk, err = l.Next()
	require.NoError(t, err)
	assert.Equal(t, Let, tk.Kind)
	assert.Equal(t, "let", string(l.Slice()))

	tk, err = l.Peek()
	require.NoError(t, err)
	assert.Equal(t, Alias, tk.Kind)
	assert.Equal(t, "let", string(l.Slice()), "peek must not change the current token")

	tk, err = l.Next()
	require.NoError(t, err)
	assert.Equal(t, "x", string(tk.Text))
	assert.Equal(t, source.Pos{Offset: 4, Line: 1, Col: 5}, l.Pos())

	for i := 0; i < 3; i++ {
		tk, err = l.Next()
		require.NoError(t, err)
		assert.Equal(t, EOF, tk.Kind)
	}
}

func TestLexicalErrors(t *testing.T) {
	for _, tc := range []struct {
		text string
		pos  source.Pos
	}{
		{"let X = 1;", source.Pos{Offset: 4, Line: 1, Col: 5}},
		{"let x = 1 % 2;", source.Pos{Offset: 10, Line: 1, Col: 11}},
		{"\n  @", source.Pos{Offset: 3, Line: 2, Col: 3}},
		{"let /* never closed", source.Pos{Offset: 4, Line: 1, Col: 5}},
	} {
		l := New(nil, []byte(tc.text))

		var err error
		for err == nil {
			var tk Token

			tk, err = l.Next()
			if err == nil && tk.Kind == EOF {
				break
			}
		}

		require.Error(t, err, "%q", tc.text)
		assert.True(t, errors.Is(err, diag.Lexical), "%q: %v", tc.text, err)

		var e *diag.Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, tc.pos, e.Pos, "%q", tc.text)
	}
}

func TestPeekError(t *testing.T) {
	l := New(nil, []byte("#"))

	_, err := l.Peek()
	require.Error(t, err)

	_, err = l.Next()
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.Lexical))
}

func TestCustomRules(t *testing.T) {
	r := NewRules(
		Rule{Kind: Whitespace, Skip: true, Match: Literal(" ")},
		Rule{Kind: Number, Match: Run(isDigit, isDigit)},
	)

	assert.Equal(t, 2, r.Len())

	l := New(r, []byte("12 34"))

	tk, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, "12", string(tk.Text))

	tk, err = l.Next()
	require.NoError(t, err)
	assert.Equal(t, "34", string(tk.Text))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, ";", SemiColon.String())
	assert.Equal(t, "alias", Alias.String())
	assert.Equal(t, "Kind(100)", Kind(100).String())
	assert.Equal(t, `number "5"`, Token{Kind: Number, Text: []byte("5")}.String())
	assert.Equal(t, "EOF", Token{}.String())
}
