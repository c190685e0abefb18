package diag

import (
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/stackc/compiler/source"
)

type (
	// Kind classifies a compilation failure.
	// Kind is an error itself, so errors.Is(err, diag.Undeclared) works through wrapping.
	Kind int

	// Error is the single error type produced by every compilation stage.
	Error struct {
		Kind  Kind
		Pos   source.Pos
		Token string
		Msg   string
	}
)

const (
	_ Kind = iota

	// lexical
	Lexical

	// syntactic
	Syntax
	BadNumber
	UnknownSyscall

	// policy
	NoStatements

	// declaration time
	Undeclared
	Redeclared

	// codegen time
	Unimplemented
	StackOverflow
	StackUnderflow
)

var kindNames = []string{
	Lexical:        "lexical error",
	Syntax:         "syntax error",
	BadNumber:      "malformed number",
	UnknownSyscall: "unknown syscall",
	NoStatements:   "no statements found",
	Undeclared:     "undeclared alias",
	Redeclared:     "alias already declared",
	Unimplemented:  "unimplemented",
	StackOverflow:  "stack overflow",
	StackUnderflow: "stack underflow",
}

var (
	kindColor  = color.New(color.FgRed, color.Bold)
	otherColor = color.New(color.FgYellow, color.Bold)
)

func New(k Kind, pos source.Pos, tok string, f string, args ...any) *Error {
	return &Error{
		Kind:  k,
		Pos:   pos,
		Token: tok,
		Msg:   string(hfmt.Appendf(nil, f, args...)),
	}
}

// KindOf returns the Kind of the first *Error in the err chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return 0, false
	}

	return e.Kind, true
}

// Fprint writes a one-line diagnostic for err.
// Compiler errors are highlighted, anything else is reported as an internal error.
func Fprint(w io.Writer, err error) (int, error) {
	var b []byte

	if _, ok := KindOf(err); ok {
		b = append(b, kindColor.Sprint("error:")...)
	} else {
		b = append(b, otherColor.Sprint("error:")...)
	}

	b = append(b, ' ')
	b = append(b, err.Error()...)
	b = append(b, '\n')

	return w.Write(b)
}

func (e *Error) Error() string {
	var b []byte

	if e.Pos.IsValid() {
		b = append(b, e.Pos.String()...)
		b = append(b, ": "...)
	}

	b = append(b, e.Kind.String()...)

	if e.Msg != "" {
		b = append(b, ": "...)
		b = append(b, e.Msg...)
	}

	if e.Token != "" {
		b = append(b, " (token "...)
		b = strconv.AppendQuote(b, e.Token)
		b = append(b, ')')
	}

	return string(b)
}

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)

	return ok && k == e.Kind
}

func (k Kind) Error() string { return k.String() }

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}
