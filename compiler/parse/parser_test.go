package parse

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/slowlang/stackc/compiler/ast"
	"github.com/slowlang/stackc/compiler/diag"
	"github.com/slowlang/stackc/compiler/source"
)

func parse(t *testing.T, text string) (*ast.Program, error) {
	t.Helper()

	return Parse(context.Background(), "test.x", []byte(text))
}

func TestLetAndExit(t *testing.T) {
	x, err := parse(t, "let x = 5; syscall exit x;")
	require.NoError(t, err)
	require.Len(t, x.Stmts, 2)

	let, ok := x.Stmts[0].(*ast.Let)
	require.True(t, ok, "%T", x.Stmts[0])
	assert.Equal(t, "x", let.Alias)
	assert.Equal(t, source.Pos{Offset: 0, Line: 1, Col: 1}, let.Position())

	lit, ok := let.Value.(*ast.Literal)
	require.True(t, ok, "%T", let.Value)
	assert.Equal(t, ast.U32(5), lit.Value)

	sc, ok := x.Stmts[1].(*ast.SystemCall)
	require.True(t, ok, "%T", x.Stmts[1])

	exit, ok := sc.Call.(*ast.Exit)
	require.True(t, ok, "%T", sc.Call)

	al, ok := exit.Code.(*ast.Alias)
	require.True(t, ok, "%T", exit.Code)
	assert.Equal(t, "x", al.Name)
	assert.Equal(t, source.Pos{Offset: 24, Line: 1, Col: 25}, al.Position())
}

// Chains are right associative and have no precedence.
func TestRightAssociative(t *testing.T) {
	x, err := parse(t, "let r = a - b + c * d;")
	require.NoError(t, err)

	e := x.Stmts[0].(*ast.Let).Value

	top, ok := e.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.Sub, top.Op)
	assert.Equal(t, "a", top.Left.(*ast.Alias).Name)

	mid, ok := top.Right.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.Add, mid.Op)
	assert.Equal(t, "b", mid.Left.(*ast.Alias).Name)

	low, ok := mid.Right.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.Mul, low.Op)
	assert.Equal(t, "c", low.Left.(*ast.Alias).Name)
	assert.Equal(t, "d", low.Right.(*ast.Alias).Name)
}

func TestComments(t *testing.T) {
	x, err := parse(t, `
// the answer
let x = 40; /* plus */ let y = x + 2;
syscall exit y; // done
`)
	require.NoError(t, err)
	assert.Len(t, x.Stmts, 3)
}

func TestErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		text string
		kind diag.Kind
		tok  string
	}{
		{"empty", "", diag.NoStatements, ""},
		{"only_comments", "// nothing\n/* here */", diag.NoStatements, ""},
		{"bad_statement", "x = 5;", diag.Syntax, "x"},
		{"number_statement", "5;", diag.Syntax, "5"},
		{"unknown_syscall", "syscall quit 1;", diag.UnknownSyscall, "quit"},
		{"syscall_no_name", "syscall 1;", diag.Syntax, "1"},
		{"missing_terminator", "let x = 5", diag.Syntax, ""},
		{"missing_terminator_between", "let x = 5 let y = 6;", diag.Syntax, "let"},
		{"missing_assign", "let x 5;", diag.Syntax, "5"},
		{"missing_alias", "let = 5;", diag.Syntax, "="},
		{"keyword_alias", "let let = 5;", diag.Syntax, "let"},
		{"dangling_operator", "let x = 5 +;", diag.Syntax, ";"},
		{"double_operator", "let x = 5 + + 1;", diag.Syntax, "+"},
		{"paren", "let x = (5);", diag.Syntax, "("},
		{"two_terms", "syscall exit 1 2;", diag.Syntax, "2"},
		{"overflow", "let x = 4294967296;", diag.BadNumber, "4294967296"},
		{"huge", "let x = 99999999999999999999999;", diag.BadNumber, "99999999999999999999999"},
		{"lexical", "let x = 1; let Y = 2;", diag.Lexical, "Y"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parse(t, tc.text)
			require.Error(t, err)

			assert.True(t, errors.Is(err, tc.kind), "want %v, got %v", tc.kind, err)

			var e *diag.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, tc.tok, e.Token)
			assert.True(t, e.Pos.IsValid())
		})
	}
}

func TestMaxU32(t *testing.T) {
	x, err := parse(t, "syscall exit 4294967295;")
	require.NoError(t, err)

	code := x.Stmts[0].(*ast.SystemCall).Call.(*ast.Exit).Code
	assert.Equal(t, ast.U32(4294967295), code.(*ast.Literal).Value)
}

func TestParseFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "code.x")
	require.NoError(t, os.WriteFile(name, []byte("syscall exit 100;"), 0o644))

	x, err := ParseFile(context.Background(), name)
	require.NoError(t, err)
	assert.Len(t, x.Stmts, 1)

	_, err = ParseFile(context.Background(), filepath.Join(t.TempDir(), "missing.x"))
	assert.Error(t, err)
}
