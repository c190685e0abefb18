package format

import (
	"context"
	"strconv"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/stackc/compiler/ast"
)

const indent = "  "

// Format appends the human readable rendering of x to b.
func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	return format(ctx, b, x, 0)
}

func format(ctx context.Context, b []byte, x any, d int) ([]byte, error) {
	switch x := x.(type) {
	case *ast.Program:
		return formatProgram(ctx, b, x, d)
	case ast.Stmt:
		return formatStmt(ctx, b, x, d)
	case ast.Expr:
		return formatExpr(ctx, b, x)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatProgram(ctx context.Context, b []byte, x *ast.Program, d int) (_ []byte, err error) {
	b = app(b, d, "PROGRAM\n")

	for i, s := range x.Stmts {
		b, err = formatStmt(ctx, b, s, d+1)
		if err != nil {
			return nil, errors.Wrap(err, "statement %d", i+1)
		}
	}

	return b, nil
}

func formatStmt(ctx context.Context, b []byte, x ast.Stmt, d int) (_ []byte, err error) {
	switch x := x.(type) {
	case *ast.Let:
		b = app(b, d, "LET %s = ", x.Alias)

		b, err = formatExpr(ctx, b, x.Value)
		if err != nil {
			return nil, errors.Wrap(err, "let %v", x.Alias)
		}
	case *ast.SystemCall:
		b = app(b, d, "SYSCALL ")

		switch c := x.Call.(type) {
		case *ast.Exit:
			b = append(b, "EXIT "...)

			b, err = formatExpr(ctx, b, c.Code)
			if err != nil {
				return nil, errors.Wrap(err, "exit")
			}
		default:
			return nil, errors.New("unsupported syscall: %T", c)
		}
	default:
		return nil, errors.New("unsupported stmt: %T", x)
	}

	b = append(b, ";\n"...)

	return b, nil
}

func formatExpr(ctx context.Context, b []byte, x ast.Expr) (_ []byte, err error) {
	switch x := x.(type) {
	case *ast.Alias:
		b = append(b, x.Name...)
	case *ast.Literal:
		b, err = formatValue(b, x.Value)
		if err != nil {
			return nil, err
		}
	case *ast.BinaryOp:
		b = append(b, '(')

		b, err = formatExpr(ctx, b, x.Left)
		if err != nil {
			return nil, errors.Wrap(err, "left")
		}

		b = hfmt.Appendf(b, " %v ", x.Op)

		b, err = formatExpr(ctx, b, x.Right)
		if err != nil {
			return nil, errors.Wrap(err, "right")
		}

		b = append(b, ')')
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}

	return b, nil
}

func formatValue(b []byte, v ast.Value) ([]byte, error) {
	switch v := v.(type) {
	case ast.U32:
		return strconv.AppendUint(b, uint64(v), 10), nil
	case ast.F64:
		return strconv.AppendFloat(b, float64(v), 'g', -1, 64), nil
	case ast.String:
		return strconv.AppendQuote(b, string(v)), nil
	case ast.Boolean:
		return strconv.AppendBool(b, bool(v)), nil
	default:
		return nil, errors.New("unsupported literal: %T", v)
	}
}

func app(b []byte, d int, f string, args ...any) []byte {
	for i := 0; i < d; i++ {
		b = append(b, indent...)
	}

	return hfmt.Appendf(b, f, args...)
}
