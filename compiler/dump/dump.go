package dump

import (
	"encoding/json"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"tlog.app/go/errors"

	"github.com/slowlang/stackc/compiler/ast"
)

type (
	Format string

	// Node is a single-key map from the variant name to its payload.
	Node = map[string]any
)

const (
	JSON    Format = "json"
	Msgpack Format = "msgpack"
)

// ParseFormat checks the format name. Empty name means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return JSON, nil
	case JSON, Msgpack:
		return f, nil
	default:
		return "", errors.New("unknown ast format: %q", s)
	}
}

// Ext is the file extension for the format.
func (f Format) Ext() string {
	if f == Msgpack {
		return ".msgpack"
	}

	return ".json"
}

// Encode writes the tree of x in the given format.
func Encode(w io.Writer, x *ast.Program, f Format) error {
	t, err := Tree(x)
	if err != nil {
		return errors.Wrap(err, "build tree")
	}

	switch f {
	case JSON, "":
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")

		err = e.Encode(t)
	case Msgpack:
		err = msgpack.NewEncoder(w).Encode(t)
	default:
		return errors.New("unknown ast format: %q", f)
	}

	if err != nil {
		return errors.Wrap(err, "encode %v", f)
	}

	return nil
}

// Tree converts the AST into nested maps and slices
// keyed by the AST variant names.
func Tree(x *ast.Program) (any, error) {
	stmts := make([]any, len(x.Stmts))

	for i, s := range x.Stmts {
		n, err := stmt(s)
		if err != nil {
			return nil, errors.Wrap(err, "statement %d", i+1)
		}

		stmts[i] = n
	}

	return Node{"Program": stmts}, nil
}

func stmt(s ast.Stmt) (any, error) {
	switch s := s.(type) {
	case *ast.Let:
		v, err := expr(s.Value)
		if err != nil {
			return nil, errors.Wrap(err, "let %v", s.Alias)
		}

		return Node{"Let": []any{s.Alias, v}}, nil
	case *ast.SystemCall:
		switch c := s.Call.(type) {
		case *ast.Exit:
			v, err := expr(c.Code)
			if err != nil {
				return nil, errors.Wrap(err, "exit")
			}

			return Node{"SystemCall": Node{"Exit": v}}, nil
		default:
			return nil, errors.New("unsupported syscall: %T", c)
		}
	default:
		return nil, errors.New("unsupported stmt: %T", s)
	}
}

func expr(e ast.Expr) (any, error) {
	switch e := e.(type) {
	case *ast.Alias:
		return Node{"Term": Node{"Alias": e.Name}}, nil
	case *ast.Literal:
		v, err := value(e.Value)
		if err != nil {
			return nil, err
		}

		return Node{"Term": Node{"Literal": v}}, nil
	case *ast.BinaryOp:
		l, err := expr(e.Left)
		if err != nil {
			return nil, errors.Wrap(err, "left")
		}

		r, err := expr(e.Right)
		if err != nil {
			return nil, errors.Wrap(err, "right")
		}

		return Node{"BinaryOp": []any{e.Op.Name(), l, r}}, nil
	default:
		return nil, errors.New("unsupported expr: %T", e)
	}
}

func value(v ast.Value) (any, error) {
	switch v := v.(type) {
	case ast.U32:
		return Node{"U32": uint32(v)}, nil
	case ast.F64:
		return Node{"F64": float64(v)}, nil
	case ast.String:
		return Node{"String": string(v)}, nil
	case ast.Boolean:
		return Node{"Boolean": bool(v)}, nil
	default:
		return nil, errors.New("unsupported literal: %T", v)
	}
}
