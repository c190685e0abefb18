package parse

import (
	"context"
	"os"
	"strconv"

	"fortio.org/safecast"
	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/stackc/compiler/ast"
	"github.com/slowlang/stackc/compiler/diag"
	"github.com/slowlang/stackc/compiler/lex"
	"github.com/slowlang/stackc/compiler/source"
)

type (
	// Parser is a recursive descent parser pulling tokens from a Lexer on demand.
	Parser struct {
		l *lex.Lexer
	}
)

func ParseFile(ctx context.Context, name string) (*ast.Program, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	return Parse(ctx, name, text)
}

func Parse(ctx context.Context, name string, text []byte) (x *ast.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "parse", "name", name, "size", len(text))
	defer tr.Finish("err", &err)

	return New(lex.New(lex.DefaultRules(), text)).Program(ctx)
}

func New(l *lex.Lexer) *Parser {
	return &Parser{l: l}
}

// Program parses the whole token stream.
func (p *Parser) Program(ctx context.Context) (x *ast.Program, err error) {
	x = &ast.Program{Base: ast.Base{Pos: source.Start()}}

	for {
		tk, err := p.next(ctx)
		if err != nil {
			return nil, err
		}

		if tk.Kind == lex.EOF {
			if len(x.Stmts) == 0 {
				return nil, diag.New(diag.NoStatements, tk.Pos, "", "program is empty")
			}

			return x, nil
		}

		s, err := p.statement(ctx, tk)
		if err != nil {
			return nil, errors.Wrap(err, "statement %d", len(x.Stmts)+1)
		}

		if tr := tlog.SpanFromContext(ctx); tr.If("parse") {
			tr.Printw("statement", "pos", tk.Pos, "typ", tlog.NextAsType, s, "stmt", s)
		}

		x.Stmts = append(x.Stmts, s)
	}
}

func (p *Parser) statement(ctx context.Context, tk lex.Token) (s ast.Stmt, err error) {
	switch tk.Kind {
	case lex.Let:
		s, err = p.assign(ctx, tk)
	case lex.Syscall:
		s, err = p.syscall(ctx, tk)
	default:
		return nil, diag.New(diag.Syntax, tk.Pos, string(tk.Text), "unexpected statement %v", tk.Kind)
	}

	if err != nil {
		return nil, err
	}

	_, err = p.expect(ctx, lex.SemiColon)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (p *Parser) assign(ctx context.Context, let lex.Token) (_ ast.Stmt, err error) {
	tk, err := p.expect(ctx, lex.Alias)
	if err != nil {
		return nil, errors.Wrap(err, "let")
	}

	alias := string(tk.Text)

	_, err = p.expect(ctx, lex.Assign)
	if err != nil {
		return nil, errors.Wrap(err, "let %v", alias)
	}

	v, err := p.expression(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "let %v", alias)
	}

	return &ast.Let{
		Base:  ast.Base{Pos: let.Pos},
		Alias: alias,
		Value: v,
	}, nil
}

func (p *Parser) syscall(ctx context.Context, sc lex.Token) (_ ast.Stmt, err error) {
	tk, err := p.expect(ctx, lex.Alias)
	if err != nil {
		return nil, errors.Wrap(err, "syscall")
	}

	name, ok := ast.LookupSysName(string(tk.Text))
	if !ok {
		return nil, diag.New(diag.UnknownSyscall, tk.Pos, string(tk.Text), "unknown syscall")
	}

	var call ast.SysCall

	switch name {
	case ast.SysExit:
		code, err := p.expression(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "syscall %v", name)
		}

		call = &ast.Exit{
			Base: ast.Base{Pos: tk.Pos},
			Code: code,
		}
	default:
		return nil, diag.New(diag.UnknownSyscall, tk.Pos, string(tk.Text), "unsupported syscall")
	}

	return &ast.SystemCall{
		Base: ast.Base{Pos: sc.Pos},
		Call: call,
	}, nil
}

// expression is right recursive with no precedence: a - b + c is a - (b + c).
func (p *Parser) expression(ctx context.Context) (ast.Expr, error) {
	left, err := p.term(ctx)
	if err != nil {
		return nil, err
	}

	tk, err := p.l.Peek()
	if err != nil {
		return nil, err
	}

	var op ast.Op

	switch tk.Kind {
	case lex.Add:
		op = ast.Add
	case lex.Sub:
		op = ast.Sub
	case lex.Mul:
		op = ast.Mul
	case lex.Div:
		op = ast.Div
	case lex.SemiColon:
		return left, nil
	default:
		return nil, diag.New(diag.Syntax, tk.Pos, string(tk.Text), "unexpected %v in expression", tk.Kind)
	}

	optk, err := p.next(ctx)
	if err != nil {
		return nil, err
	}

	right, err := p.expression(ctx)
	if err != nil {
		return nil, err
	}

	return &ast.BinaryOp{
		Base:  ast.Base{Pos: optk.Pos},
		Op:    op,
		Left:  left,
		Right: right,
	}, nil
}

func (p *Parser) term(ctx context.Context) (ast.Term, error) {
	tk, err := p.next(ctx)
	if err != nil {
		return nil, err
	}

	switch tk.Kind {
	case lex.Number:
		v, err := parseU32(tk)
		if err != nil {
			return nil, err
		}

		return &ast.Literal{
			Base:  ast.Base{Pos: tk.Pos},
			Value: v,
		}, nil
	case lex.Alias:
		return &ast.Alias{
			Base: ast.Base{Pos: tk.Pos},
			Name: string(tk.Text),
		}, nil
	default:
		return nil, diag.New(diag.Syntax, tk.Pos, string(tk.Text), "unexpected %v in expression", tk.Kind)
	}
}

func (p *Parser) expect(ctx context.Context, k lex.Kind) (lex.Token, error) {
	tk, err := p.next(ctx)
	if err != nil {
		return tk, err
	}

	if tk.Kind != k {
		return tk, diag.New(diag.Syntax, tk.Pos, string(tk.Text), "expected %v, got %v", k, tk.Kind)
	}

	return tk, nil
}

func (p *Parser) next(ctx context.Context) (tk lex.Token, err error) {
	if tr := tlog.SpanFromContext(ctx); tr.If("next_token") {
		defer func() {
			tr.Printw("next token", "tk", tk, "pos", tk.Pos, "err", err, "from", loc.Callers(1, 3))
		}()
	}

	return p.l.Next()
}

func parseU32(tk lex.Token) (ast.U32, error) {
	v, err := strconv.ParseUint(string(tk.Text), 10, 64)
	if err != nil {
		return 0, diag.New(diag.BadNumber, tk.Pos, string(tk.Text), "%v", err)
	}

	x, err := safecast.Conv[uint32](v)
	if err != nil {
		return 0, diag.New(diag.BadNumber, tk.Pos, string(tk.Text), "does not fit into u32")
	}

	return ast.U32(x), nil
}
