package back

import (
	"context"
	"strconv"
	"time"

	"fortio.org/safecast"
	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/stackc/compiler/asm"
	"github.com/slowlang/stackc/compiler/ast"
	"github.com/slowlang/stackc/compiler/diag"
	"github.com/slowlang/stackc/compiler/set"
)

type (
	Options struct {
		// MaxStack is the max number of live stack slots.
		MaxStack int

		// DefaultExit appends exit(0) after the program statements.
		DefaultExit bool

		// Now is used for the header timestamp. time.Now if nil.
		Now func() time.Time
	}

	// Compiler lowers an AST to x86-64 assembly text
	// evaluating expressions on the machine stack.
	Compiler struct {
		Options

		b []byte

		vars  map[string]Var
		bound set.Bitmap

		depth int
		stats Stats
	}

	// Var is a symbol table entry.
	Var struct {
		// Slot is the stack depth at the moment of declaration.
		Slot int
	}

	Stats struct {
		Pushes   int
		Pops     int
		Depth    int
		MaxDepth int
		Vars     int
	}
)

const DefaultMaxStack = 100

func DefaultOptions() Options {
	return Options{
		MaxStack:    DefaultMaxStack,
		DefaultExit: true,
	}
}

func New(opts Options) *Compiler {
	if opts.MaxStack <= 0 {
		opts.MaxStack = DefaultMaxStack
	}

	return &Compiler{
		Options: opts,
	}
}

// CompileProgram generates the assembly text for x.
// Nothing is returned if any error occurs.
func (c *Compiler) CompileProgram(ctx context.Context, x *ast.Program) (obj []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: compile program", "stmts", len(x.Stmts), "max_stack", c.MaxStack)
	defer tr.Finish("err", &err)

	c.reset()

	if len(x.Stmts) == 0 {
		return nil, diag.New(diag.NoStatements, x.Pos, "", "program is empty")
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	ts := now()

	c.b = hfmt.Appendf(c.b, "; generated %s / %s\n\n", ts.Format("15:04:05"), ts.Format("_2 Jan 2006"))
	c.b = hfmt.Appendf(c.b, "global %s\n%s:\n", asm.EntryPoint, asm.EntryPoint)

	for i, s := range x.Stmts {
		err = c.statement(ctx, s)
		if err != nil {
			return nil, errors.Wrap(err, "statement %d", i+1)
		}
	}

	if c.DefaultExit {
		err = c.statement(ctx, defaultExit())
		if err != nil {
			return nil, errors.Wrap(err, "default exit")
		}
	}

	c.stats.Depth = c.depth
	c.stats.Vars = c.bound.Size()

	if tr.If("dump_vars") {
		names := make(map[int]string, len(c.vars))
		for name, v := range c.vars {
			names[v.Slot] = name
		}

		c.bound.Range(func(slot int) bool {
			tr.Printw("var", "slot", slot, "alias", names[slot], "offset", (c.depth-slot-1)*asm.WordSize)
			return true
		})
	}

	if tr.If("dump_asm") {
		tr.Printw("assembly", "text", c.b)
	}

	tr.Printw("generated", "size", len(c.b), "pushes", c.stats.Pushes, "pops", c.stats.Pops, "max_depth", c.stats.MaxDepth)

	return c.b, nil
}

// Stats returns counters of the last CompileProgram call.
func (c *Compiler) Stats() Stats { return c.stats }

// Lookup returns the symbol table entry of the last compiled program.
func (c *Compiler) Lookup(alias string) (Var, bool) {
	v, ok := c.vars[alias]
	return v, ok
}

func (c *Compiler) reset() {
	c.b = nil
	c.vars = make(map[string]Var)
	c.bound.Reset()
	c.depth = 0
	c.stats = Stats{}
}

func (c *Compiler) statement(ctx context.Context, s ast.Stmt) (err error) {
	switch s := s.(type) {
	case *ast.Let:
		err = c.let(ctx, s)
	case *ast.SystemCall:
		err = c.syscall(ctx, s)
	default:
		return diag.New(diag.Unimplemented, s.Position(), "", "statement %T", s)
	}

	if err != nil {
		return err
	}

	c.b = append(c.b, '\n')

	return nil
}

// let records the alias at the current depth, which is exactly
// where the value of the expression lands.
// The alias becomes visible after its own value, so let x = x is an error.
func (c *Compiler) let(ctx context.Context, s *ast.Let) error {
	if v, ok := c.vars[s.Alias]; ok {
		return diag.New(diag.Redeclared, s.Pos, s.Alias, "alias %q already declared at slot %d", s.Alias, v.Slot)
	}

	v := Var{Slot: c.depth}

	if c.bound.IsSet(v.Slot) {
		return errors.New("slot %d of %v is already bound", v.Slot, s.Alias)
	}

	err := c.expr(ctx, s.Value)
	if err != nil {
		return errors.Wrap(err, "let %v", s.Alias)
	}

	c.vars[s.Alias] = v
	c.bound.Set(v.Slot)

	return nil
}

func (c *Compiler) syscall(ctx context.Context, s *ast.SystemCall) error {
	switch call := s.Call.(type) {
	case *ast.Exit:
		err := c.expr(ctx, call.Code)
		if err != nil {
			return errors.Wrap(err, "exit code")
		}

		return c.emit(call,
			asm.Pop{Dst: asm.RDI},
			asm.Mov{Dst: asm.RAX, Imm: asm.SysExit},
			asm.Syscall{},
		)
	default:
		return diag.New(diag.Unimplemented, s.Pos, "", "syscall %T", call)
	}
}

// expr leaves exactly one value on top of the stack.
func (c *Compiler) expr(ctx context.Context, e ast.Expr) error {
	switch e := e.(type) {
	case *ast.Literal:
		return c.literal(ctx, e)
	case *ast.Alias:
		v, ok := c.vars[e.Name]
		if !ok {
			return diag.New(diag.Undeclared, e.Pos, e.Name, "alias %q is not declared", e.Name)
		}

		off, err := c.offset(v)
		if err != nil {
			return errors.Wrap(err, "offset of %v", e.Name)
		}

		return c.emit(e, asm.Push{Src: asm.Mem{Base: asm.RSP, Off: off}})
	case *ast.BinaryOp:
		// not wrapped, Right nests once per operator
		err := c.expr(ctx, e.Left)
		if err != nil {
			return err
		}

		err = c.expr(ctx, e.Right)
		if err != nil {
			return err
		}

		err = c.emit(e, asm.Pop{Dst: asm.RAX}, asm.Pop{Dst: asm.RBX})
		if err != nil {
			return err
		}

		switch e.Op {
		case ast.Add:
			return c.emit(e,
				asm.Add{Dst: asm.RAX, Src: asm.RBX},
				asm.Push{Src: asm.RAX},
			)
		default:
			return diag.New(diag.Unimplemented, e.Pos, e.Op.String(), "operator %v", e.Op.Name())
		}
	default:
		return diag.New(diag.Unimplemented, e.Position(), "", "expression %T", e)
	}
}

func (c *Compiler) literal(ctx context.Context, l *ast.Literal) error {
	switch v := l.Value.(type) {
	case ast.U32:
		return c.emit(l,
			asm.Mov{Dst: asm.RAX, Imm: uint32(v)},
			asm.Push{Src: asm.RAX},
		)
	default:
		return diag.New(diag.Unimplemented, l.Pos, "", "literal of type %T", v)
	}
}

// offset is the distance in bytes from the stack top to the slot of v.
func (c *Compiler) offset(v Var) (int32, error) {
	return safecast.Conv[int32]((c.depth - v.Slot - 1) * asm.WordSize)
}

// emit appends instructions generated for n keeping track of the stack depth.
func (c *Compiler) emit(n ast.Node, list ...asm.Instr) error {
	for _, x := range list {
		switch x.(type) {
		case asm.Push:
			if c.depth == c.MaxStack {
				return diag.New(diag.StackOverflow, n.Position(), token(n), "more than %d slots used", c.MaxStack)
			}

			c.depth++
			c.stats.Pushes++
			c.stats.MaxDepth = max(c.stats.MaxDepth, c.depth)
		case asm.Pop:
			if c.depth == 0 {
				return diag.New(diag.StackUnderflow, n.Position(), token(n), "pop from empty stack")
			}

			c.depth--
			c.stats.Pops++
		}

		c.b = x.Append(c.b)
	}

	return nil
}

// token is the source text of n as far as the tree keeps it.
func token(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Alias:
		return n.Name
	case *ast.Literal:
		if v, ok := n.Value.(ast.U32); ok {
			return strconv.FormatUint(uint64(v), 10)
		}
	case *ast.BinaryOp:
		return n.Op.String()
	case *ast.Exit:
		return "exit"
	}

	return ""
}

func defaultExit() *ast.SystemCall {
	return &ast.SystemCall{
		Call: &ast.Exit{
			Code: &ast.Literal{Value: ast.U32(0)},
		},
	}
}

func (v Var) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	return e.AppendInt(b, v.Slot)
}
