package ast

import "github.com/slowlang/stackc/compiler/source"

type (
	Node interface {
		Position() source.Pos
	}

	Base struct {
		Pos source.Pos `tlog:",embed"`
	}

	Program struct {
		Base `tlog:",embed"`

		Stmts []Stmt
	}

	Stmt interface {
		Node
		stmt()
	}

	// Let introduces a new binding.
	Let struct {
		Base `tlog:",embed"`

		Alias string
		Value Expr
	}

	SystemCall struct {
		Base `tlog:",embed"`

		Call SysCall
	}

	SysCall interface {
		Node
		syscall()
	}

	Exit struct {
		Base `tlog:",embed"`

		Code Expr
	}

	Expr interface {
		Node
		expr()
	}

	// Term is a leaf expression.
	Term interface {
		Expr
		term()
	}

	Alias struct {
		Base `tlog:",embed"`

		Name string
	}

	Literal struct {
		Base `tlog:",embed"`

		Value Value
	}

	BinaryOp struct {
		Base `tlog:",embed"`

		Op    Op
		Left  Expr
		Right Expr
	}

	Value interface {
		value()
	}

	U32     uint32
	F64     float64
	String  string
	Boolean bool

	Op int

	// SysName enumerates known system calls.
	SysName int
)

const (
	Add Op = iota
	Sub
	Mul
	Div
)

const (
	_ SysName = iota
	SysExit
)

var (
	opSymbols = []string{Add: "+", Sub: "-", Mul: "*", Div: "/"}
	opNames   = []string{Add: "Add", Sub: "Sub", Mul: "Mul", Div: "Div"}

	sysNames = []string{SysExit: "exit"}
)

// LookupSysName resolves a syscall name as written in the source.
func LookupSysName(name string) (SysName, bool) {
	for i, n := range sysNames {
		if n != "" && n == name {
			return SysName(i), true
		}
	}

	return 0, false
}

func (b Base) Position() source.Pos { return b.Pos }

func (*Let) stmt()        {}
func (*SystemCall) stmt() {}

func (*Exit) syscall() {}

func (*Alias) expr()    {}
func (*Literal) expr()  {}
func (*BinaryOp) expr() {}

func (*Alias) term()   {}
func (*Literal) term() {}

func (U32) value()     {}
func (F64) value()     {}
func (String) value()  {}
func (Boolean) value() {}

func (op Op) String() string {
	if op >= 0 && int(op) < len(opSymbols) {
		return opSymbols[op]
	}

	return "?"
}

// Name is the operator variant name.
func (op Op) Name() string {
	if op >= 0 && int(op) < len(opNames) {
		return opNames[op]
	}

	return "?"
}

func (n SysName) String() string {
	if n > 0 && int(n) < len(sysNames) {
		return sysNames[n]
	}

	return "?"
}
