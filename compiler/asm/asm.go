package asm

import (
	"strconv"

	"github.com/nikandfor/hacked/hfmt"
)

type (
	// Reg is an x86-64 general purpose register.
	Reg int

	// Operand is a Reg or a Mem.
	Operand interface {
		AppendOperand(b []byte) []byte
	}

	// Mem is a quad word memory operand [Base+Off].
	// Off is a 32 bit displacement as encoded by the instruction.
	Mem struct {
		Base Reg
		Off  int32
	}

	Instr interface {
		Append(b []byte) []byte
	}

	Push struct {
		Src Operand
	}

	Pop struct {
		Dst Reg
	}

	Mov struct {
		Dst Reg
		Imm uint32
	}

	Add struct {
		Dst Reg
		Src Reg
	}

	Syscall struct{}
)

const (
	RSP Reg = iota
	RAX
	RBX
	RDI
)

const (
	// WordSize is the size of a stack slot in bytes.
	WordSize = 8

	// SysExit is the linux x86-64 exit syscall number.
	SysExit = 60
)

// EntryPoint is the label the linker starts execution from.
const EntryPoint = "_start"

var regNames = []string{
	RSP: "rsp",
	RAX: "rax",
	RBX: "rbx",
	RDI: "rdi",
}

func (r Reg) String() string {
	if r >= 0 && int(r) < len(regNames) {
		return regNames[r]
	}

	return "Reg(" + strconv.Itoa(int(r)) + ")"
}

func (r Reg) AppendOperand(b []byte) []byte {
	return append(b, r.String()...)
}

func (m Mem) AppendOperand(b []byte) []byte {
	return hfmt.Appendf(b, "QWORD [%v+%d]", m.Base, m.Off)
}

func (x Push) Append(b []byte) []byte {
	b = append(b, "\tpush "...)
	b = x.Src.AppendOperand(b)

	return append(b, '\n')
}

func (x Pop) Append(b []byte) []byte {
	return hfmt.Appendf(b, "\tpop %v\n", x.Dst)
}

func (x Mov) Append(b []byte) []byte {
	return hfmt.Appendf(b, "\tmov %v, %d\n", x.Dst, x.Imm)
}

func (x Add) Append(b []byte) []byte {
	return hfmt.Appendf(b, "\tadd %v, %v\n", x.Dst, x.Src)
}

func (Syscall) Append(b []byte) []byte {
	return append(b, "\tsyscall\n"...)
}
