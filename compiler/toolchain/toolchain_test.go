package toolchain

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/slowlang/stackc/compiler"
	"github.com/slowlang/stackc/compiler/back"
)

func TestExitCodes(t *testing.T) {
	tc := New("", "")

	if err := tc.Available(); err != nil {
		t.Skipf("toolchain is not available: %v", err)
	}

	ctx := context.Background()
	dir := t.TempDir()

	for _, c := range []struct {
		name string
		text string
		code int
	}{
		{"scenario_a", "let x = 5; syscall exit x;", 5},
		{"scenario_b", "syscall exit 100;", 100},
		{"sum", "let a = 40; let b = a + 2; syscall exit b;", 42},
		{"chain", "let a = 1; let b = 2; syscall exit a + b + a + 10;", 14},
		{"default_exit", "let a = 7;", 0},
		{"truncated", "syscall exit 257;", 1},
	} {
		t.Run(c.name, func(t *testing.T) {
			r, err := compiler.Compile(ctx, c.name, []byte(c.text), back.DefaultOptions())
			require.NoError(t, err)

			bin, err := tc.Build(ctx, dir, c.name, r.Asm)
			require.NoError(t, err, "asm:\n%s", r.Asm)

			code, err := Run(ctx, bin)
			require.NoError(t, err)

			assert.Equal(t, c.code, code)
		})
	}
}

func TestToolError(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("no false command")
	}

	tc := New("false", "false")

	_, err := tc.Build(context.Background(), t.TempDir(), "x", []byte("; nothing\n"))
	require.Error(t, err)

	var te *ToolError
	require.True(t, errors.As(err, &te), "%v", err)
	assert.Equal(t, "false", te.Tool)
	assert.Contains(t, te.Args, "-felf64")
}

func TestAvailable(t *testing.T) {
	err := New("stackc-no-such-assembler", "").Available()
	assert.Error(t, err)
}

func TestRunMissing(t *testing.T) {
	_, err := Run(context.Background(), "/nonexistent/stackc-binary")
	assert.Error(t, err)
}
