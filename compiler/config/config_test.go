package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/stackc/compiler/back"
)

func TestDefault(t *testing.T) {
	c := Default()

	require.NoError(t, c.Validate())

	assert.Equal(t, back.DefaultMaxStack, c.Codegen.MaxStack)
	assert.True(t, c.Codegen.DefaultExit)
	assert.Equal(t, "json", c.Output.AST)
	assert.Equal(t, "nasm", c.Toolchain.Assembler)
	assert.Equal(t, "ld", c.Toolchain.Linker)
}

func TestDecode(t *testing.T) {
	c, err := Decode(`
[codegen]
max_stack = 16
default_exit = false

[output]
ast = "msgpack"
`)
	require.NoError(t, err)

	assert.Equal(t, 16, c.Codegen.MaxStack)
	assert.False(t, c.Codegen.DefaultExit)
	assert.Equal(t, "msgpack", c.Output.AST)
	assert.Equal(t, "out", c.Output.Dir, "defaults are kept")

	opts := c.Options()
	assert.Equal(t, 16, opts.MaxStack)
	assert.False(t, opts.DefaultExit)
}

func TestDecodeErrors(t *testing.T) {
	for _, text := range []string{
		"[codegen]\nmax_stack = 0\n",
		"[codegen]\nmax_stack = -3\n",
		"[output]\nast = \"xml\"\n",
		"[codegen]\nmax_stak = 10\n",
		"[codegen\n",
	} {
		_, err := Decode(text)
		assert.Error(t, err, "%q", text)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "stackc.toml")

	require.NoError(t, os.WriteFile(name, []byte("[toolchain]\nassembler = \"yasm\"\n"), 0o644))

	c, err := Load(name)
	require.NoError(t, err)
	assert.Equal(t, "yasm", c.Toolchain.Assembler)
	assert.Equal(t, "ld", c.Toolchain.Linker)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(name, []byte("[codegen]\nmax_stack = 0\n"), 0o644))

	_, err = Load(name)
	assert.ErrorContains(t, err, name)
}
