package toolchain

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	// Toolchain runs the external assembler and linker.
	Toolchain struct {
		Assembler string
		Linker    string
	}

	// ToolError is a failed external tool run.
	ToolError struct {
		Tool   string
		Args   []string
		Stderr string
		Err    error
	}
)

func New(assembler, linker string) *Toolchain {
	if assembler == "" {
		assembler = "nasm"
	}

	if linker == "" {
		linker = "ld"
	}

	return &Toolchain{
		Assembler: assembler,
		Linker:    linker,
	}
}

// Available checks both tools can be found.
func (t *Toolchain) Available() error {
	for _, tool := range []string{t.Assembler, t.Linker} {
		if _, err := exec.LookPath(tool); err != nil {
			return errors.Wrap(err, "look up %v", tool)
		}
	}

	return nil
}

// Build writes the assembly text into dir/transpiled, assembles it into dir/object
// and links into dir/bin. It returns the executable path.
func (t *Toolchain) Build(ctx context.Context, dir, name string, asm []byte) (bin string, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "toolchain: build", "dir", dir, "name", name)
	defer tr.Finish("err", &err)

	src := filepath.Join(dir, "transpiled", name+".s")
	obj := filepath.Join(dir, "object", name+".o")
	bin = filepath.Join(dir, "bin", name)

	for _, p := range []string{src, obj, bin} {
		err = os.MkdirAll(filepath.Dir(p), 0o755)
		if err != nil {
			return "", errors.Wrap(err, "create dir")
		}
	}

	err = os.WriteFile(src, asm, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "write assembly")
	}

	err = t.Assemble(ctx, src, obj)
	if err != nil {
		return "", err
	}

	err = t.Link(ctx, obj, bin)
	if err != nil {
		return "", err
	}

	return bin, nil
}

func (t *Toolchain) Assemble(ctx context.Context, src, obj string) error {
	return t.run(ctx, t.Assembler, "-felf64", src, "-o", obj)
}

func (t *Toolchain) Link(ctx context.Context, obj, bin string) error {
	return t.run(ctx, t.Linker, obj, "-o", bin)
}

// Run executes the binary and returns its exit code.
// Non-zero exit code is not an error.
func Run(ctx context.Context, bin string, args ...string) (code int, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "toolchain: run", "bin", bin)
	defer tr.Finish("code", &code, "err", &err)

	if !strings.ContainsRune(bin, filepath.Separator) {
		bin = "." + string(filepath.Separator) + bin
	}

	cmd := exec.CommandContext(ctx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	tr.Printw("finished", "stdout", stdout.Bytes(), "stderr", stderr.Bytes())

	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return exit.ExitCode(), nil
	}

	if err != nil {
		return -1, errors.Wrap(err, "run %v", bin)
	}

	return cmd.ProcessState.ExitCode(), nil
}

func (t *Toolchain) run(ctx context.Context, tool string, args ...string) (err error) {
	tr := tlog.SpanFromContext(ctx)

	cmd := exec.CommandContext(ctx, tool, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()

	tr.Printw("tool", "tool", tool, "args", args, "stdout", out, "stderr", stderr.Bytes(), "err", err)

	if err != nil {
		return &ToolError{
			Tool:   tool,
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

func (e *ToolError) Error() string {
	msg := e.Tool + " " + strings.Join(e.Args, " ") + ": " + e.Err.Error()

	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}

	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }
