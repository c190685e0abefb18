package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/stackc/compiler"
	"github.com/slowlang/stackc/compiler/config"
	"github.com/slowlang/stackc/compiler/diag"
	"github.com/slowlang/stackc/compiler/dump"
	"github.com/slowlang/stackc/compiler/format"
	"github.com/slowlang/stackc/compiler/parse"
	"github.com/slowlang/stackc/compiler/toolchain"
)

func main() {
	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "parse files and print the syntax tree",
		Action:      act(parseAct),
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("ast-out", "", "dump syntax trees into the dir (format from config output.ast)"),
		},
	}

	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "compile files to assembly, printed to stdout unless --out is set",
		Action:      act(compileAct),
		Args:        cli.Args{},
	}

	buildCmd := &cli.Command{
		Name:        "build",
		Description: "compile, assemble and link files",
		Action:      act(buildAct),
		Args:        cli.Args{},
	}

	runCmd := &cli.Command{
		Name:        "run",
		Description: "build the file and run it, the exit code is reported and returned",
		Action:      act(runAct),
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "stackc",
		Description: "stackc compiles a tiny let/syscall language into x86-64 assembly",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("config", "", "config file (toml)"),
			cli.NewFlag("log", "", "log file, stderr if empty"),
			cli.NewFlag("verbosity,v", "", "tlog verbosity topics (parse, next_token, dump_ast, dump_vars, dump_asm)"),
			cli.NewFlag("color", "auto", "colorize errors: auto, always, never"),
			cli.NewFlag("out,o", "", "output dir, config output.dir if empty"),
			cli.NewFlag("jobs,j", 0, "files compiled in parallel, 0 is unlimited"),
			cli.NewFlag("max-stack", 0, "max virtual stack depth, config codegen.max_stack if 0"),
			cli.NewFlag("default-exit", "", "append exit(0) after the program: on, off or empty for config"),
			cli.HelpFlag,
			cli.FlagfileFlag,
		},
		Commands: []*cli.Command{
			parseCmd,
			compileCmd,
			buildCmd,
			runCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	switch v := c.String("color"); v {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "auto", "":
		color.NoColor = !term.IsTerminal(int(os.Stderr.Fd()))
	default:
		return errors.New("unknown color mode: %q", v)
	}

	if name := c.String("log"); name != "" {
		f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.Wrap(err, "open log file")
		}

		tlog.DefaultLogger = tlog.New(tlog.NewConsoleWriter(f, tlog.LstdFlags))
	}

	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

// act reports compilation errors with diag and exits.
func act(f func(c *cli.Command) error) func(c *cli.Command) error {
	return func(c *cli.Command) error {
		err := f(c)
		if err == nil {
			return nil
		}

		_, _ = diag.Fprint(os.Stderr, err)

		os.Exit(1)

		return nil
	}
}

func parseAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	astOut := c.String("ast-out")

	for _, a := range c.Args {
		x, err := parse.ParseFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		b, err := format.Format(ctx, nil, x)
		if err != nil {
			return errors.Wrap(err, "format %v", a)
		}

		fmt.Printf("%s", b)

		if astOut == "" {
			continue
		}

		f, _ := dump.ParseFormat(cfg.Output.AST)

		err = writeFile(filepath.Join(astOut, baseName(a)+f.Ext()), func(w *os.File) error {
			return dump.Encode(w, x, f)
		})
		if err != nil {
			return errors.Wrap(err, "dump %v", a)
		}
	}

	return nil
}

func compileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	_, res, err := compileArgs(ctx, c)
	if err != nil {
		return err
	}

	out := c.String("out")

	for _, r := range res {
		if out == "" {
			fmt.Printf("%s", r.Asm)
			continue
		}

		p := filepath.Join(out, "transpiled", baseName(r.Name)+".s")

		err = writeFile(p, func(w *os.File) error {
			_, err := w.Write(r.Asm)
			return err
		})
		if err != nil {
			return errors.Wrap(err, "write %v", r.Name)
		}

		tlog.Printw("written", "file", p, "size", len(r.Asm), "max_depth", r.Stats.MaxDepth)
	}

	return nil
}

func buildAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg, res, err := compileArgs(ctx, c)
	if err != nil {
		return err
	}

	tc := toolchain.New(cfg.Toolchain.Assembler, cfg.Toolchain.Linker)

	for _, r := range res {
		bin, err := tc.Build(ctx, cfg.Output.Dir, baseName(r.Name), r.Asm)
		if err != nil {
			return errors.Wrap(err, "build %v", r.Name)
		}

		fmt.Printf("%s\n", bin)
	}

	return nil
}

func runAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	if len(c.Args) != 1 {
		return errors.New("exactly one file expected, got %d", len(c.Args))
	}

	cfg, res, err := compileArgs(ctx, c)
	if err != nil {
		return err
	}

	r := res[0]

	tc := toolchain.New(cfg.Toolchain.Assembler, cfg.Toolchain.Linker)

	bin, err := tc.Build(ctx, cfg.Output.Dir, baseName(r.Name), r.Asm)
	if err != nil {
		return errors.Wrap(err, "build %v", r.Name)
	}

	code, err := toolchain.Run(ctx, bin)
	if err != nil {
		return err
	}

	fmt.Printf("exit status %d\n", code)

	os.Exit(code)

	return nil
}

func compileArgs(ctx context.Context, c *cli.Command) (cfg config.Config, res []*compiler.Result, err error) {
	cfg, err = loadConfig(c)
	if err != nil {
		return cfg, nil, err
	}

	opts := cfg.Options()

	res, err = compiler.CompileFiles(ctx, c.Args, opts, c.Int("jobs"))
	if err != nil {
		return cfg, nil, err
	}

	return cfg, res, nil
}

func loadConfig(c *cli.Command) (cfg config.Config, err error) {
	cfg = config.Default()

	if name := c.String("config"); name != "" {
		cfg, err = config.Load(name)
		if err != nil {
			return cfg, errors.Wrap(err, "load config")
		}
	}

	if v := c.Int("max-stack"); v != 0 {
		cfg.Codegen.MaxStack = v
	}

	switch v := c.String("default-exit"); v {
	case "":
	case "on", "true":
		cfg.Codegen.DefaultExit = true
	case "off", "false":
		cfg.Codegen.DefaultExit = false
	default:
		return cfg, errors.New("bad default-exit value: %q", v)
	}

	if v := c.String("out"); v != "" {
		cfg.Output.Dir = v
	}

	err = cfg.Validate()
	if err != nil {
		return cfg, errors.Wrap(err, "config")
	}

	return cfg, nil
}

func writeFile(name string, f func(w *os.File) error) (err error) {
	err = os.MkdirAll(filepath.Dir(name), 0o755)
	if err != nil {
		return errors.Wrap(err, "create dir")
	}

	w, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "create file")
	}

	defer func() {
		e := w.Close()
		if err == nil && e != nil {
			err = errors.Wrap(e, "close file")
		}
	}()

	return f(w)
}

func baseName(p string) string {
	b := filepath.Base(p)

	return strings.TrimSuffix(b, filepath.Ext(b))
}
