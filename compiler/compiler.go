package compiler

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/stackc/compiler/ast"
	"github.com/slowlang/stackc/compiler/back"
	"github.com/slowlang/stackc/compiler/format"
	"github.com/slowlang/stackc/compiler/parse"
)

type (
	Result struct {
		Name  string
		AST   *ast.Program
		Asm   []byte
		Stats back.Stats
	}
)

func CompileFile(ctx context.Context, name string, opts back.Options) (*Result, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text, opts)
}

func Compile(ctx context.Context, name string, text []byte, opts back.Options) (r *Result, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name)
	defer tr.Finish("err", &err)

	start := time.Now()

	x, err := parse.Parse(ctx, name, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse text")
	}

	tr.Printw("parsed", "stmts", len(x.Stmts), "took", time.Since(start))

	if tr.If("dump_ast") {
		b, err := format.Format(ctx, nil, x)
		if err != nil {
			return nil, errors.Wrap(err, "format ast")
		}

		tr.Printw("ast", "text", b)
	}

	start = time.Now()

	c := back.New(opts)

	obj, err := c.CompileProgram(ctx, x)
	if err != nil {
		return nil, errors.Wrap(err, "compile")
	}

	tr.Printw("compiled", "size", len(obj), "took", time.Since(start))

	return &Result{
		Name:  name,
		AST:   x,
		Asm:   obj,
		Stats: c.Stats(),
	}, nil
}

// CompileFiles compiles files concurrently, at most jobs at a time.
// Results are in the order of names. The first error cancels the rest.
func CompileFiles(ctx context.Context, names []string, opts back.Options, jobs int) ([]*Result, error) {
	res := make([]*Result, len(names))

	g, gctx := errgroup.WithContext(ctx)

	if jobs > 0 {
		g.SetLimit(jobs)
	}

	for i, name := range names {
		i, name := i, name

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			r, err := CompileFile(gctx, name, opts)
			if err != nil {
				return errors.Wrap(err, "%v", name)
			}

			res[i] = r

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return res, nil
}
