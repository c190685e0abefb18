package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"tlog.app/go/errors"

	"github.com/slowlang/stackc/compiler/back"
	"github.com/slowlang/stackc/compiler/dump"
)

type (
	Config struct {
		Codegen   Codegen   `toml:"codegen"`
		Output    Output    `toml:"output"`
		Toolchain Toolchain `toml:"toolchain"`
	}

	Codegen struct {
		MaxStack    int  `toml:"max_stack"`
		DefaultExit bool `toml:"default_exit"`
	}

	Output struct {
		Dir string `toml:"dir"`
		AST string `toml:"ast"`
	}

	Toolchain struct {
		Assembler string `toml:"assembler"`
		Linker    string `toml:"linker"`
	}
)

func Default() Config {
	opts := back.DefaultOptions()

	return Config{
		Codegen: Codegen{
			MaxStack:    opts.MaxStack,
			DefaultExit: opts.DefaultExit,
		},
		Output: Output{
			Dir: "out",
			AST: string(dump.JSON),
		},
		Toolchain: Toolchain{
			Assembler: "nasm",
			Linker:    "ld",
		},
	}
}

// Load reads the config file over the defaults.
func Load(name string) (Config, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}

	c, err := Decode(string(text))
	if err != nil {
		return Config{}, errors.Wrap(err, "%v", name)
	}

	return c, nil
}

// Decode parses config text over the defaults.
func Decode(text string) (Config, error) {
	c := Default()

	md, err := toml.Decode(text, &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "decode")
	}

	if keys := md.Undecoded(); len(keys) != 0 {
		return Config{}, errors.New("unknown keys: %v", keys)
	}

	err = c.Validate()
	if err != nil {
		return Config{}, err
	}

	return c, nil
}

func (c Config) Validate() error {
	if c.Codegen.MaxStack <= 0 {
		return errors.New("codegen.max_stack must be positive: %d", c.Codegen.MaxStack)
	}

	if _, err := dump.ParseFormat(c.Output.AST); err != nil {
		return errors.Wrap(err, "output.ast")
	}

	return nil
}

// Options builds code generator options.
func (c Config) Options() back.Options {
	return back.Options{
		MaxStack:    c.Codegen.MaxStack,
		DefaultExit: c.Codegen.DefaultExit,
	}
}
