package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nihei9/yuzu/grammar"
)

const defaultConfigPath = "yuzu.toml"

// config is the content of a configuration file.
//
//	[trace]
//	level = "Info"
//
//	[compile]
//	compression = 2
//	conflicts_as_errors = false
//	report = true
//
//	[parse]
//	recovery = true
//	max_stack_depth = 0
type config struct {
	Trace   traceConfig   `toml:"trace"`
	Compile compileConfig `toml:"compile"`
	Parse   parseConfig   `toml:"parse"`
}

type traceConfig struct {
	Level string `toml:"level"`
}

type compileConfig struct {
	Compression       int  `toml:"compression"`
	ConflictsAsErrors bool `toml:"conflicts_as_errors"`
	Report            bool `toml:"report"`
}

type parseConfig struct {
	Recovery      bool `toml:"recovery"`
	MaxStackDepth int  `toml:"max_stack_depth"`
}

func defaultConfig() *config {
	return &config{
		Trace: traceConfig{
			Level: "Error",
		},
		Compile: compileConfig{
			Compression: grammar.CompressionLevelMax,
			Report:      true,
		},
		Parse: parseConfig{
			Recovery: true,
		},
	}
}

// loadConfig reads a configuration file over the defaults. An empty path means ./yuzu.toml, and the file
// may be missing in that case.
func loadConfig(path string) (*config, error) {
	c := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("cannot read the configuration file %v: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%v: unknown keys: %v", path, strings.Join(keys, ", "))
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	return c, nil
}

func (c *config) validate() error {
	if c.Compile.Compression < grammar.CompressionLevelMin || c.Compile.Compression > grammar.CompressionLevelMax {
		return fmt.Errorf("compile.compression must be between %v and %v: %v", grammar.CompressionLevelMin, grammar.CompressionLevelMax, c.Compile.Compression)
	}
	if c.Parse.MaxStackDepth < 0 {
		return fmt.Errorf("parse.max_stack_depth must be 0 or greater: %v", c.Parse.MaxStackDepth)
	}
	switch c.Trace.Level {
	case "Debug", "Info", "Error":
	default:
		return fmt.Errorf("trace.level must be Debug, Info, or Error: %v", c.Trace.Level)
	}
	return nil
}

func (c *config) compileOptions() []grammar.CompileOption {
	opts := []grammar.CompileOption{
		grammar.Compress(c.Compile.Compression),
	}
	if c.Compile.ConflictsAsErrors {
		opts = append(opts, grammar.ConflictsAsErrors())
	}
	if c.Compile.Report {
		opts = append(opts, grammar.EnableReporting())
	}
	return opts
}
