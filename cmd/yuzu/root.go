package main

import (
	"fmt"
	"os"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var rootFlags = struct {
	config *string
	trace  *string
}{}

// cfg is the configuration the running command uses. It is loaded before any subcommand runs.
var cfg = defaultConfig()

// cli is a tracer for the command line tool itself.
var cli tracing.Trace

var rootCmd = &cobra.Command{
	Use:   "yuzu",
	Short: "Generate LALR(1) parsing tables from a grammar",
	Long: `yuzu provides three features:
- Compiles a grammar description into portable LALR(1) parsing tables.
- Prints a report of a compiled grammar in a readable format.
- Parses a text stream according to a compiled grammar.
  This feature is primarily aimed at debugging the grammar.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootFlags.config = rootCmd.PersistentFlags().String("config", "", "configuration file path (default ./yuzu.toml when it exists)")
	rootFlags.trace = rootCmd.PersistentFlags().String("trace", "", "trace level [Debug|Info|Error]")
}

// tracedKeys are the keys the packages of this module trace with.
var tracedKeys = []string{
	"yuzu.grammar",
	"yuzu.parser",
	"yuzu.lexer",
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(*rootFlags.config)
	if err != nil {
		return err
	}
	if *rootFlags.trace != "" {
		c.Trace.Level = *rootFlags.trace
		if err := c.validate(); err != nil {
			return err
		}
	}
	cfg = c

	setupTracing(cfg.Trace.Level)
	cli.Debugf("configuration: %+v", cfg)

	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
	if cfg.Trace.Level == "Debug" {
		pterm.EnableDebugMessages()
	}

	return nil
}

// setupTracing routes the tracers of all packages to the Go log adapter. The selector has to be installed
// first; until then tracing.Select hands out a no-op tracer.
func setupTracing(levelName string) {
	level := tracing.TraceLevelFromString(levelName)
	tracing.SetTraceSelector(tracing.SelectorForAdapter(gologadapter.New))
	cli = gologadapter.New()
	cli.SetTraceLevel(level)
	for _, key := range tracedKeys {
		tracing.Select(key).SetTraceLevel(level)
	}
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}
