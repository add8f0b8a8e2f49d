package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"
	"github.com/nihei9/yuzu/driver/lexer"
	"github.com/nihei9/yuzu/driver/parser"
	spec "github.com/nihei9/yuzu/spec/grammar"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var parseFlags = struct {
	source        *string
	json          *bool
	interactive   *bool
	noRecovery    *bool
	maxStackDepth *int
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "parse <compiled grammar file path>",
		Short: "Parse a text stream and print its syntax tree",
		Example: `  cat src | yuzu parse grammar.json
  yuzu parse grammar.json --interactive`,
		Args: cobra.ExactArgs(1),
		RunE: runParse,
	}
	parseFlags.source = cmd.Flags().StringP("source", "s", "", "source file path (default stdin)")
	parseFlags.json = cmd.Flags().Bool("json", false, "print the syntax tree in JSON")
	parseFlags.interactive = cmd.Flags().BoolP("interactive", "i", false, "parse each line read from a prompt")
	parseFlags.noRecovery = cmd.Flags().Bool("no-recovery", false, "stop at the first syntax error")
	parseFlags.maxStackDepth = cmd.Flags().Int("max-stack-depth", -1, "maximum depth of the parser stack; 0 means no limit (default from the configuration)")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	if *parseFlags.noRecovery {
		cfg.Parse.Recovery = false
	}
	if *parseFlags.maxStackDepth >= 0 {
		cfg.Parse.MaxStackDepth = *parseFlags.maxStackDepth
	}

	cgram, err := readCompiledGrammar(args[0])
	if err != nil {
		return fmt.Errorf("cannot read a compiled grammar: %w", err)
	}
	gram, err := parser.NewGrammar(cgram)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *parseFlags.interactive {
		return repl(ctx, cgram, gram)
	}

	src := io.Reader(os.Stdin)
	if *parseFlags.source != "" {
		f, err := os.Open(*parseFlags.source)
		if err != nil {
			return fmt.Errorf("cannot open the source file %s: %w", *parseFlags.source, err)
		}
		defer f.Close()
		src = f
	}

	return parseAndPrint(ctx, os.Stdout, cgram, gram, src)
}

func parserOptions() []parser.ParserOption {
	opts := []parser.ParserOption{
		parser.MaxStackDepth(cfg.Parse.MaxStackDepth),
	}
	if cfg.Parse.Recovery {
		opts = append(opts, parser.EnableRecovery())
	}
	return opts
}

// parseAndPrint parses a source and prints its syntax tree. Syntax errors the parser recovered from are
// printed, and the tree is printed nevertheless.
func parseAndPrint(ctx context.Context, w io.Writer, cgram *spec.CompiledGrammar, gram parser.Grammar, src io.Reader) error {
	toks, err := lexer.NewMaleeniSource(cgram, src)
	if err != nil {
		return err
	}

	v, err := parser.Run(ctx, gram, toks, parser.NewSyntaxTreeDispatcher(gram), parserOptions()...)
	if err != nil {
		var synErrs parser.ParseErrors
		if !errors.As(err, &synErrs) {
			return err
		}
		for _, synErr := range synErrs {
			pterm.Error.Println(synErr.Error())
		}
	}

	tree, ok := v.(*parser.Node)
	if !ok {
		return nil
	}
	if *parseFlags.json {
		return writeJSON(w, tree)
	}
	parser.PrintTree(w, tree)
	return nil
}

func repl(ctx context.Context, cgram *spec.CompiledGrammar, gram parser.Grammar) error {
	rl, err := readline.New(cgram.Name + "> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	cli.Infof("quit with <ctrl>D")
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		err = parseAndPrint(ctx, rl.Stdout(), cgram, gram, strings.NewReader(line))
		if err != nil {
			pterm.Error.Println(err.Error())
		}
	}
}

func readCompiledGrammar(path string) (*spec.CompiledGrammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cgram := &spec.CompiledGrammar{}
	err = json.Unmarshal(data, cgram)
	if err != nil {
		return nil, err
	}
	return cgram, nil
}
