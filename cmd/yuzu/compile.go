package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	verr "github.com/nihei9/yuzu/error"
	"github.com/nihei9/yuzu/grammar"
	spec "github.com/nihei9/yuzu/spec/grammar"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var compileFlags = struct {
	output            *string
	compression       *int
	conflictsAsErrors *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "compile",
		Short:   "Compile a grammar description into parsing tables",
		Example: `  yuzu compile grammar.toml -o grammar.json`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runCompile,
	}
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	compileFlags.compression = cmd.Flags().IntP("compression", "c", -1, "compression level of the tables [0|1|2] (default from the configuration)")
	compileFlags.conflictsAsErrors = cmd.Flags().Bool("conflicts-as-errors", false, "fail when a conflict is resolved by a default rule")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	if *compileFlags.compression >= 0 {
		cfg.Compile.Compression = *compileFlags.compression
	}
	if *compileFlags.conflictsAsErrors {
		cfg.Compile.ConflictsAsErrors = true
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	var gram *grammar.Grammar
	var err error
	if len(args) > 0 {
		gram, err = grammar.ReadTOMLFile(args[0])
	} else {
		gram, err = grammar.ReadTOML(os.Stdin)
		var specErrs verr.SpecErrors
		if errors.As(err, &specErrs) {
			for _, e := range specErrs {
				e.SourceName = "stdin"
			}
		}
	}
	if err != nil {
		return err
	}

	cgram, report, err := grammar.Compile(gram, cfg.compileOptions()...)
	if err != nil {
		return err
	}
	cli.Infof("compiled %v; fingerprint: %v", cgram.Name, cgram.Fingerprint)

	err = writeCompiledGrammarAndReport(cgram, report, *compileFlags.output)
	if err != nil {
		return fmt.Errorf("cannot write output files: %w", err)
	}

	printDiagnostics(report)

	return nil
}

func printDiagnostics(report *spec.Report) {
	for _, d := range report.Diagnostics {
		switch d.Severity {
		case spec.SeverityError:
			pterm.Error.Println(d.Message)
		default:
			pterm.Warning.Println(d.Message)
		}
	}

	var unresolved int
	for _, c := range report.Conflicts {
		if c.Unresolved() {
			unresolved++
		}
	}
	if unresolved > 0 {
		pterm.Warning.Printf("%v conflicts were resolved by default rules\n", unresolved)
	}
}

// writeCompiledGrammarAndReport writes a compiled grammar and a report. It selects one of the following
// output methods depending on the path.
//
//  1. When the path is a directory path, it writes the compiled grammar and the report to
//     <path>/<grammar-name>.json and <path>/<grammar-name>-report.json, respectively.
//  2. When the path is a file path or a non-existent path, the path names the compiled grammar. The report
//     goes to <grammar-name>-report.json in the same directory.
//  3. When the path is empty, it writes the compiled grammar to the stdout and the report to
//     <current-directory>/<grammar-name>-report.json.
func writeCompiledGrammarAndReport(cgram *spec.CompiledGrammar, report *spec.Report, path string) error {
	cgramPath, reportPath, err := makeOutputFilePaths(cgram.Name, path)
	if err != nil {
		return err
	}

	if cgramPath == "" {
		err = writeJSON(os.Stdout, cgram)
	} else {
		err = writeJSONFile(cgramPath, cgram)
	}
	if err != nil {
		return err
	}

	return writeJSONFile(reportPath, report)
}

func writeJSONFile(path string, v interface{}) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeJSON(f, v)
}

func writeJSON(w io.Writer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%v\n", string(b))
	return err
}

func makeOutputFilePaths(gramName string, path string) (string, string, error) {
	reportFileName := gramName + "-report.json"

	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", "", err
		}
		return "", filepath.Join(wd, reportFileName), nil
	}

	fi, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		return "", "", err
	}
	if os.IsNotExist(err) || !fi.IsDir() {
		dir, _ := filepath.Split(path)
		return path, filepath.Join(dir, reportFileName), nil
	}

	return filepath.Join(path, gramName+".json"), filepath.Join(path, reportFileName), nil
}
