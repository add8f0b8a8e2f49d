package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	spec "github.com/nihei9/yuzu/spec/grammar"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var showFlags = struct {
	summary *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "show",
		Short:   "Print a report in a readable format",
		Example: `  yuzu show grammar-report.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runShow,
	}
	showFlags.summary = cmd.Flags().Bool("summary", false, "print only a summary table")
	rootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	report, err := readReport(args[0])
	if err != nil {
		return err
	}

	if *showFlags.summary {
		return pterm.DefaultTable.WithHasHeader().WithData(summaryTable(report)).Render()
	}

	return writeReport(os.Stdout, report)
}

func readReport(path string) (*spec.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open the report %s: %w", path, err)
	}
	defer f.Close()

	d, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	report := &spec.Report{}
	err = json.Unmarshal(d, report)
	if err != nil {
		return nil, err
	}

	return report, nil
}

func summaryTable(report *spec.Report) pterm.TableData {
	var unresolved int
	for _, c := range report.Conflicts {
		if c.Unresolved() {
			unresolved++
		}
	}
	return pterm.TableData{
		{"grammar", "terminals", "non-terminals", "productions", "states", "conflicts", "unresolved", "diagnostics"},
		{
			report.Name,
			fmt.Sprint(len(report.Terminals) - 1),
			fmt.Sprint(len(report.NonTerminals) - 1),
			fmt.Sprint(len(report.Productions)),
			fmt.Sprint(len(report.States)),
			fmt.Sprint(len(report.Conflicts)),
			fmt.Sprint(unresolved),
			fmt.Sprint(len(report.Diagnostics)),
		},
	}
}

const reportTemplate = `# Conflicts

{{ printConflictSummary . }}

# Terminals

{{ range slice .Terminals 1 -}}
{{ printTerminal . }}
{{ end }}
# Productions

{{ range .Productions -}}
{{ printProduction . }}
{{ end }}
{{- with .Diagnostics }}
# Diagnostics

{{ range . -}}
{{ .Severity }}: {{ .Message }}
{{ end }}
{{- end }}
{{- range .States }}
## State {{ .Number }}{{ if .ErrorTrap }} (error trap){{ end }}

{{ range .Kernel -}}
{{ printItem . }}
{{ end }}
{{ range .Shift -}}
{{ printShift . }}
{{ end -}}
{{ range .Reduce -}}
{{ printReduce . }}
{{ end -}}
{{ range .GoTo -}}
{{ printGoTo . }}
{{ end -}}
{{ range .Conflicts -}}
{{ printConflict . }}
{{ end -}}
{{ end }}`

func writeReport(w io.Writer, report *spec.Report) error {
	termName := func(sym int) string {
		if report.Terminals[sym].Alias != "" {
			return report.Terminals[sym].Alias
		}
		return report.Terminals[sym].Name
	}

	nonTermName := func(sym int) string {
		return report.NonTerminals[sym].Name
	}

	symbolName := func(sym int) string {
		if sym > 0 {
			return termName(sym)
		}
		return nonTermName(sym * -1)
	}

	precAndAssoc := func(prec int, assoc string) (string, string) {
		p := " -"
		if prec != 0 {
			p = fmt.Sprintf("%2v", prec)
		}
		a := "-"
		if assoc != "" {
			a = assoc
		}
		return p, a
	}

	actionText := func(a *spec.Action) string {
		if a.Type == spec.ActionTypeShift {
			return fmt.Sprintf("shift %v", a.State)
		}
		return fmt.Sprintf("reduce %v", a.Production)
	}

	fns := template.FuncMap{
		"printConflictSummary": func(report *spec.Report) string {
			count := len(report.Conflicts)
			if count == 1 {
				return "1 conflict was detected."
			} else if count > 1 {
				return fmt.Sprintf("%v conflicts were detected.", count)
			}
			return "No conflict was detected."
		},
		"printTerminal": func(term *spec.Terminal) string {
			prec, assoc := precAndAssoc(term.Precedence, term.Associativity)
			if term.Alias != "" {
				return fmt.Sprintf("%4v %v %v %v (%v)", term.Number, prec, assoc, term.Name, term.Alias)
			}
			return fmt.Sprintf("%4v %v %v %v", term.Number, prec, assoc, term.Name)
		},
		"printProduction": func(prod *spec.Production) string {
			prec, assoc := precAndAssoc(prod.Precedence, prod.Associativity)

			var b strings.Builder
			fmt.Fprintf(&b, "%v →", nonTermName(prod.LHS))
			if len(prod.RHS) > 0 {
				for _, e := range prod.RHS {
					fmt.Fprintf(&b, " %v", symbolName(e))
				}
			} else {
				fmt.Fprintf(&b, " ε")
			}
			if prod.Recover {
				fmt.Fprintf(&b, " #recover")
			}

			return fmt.Sprintf("%4v %v %v %v", prod.Number, prec, assoc, b.String())
		},
		"printItem": func(item *spec.Item) string {
			prod := report.Productions[item.Production]

			var b strings.Builder
			fmt.Fprintf(&b, "%v →", nonTermName(prod.LHS))
			for i, e := range prod.RHS {
				if i == item.Dot {
					fmt.Fprintf(&b, " ・")
				}
				fmt.Fprintf(&b, " %v", symbolName(e))
			}
			if item.Dot >= len(prod.RHS) {
				fmt.Fprintf(&b, " ・")
			}

			return fmt.Sprintf("%4v %v", prod.Number, b.String())
		},
		"printShift": func(tran *spec.Transition) string {
			return fmt.Sprintf("shift  %4v on %v", tran.State, termName(tran.Symbol))
		},
		"printReduce": func(reduce *spec.Reduce) string {
			var b strings.Builder
			fmt.Fprintf(&b, "%v", termName(reduce.LookAhead[0]))
			for _, a := range reduce.LookAhead[1:] {
				fmt.Fprintf(&b, ", %v", termName(a))
			}
			return fmt.Sprintf("reduce %4v on %v", reduce.Production, b.String())
		},
		"printGoTo": func(tran *spec.Transition) string {
			return fmt.Sprintf("goto   %4v on %v", tran.State, nonTermName(tran.Symbol))
		},
		"printConflict": func(c *spec.Conflict) string {
			candidates := make([]string, len(c.Candidates))
			for i, a := range c.Candidates {
				candidates[i] = actionText(a)
			}
			return fmt.Sprintf("%v conflict (%v) on %v: %v adopted", c.Kind, strings.Join(candidates, ", "), termName(c.Terminal), actionText(c.Adopted))
		},
	}

	tmpl, err := template.New("").Funcs(fns).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, report)
}
