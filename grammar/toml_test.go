package grammar

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	verr "github.com/nihei9/yuzu/error"
)

const arithDesc = `
name = "arith"

[[terminals]]
name = "num"
pattern = "[0-9]+"

[[terminals]]
name = "plus"
literal = "+"

[[terminals]]
name = "times"
literal = "*"

[[terminals]]
name = "ws"
pattern = "[ \\u{0009}]+"
skip = true

[[precedence]]
assoc = "left"
terminals = ["plus"]

[[precedence]]
assoc = "left"
terminals = ["times"]

[[productions]]
lhs = "expr"
rhs = ["expr", "plus", "expr"]
action = "add"

[[productions]]
lhs = "expr"
rhs = ["expr", "times", "expr"]
action = "mul"

[[productions]]
lhs = "expr"
rhs = ["num"]
action = "num"
`

func TestReadTOML(t *testing.T) {
	gram, err := ReadTOML(strings.NewReader(arithDesc))
	if err != nil {
		t.Fatal(err)
	}
	if gram.Name() != "arith" || gram.StartSymbol() != "expr" {
		t.Fatalf("unexpected grammar: %v, %v", gram.Name(), gram.StartSymbol())
	}
	if gram.ProductionCount() != 4 {
		t.Fatalf("unexpected production count: %v", gram.ProductionCount())
	}

	_, report, err := Compile(gram)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range report.Conflicts {
		if c.Unresolved() {
			t.Fatalf("precedence must resolve every conflict: %+v", c)
		}
	}
}

func TestReadTOML_Errors(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		cause   error
		key     string
		row     int
	}{
		{
			caption: "an unknown key is an error",
			src: `
name = "test"
colour = "red"
`,
			cause: ErrDescUnknownKey,
			key:   "colour",
		},
		{
			caption: "an unknown key in a table is an error",
			src: `
name = "test"

[[terminals]]
name = "a"
regex = "a"
`,
			cause: ErrDescUnknownKey,
			key:   "terminals.regex",
		},
		{
			caption: "the name is mandatory",
			src: `
[[productions]]
lhs = "s"
`,
			cause: ErrDescMissingField,
			key:   "name",
		},
		{
			caption: "assoc must be left, right, or nonassoc",
			src: `
name = "test"

[[precedence]]
assoc = "up"
terminals = ["a"]
`,
			cause: ErrDescInvalidValue,
			key:   "precedence[0].assoc",
		},
		{
			caption: "a terminal cannot have both a pattern and a literal",
			src: `
name = "test"

[[terminals]]
name = "a"
pattern = "a+"
literal = "a"
`,
			cause: ErrDescFieldConflict,
			key:   "terminals[0]",
		},
		{
			caption: "a production needs a LHS",
			src: `
name = "test"

[[productions]]
rhs = ["a"]
`,
			cause: ErrDescMissingField,
			key:   "productions[0].lhs",
		},
		{
			caption: "a syntax error has a row",
			src: `name = "test"
start = = "s"
`,
			cause: ErrDescMalformed,
			row:   2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			_, err := ReadTOML(strings.NewReader(tt.src))
			if err == nil {
				t.Fatal("an expected error didn't occur")
			}
			var specErrs verr.SpecErrors
			if !errors.As(err, &specErrs) {
				t.Fatalf("unexpected error type: %T: %v", err, err)
			}
			found := false
			for _, e := range specErrs {
				if !errors.Is(e, tt.cause) {
					continue
				}
				if tt.key != "" && e.Key != tt.key {
					continue
				}
				if tt.row != 0 && e.Row != tt.row {
					continue
				}
				found = true
			}
			if !found {
				t.Fatalf("an expected error was not found; cause: %v, key: %v, got: %v", tt.cause, tt.key, err)
			}
		})
	}
}

func TestReadTOML_GrammarErrors(t *testing.T) {
	src := `
name = "test"

[[productions]]
lhs = "s"
rhs = ["undeclared"]
`
	_, err := ReadTOML(strings.NewReader(src))
	if !errors.Is(err, ErrUndeclaredSymbol) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReadTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	err := os.WriteFile(path, []byte("name = \"test\"\nunknown = 1\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	_, err = ReadTOMLFile(path)
	var specErrs verr.SpecErrors
	if !errors.As(err, &specErrs) {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, e := range specErrs {
		if e.FilePath != path {
			t.Errorf("a file path must be set: %v", e.FilePath)
		}
	}
	if !strings.HasPrefix(specErrs.Error(), path) {
		t.Errorf("an error message must start with the file path: %v", specErrs.Error())
	}

	if _, err := ReadTOMLFile(filepath.Join(dir, "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("unexpected error: %v", err)
	}
}
