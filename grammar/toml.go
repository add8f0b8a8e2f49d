package grammar

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	verr "github.com/nihei9/yuzu/error"
)

var (
	ErrDescUnknownKey    = newSemanticError("unknown key")
	ErrDescMissingField  = newSemanticError("missing field")
	ErrDescInvalidValue  = newSemanticError("invalid value")
	ErrDescFieldConflict = newSemanticError("fields cannot be used together")
	ErrDescMalformed     = newSemanticError("malformed description")
)

type terminalDesc struct {
	Name    string `toml:"name"`
	Pattern string `toml:"pattern"`
	Literal string `toml:"literal"`
	Skip    bool   `toml:"skip"`
	Alias   string `toml:"alias"`
}

type precedenceDesc struct {
	Assoc     string   `toml:"assoc"`
	Terminals []string `toml:"terminals"`
}

type fallbackDesc struct {
	Target    string   `toml:"target"`
	Terminals []string `toml:"terminals"`
}

type productionDesc struct {
	LHS     string   `toml:"lhs"`
	RHS     []string `toml:"rhs"`
	Prec    string   `toml:"prec"`
	Action  string   `toml:"action"`
	Recover bool     `toml:"recover"`
}

// grammarDesc is a grammar description in TOML.
//
//	name = "arith"
//
//	[[terminals]]
//	name = "num"
//	pattern = "[0-9]+"
//
//	[[precedence]]
//	assoc = "left"
//	terminals = ["add"]
//
//	[[productions]]
//	lhs = "expr"
//	rhs = ["expr", "add", "expr"]
//	action = "add"
type grammarDesc struct {
	Name        string            `toml:"name"`
	Start       string            `toml:"start"`
	Wildcard    string            `toml:"wildcard"`
	Terminals   []*terminalDesc   `toml:"terminals"`
	Precedence  []*precedenceDesc `toml:"precedence"`
	Fallback    []*fallbackDesc   `toml:"fallback"`
	Productions []*productionDesc `toml:"productions"`
}

// ReadTOMLFile reads a grammar description from a file. Errors in the description are reported as
// verr.SpecErrors carrying the file path.
func ReadTOMLFile(path string) (*Grammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gram, err := ReadTOML(f)
	if err != nil {
		var specErrs verr.SpecErrors
		if errors.As(err, &specErrs) {
			for _, e := range specErrs {
				e.FilePath = path
				e.SourceName = path
			}
		}
		return nil, err
	}
	return gram, nil
}

// ReadTOML decodes a grammar description and builds a Grammar from it. Problems in the description itself
// are returned as verr.SpecErrors, and problems of the grammar as GrammarErrors.
func ReadTOML(r io.Reader) (*Grammar, error) {
	desc := &grammarDesc{}
	md, err := toml.NewDecoder(r).Decode(desc)
	if err != nil {
		specErr := &verr.SpecError{
			Cause:  ErrDescMalformed,
			Detail: err.Error(),
		}
		var perr toml.ParseError
		if errors.As(err, &perr) {
			specErr.Detail = perr.Message
			specErr.Row = perr.Position.Line
		}
		return nil, verr.SpecErrors{specErr}
	}

	var specErrs verr.SpecErrors
	for _, key := range md.Undecoded() {
		specErrs = append(specErrs, &verr.SpecError{
			Cause: ErrDescUnknownKey,
			Key:   key.String(),
		})
	}
	specErrs = append(specErrs, desc.validate()...)
	if len(specErrs) > 0 {
		return nil, specErrs
	}

	return desc.builder().Build()
}

func (d *grammarDesc) validate() verr.SpecErrors {
	var errs verr.SpecErrors
	if d.Name == "" {
		errs = append(errs, &verr.SpecError{
			Cause: ErrDescMissingField,
			Key:   "name",
		})
	}
	for i, t := range d.Terminals {
		key := fmt.Sprintf("terminals[%v]", i)
		if t.Name == "" {
			errs = append(errs, &verr.SpecError{
				Cause: ErrDescMissingField,
				Key:   key + ".name",
			})
		}
		if t.Pattern != "" && t.Literal != "" {
			errs = append(errs, &verr.SpecError{
				Cause:  ErrDescFieldConflict,
				Key:    key,
				Detail: "pattern and literal",
			})
		}
	}
	for i, p := range d.Precedence {
		switch assocType(p.Assoc) {
		case assocTypeLeft, assocTypeRight, assocTypeNonAssoc:
		default:
			errs = append(errs, &verr.SpecError{
				Cause:  ErrDescInvalidValue,
				Key:    fmt.Sprintf("precedence[%v].assoc", i),
				Detail: fmt.Sprintf("%q; assoc must be left, right, or nonassoc", p.Assoc),
			})
		}
	}
	for i, f := range d.Fallback {
		if f.Target == "" {
			errs = append(errs, &verr.SpecError{
				Cause: ErrDescMissingField,
				Key:   fmt.Sprintf("fallback[%v].target", i),
			})
		}
	}
	for i, p := range d.Productions {
		if p.LHS == "" {
			errs = append(errs, &verr.SpecError{
				Cause: ErrDescMissingField,
				Key:   fmt.Sprintf("productions[%v].lhs", i),
			})
		}
	}
	return errs
}

func (d *grammarDesc) builder() *Builder {
	b := NewBuilder(d.Name)
	if d.Start != "" {
		b.Start(d.Start)
	}
	for _, t := range d.Terminals {
		var opts []TerminalOption
		switch {
		case t.Pattern != "":
			opts = append(opts, Pattern(t.Pattern))
		case t.Literal != "":
			opts = append(opts, Literal(t.Literal))
		}
		if t.Skip {
			opts = append(opts, Skip())
		}
		if t.Alias != "" {
			opts = append(opts, Alias(t.Alias))
		}
		b.Terminal(t.Name, opts...)
	}
	for _, p := range d.Precedence {
		b.precedence(assocType(p.Assoc), p.Terminals)
	}
	for _, f := range d.Fallback {
		b.Fallback(f.Target, f.Terminals...)
	}
	if d.Wildcard != "" {
		b.Wildcard(d.Wildcard)
	}
	for _, p := range d.Productions {
		pb := b.LHS(p.LHS).RHS(p.RHS...)
		if p.Prec != "" {
			pb.Prec(p.Prec)
		}
		if p.Action != "" {
			pb.Action(p.Action)
		}
		if p.Recover {
			pb.Recover()
		}
		pb.End()
	}
	return b
}
