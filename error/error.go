package error

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// SpecError reports a problem in a grammar description. Key is the dotted TOML key the problem was found
// at, and Row is a 1-based line number when the position is known.
type SpecError struct {
	Cause      error
	Detail     string
	FilePath   string
	SourceName string
	Key        string
	Row        int
}

func (e *SpecError) Error() string {
	var b strings.Builder
	if e.SourceName != "" {
		fmt.Fprintf(&b, "%v: ", e.SourceName)
	}
	if e.Row != 0 {
		fmt.Fprintf(&b, "%v: ", e.Row)
	}
	fmt.Fprintf(&b, "error: %v", e.Cause)
	if e.Key != "" {
		fmt.Fprintf(&b, ": %v", e.Key)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %v", e.Detail)
	}

	line := readLine(e.FilePath, e.Row)
	if line != "" {
		fmt.Fprintf(&b, "\n    %v", line)
	}

	return b.String()
}

func (e *SpecError) Unwrap() error {
	return e.Cause
}

type SpecErrors []*SpecError

func (e SpecErrors) Error() string {
	var b strings.Builder
	for i, err := range e {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

func readLine(filePath string, row int) string {
	if filePath == "" || row <= 0 {
		return ""
	}

	f, err := os.Open(filePath)
	if err != nil {
		return ""
	}
	defer f.Close()

	i := 1
	s := bufio.NewScanner(f)
	for s.Scan() {
		if i == row {
			return s.Text()
		}
		i++
	}

	return ""
}
