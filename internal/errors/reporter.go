package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Reporter formats compiler errors against the original source text with
// caret-style context lines.
type Reporter struct {
	filename string
	lines    []string
}

// NewReporter creates a reporter for one source file.
func NewReporter(filename, source string) *Reporter {
	return &Reporter{
		filename: filename,
		lines:    strings.Split(source, "\n"),
	}
}

// Format renders a single error with its source line and a caret marker.
func (r *Reporter) Format(err CompilerError) string {
	var result strings.Builder

	levelColor := color.New(color.FgRed, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	result.WriteString(fmt.Sprintf("%s: %s\n", levelColor(string(err.Kind)), err.Message))

	if err.Position.Line <= 0 || err.Position.Line > len(r.lines) {
		return result.String()
	}

	lineNumberWidth := len(fmt.Sprintf("%d", err.Position.Line))
	indent := strings.Repeat(" ", lineNumberWidth)

	result.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n",
		indent, dim("-->"), r.filename, err.Position.Line, err.Position.Column))
	result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

	line := r.lines[err.Position.Line-1]
	result.WriteString(fmt.Sprintf("%s %s %s\n",
		dim(fmt.Sprintf("%*d", lineNumberWidth, err.Position.Line)), dim("│"), line))

	caretCol := err.Position.Column
	if caretCol < 1 {
		caretCol = 1
	}
	length := err.Length
	if length < 1 {
		length = 1
	}
	caret := strings.Repeat(" ", caretCol-1) + strings.Repeat("^", length)
	result.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), levelColor(caret)))

	return result.String()
}

// FormatAll renders a list of errors separated by blank lines.
func (r *Reporter) FormatAll(errs []CompilerError) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		parts = append(parts, r.Format(err))
	}
	return strings.Join(parts, "\n")
}
