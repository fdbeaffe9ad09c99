// Package diag renders parse diagnostics with their source context, the way
// a shell user expects to see them: message, location, offending line, caret.
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/hyiltiz/nushell/decl"
)

// Source hands the reporter names and contents for the files spans point at.
// Both the session state and a live working set satisfy it.
type Source interface {
	FileName(decl.FileID) string
	FileContent(decl.FileID) []byte
}

var (
	errLabel  = color.New(color.FgRed, color.Bold)
	posLabel  = color.New(color.FgCyan)
	helpLabel = color.New(color.FgGreen)
)

// ReportParseError renders one diagnostic to stderr.
func ReportParseError(src Source, perr *decl.ParseError) {
	FprintParseError(os.Stderr, src, perr)
}

// FprintParseError renders a diagnostic with the offending source line and a
// caret under its span. Spans without a usable file fall back to the bare
// message.
func FprintParseError(w io.Writer, src Source, perr *decl.ParseError) {
	errLabel.Fprint(w, "error")
	fmt.Fprintf(w, ": %s\n", perr.Msg)

	var content []byte
	if !perr.Span.IsUnknown() {
		content = src.FileContent(perr.Span.File)
	}
	if content == nil {
		if perr.Help != "" {
			fmt.Fprintf(w, " = %s %s\n", helpLabel.Sprint("help:"), perr.Help)
		}
		return
	}

	line, col, text := locate(content, perr.Span.Start)
	width := perr.Span.Len()
	if limit := len(text) - (col - 1); width > limit {
		width = limit
	}
	if width < 1 {
		width = 1
	}

	gutter := fmt.Sprintf("%d", line)
	pad := strings.Repeat(" ", len(gutter))
	fmt.Fprintf(w, "%s--> %s\n", pad, posLabel.Sprintf("%s:%d:%d", src.FileName(perr.Span.File), line, col))
	fmt.Fprintf(w, "%s |\n", pad)
	fmt.Fprintf(w, "%s | %s\n", gutter, text)
	fmt.Fprintf(w, "%s | %s%s\n", pad, strings.Repeat(" ", col-1), errLabel.Sprint(strings.Repeat("^", width)))
	if perr.Help != "" {
		fmt.Fprintf(w, "%s = %s %s\n", pad, helpLabel.Sprint("help:"), perr.Help)
	}
}

// locate converts a byte offset into a 1-based line and column plus the text
// of the line it falls on.
func locate(content []byte, offset int) (line, col int, text string) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(content) {
		offset = len(content)
	}
	line = 1
	lineStart := 0
	for i := 0; i < offset; i++ {
		if content[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	lineEnd := lineStart
	for lineEnd < len(content) && content[lineEnd] != '\n' {
		lineEnd++
	}
	return line, offset - lineStart + 1, string(content[lineStart:lineEnd])
}
