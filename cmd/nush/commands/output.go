package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/hyiltiz/nushell/engine"
	"github.com/hyiltiz/nushell/scope"
)

var (
	// sectionStyle for scope section headers
	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// nameStyle for identifier names
	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// dimStyle for overlay names, usage text and other metadata
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// envStyle for the export-env marker on modules
	envStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))
)

// termWidth reports the usable display width, falling back to 80 columns
// when stdout is not a terminal.
func termWidth() int {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return 80
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func namePad[T any](rows []T, name func(T) string) int {
	pad := 0
	for _, r := range rows {
		if n := len(name(r)); n > pad {
			pad = n
		}
	}
	return pad
}

// FormatCommands writes one aligned line per visible command: the name, then
// the first usage line dimmed.
func FormatCommands(w io.Writer, rows []scope.Command) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Commands (%d)", len(rows))))
	width := termWidth()
	pad := namePad(rows, func(r scope.Command) string { return r.Name })
	for _, r := range rows {
		usage := truncate(firstLine(r.Usage), width-pad-4)
		fmt.Fprintf(w, "  %s  %s\n",
			nameStyle.Render(fmt.Sprintf("%-*s", pad, r.Name)),
			dimStyle.Render(usage))
	}
}

// FormatAliases writes one aligned line per visible alias and its expansion.
func FormatAliases(w io.Writer, rows []scope.Alias) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Aliases (%d)", len(rows))))
	width := termWidth()
	pad := namePad(rows, func(r scope.Alias) string { return r.Name })
	for _, r := range rows {
		expansion := truncate(firstLine(r.Expansion), width-pad-7)
		fmt.Fprintf(w, "  %s  %s %s\n",
			nameStyle.Render(fmt.Sprintf("%-*s", pad, r.Name)),
			dimStyle.Render("="), expansion)
	}
}

// FormatExterns writes one aligned line per visible extern signature.
func FormatExterns(w io.Writer, rows []scope.Extern) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Externs (%d)", len(rows))))
	width := termWidth()
	for _, r := range rows {
		fmt.Fprintf(w, "  %s\n", nameStyle.Render(truncate(r.Signature, width-2)))
	}
}

// FormatModules writes one line per visible module: exports, submodules and
// whether the module carries an export-env block.
func FormatModules(w io.Writer, rows []scope.Module) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Modules (%d)", len(rows))))
	width := termWidth()
	pad := namePad(rows, func(r scope.Module) string { return r.Name })
	for _, r := range rows {
		var detail []string
		if len(r.Commands) > 0 {
			detail = append(detail, strings.Join(r.Commands, ", "))
		}
		if len(r.Submodules) > 0 {
			detail = append(detail, "mod "+strings.Join(r.Submodules, ", mod "))
		}
		line := fmt.Sprintf("  %s  %s",
			nameStyle.Render(fmt.Sprintf("%-*s", pad, r.Name)),
			dimStyle.Render(truncate(strings.Join(detail, "; "), width-pad-16)))
		if r.HasEnvBlock {
			line += " " + envStyle.Render("export-env")
		}
		fmt.Fprintln(w, line)
	}
}

// FormatVariables writes one aligned line per visible variable binding.
func FormatVariables(w io.Writer, rows []scope.Variable) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Variables (%d)", len(rows))))
	width := termWidth()
	pad := namePad(rows, func(r scope.Variable) string {
		if r.Mutable {
			return "mut $" + r.Name
		}
		return "$" + r.Name
	})
	for _, r := range rows {
		name := "$" + r.Name
		if r.Mutable {
			name = "mut " + name
		}
		value := truncate(firstLine(r.Value), width-pad-4)
		fmt.Fprintf(w, "  %s  %s\n",
			nameStyle.Render(fmt.Sprintf("%-*s", pad, name)),
			dimStyle.Render(value))
	}
}

// FormatSessionSummary prints the identifier table sizes after a commit.
func FormatSessionSummary(w io.Writer, es *engine.EngineState) {
	fmt.Fprintf(w, "%s %d files, %d decls, %d modules, %d vars, %d blocks, %d virtual paths\n",
		dimStyle.Render("session:"),
		es.NumFiles(), es.NumDecls(), es.NumModules(),
		es.NumVars(), es.NumBlocks(), es.NumVirtualPaths())
}
