package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/hyiltiz/nushell/diag"
	"github.com/hyiltiz/nushell/engine"
	"github.com/hyiltiz/nushell/eval"
	"github.com/hyiltiz/nushell/loader"
	"github.com/hyiltiz/nushell/parser"
)

const (
	promptMain = "nush> "
	promptCont = "....> "
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive session",
	Long: `repl reads statements line by line and commits each one into the session.
A statement with diagnostics is reported and dropped, so the session only
ever absorbs lines that parsed cleanly. Type :scope to list the session and
:quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		es, err := newSession()
		if err != nil {
			return err
		}
		return repl(es)
	},
}

func init() {
	AddCommand(replCmd)
}

func repl(es *engine.EngineState) error {
	fmt.Printf("nush %s. Type :scope to list the session, :quit to exit.\n", Version)

	histPath := DefaultHistoryFile()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if histPath == "" {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}

	for {
		code, ok := readStatement(es, ln)
		if !ok {
			fmt.Println()
			return nil
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit", ":q":
				return nil
			case ":scope":
				if err := renderScope(os.Stdout, es, engine.NewStack()); err != nil {
					fmt.Fprintln(os.Stderr, err)
				}
			default:
				fmt.Println("unknown command. Type :scope to list the session, :quit to exit.")
			}
			continue
		}

		evalStatement(es, code)
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

// readStatement keeps prompting while the input so far ends in an unclosed
// body, signature, export-env block or import list, so multi-line
// definitions can be typed naturally. The probe parses into a throwaway
// working set that is never rendered.
func readStatement(es *engine.EngineState, ln *liner.State) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(promptMain)
		} else {
			line, err = ln.Prompt(promptCont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		probe := engine.NewWorkingSet(es)
		parser.Parse(probe, nil, "entry", []byte(src))
		if incomplete(probe.ParseErrors()) {
			continue
		}
		return src, true
	}
}

func incomplete(perrs []*engine.ParseError) bool {
	for _, perr := range perrs {
		if strings.HasPrefix(perr.Msg, "unclosed") {
			return true
		}
	}
	return false
}

// evalStatement parses and commits one interactive statement. Statements
// with diagnostics are reported and dropped; the working set holding them is
// simply never rendered.
func evalStatement(es *engine.EngineState, src string) {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	ws := engine.NewWorkingSet(es)
	ws.CurrentlyParsedDir = cwd
	blk := parser.Parse(ws, loader.NewOSResolver(), "entry", []byte(src))
	if ws.HasParseErrors() {
		for _, perr := range ws.ParseErrors() {
			diag.ReportParseError(ws, perr)
		}
		return
	}

	delta, err := ws.Render()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if err := es.MergeDelta(delta, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	stack := engine.NewStack()
	if err := eval.EvalBlock(es, stack, blk); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if err := es.MergeEnv(stack, cwd); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
