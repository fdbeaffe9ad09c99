package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyiltiz/nushell/decl"
	"github.com/hyiltiz/nushell/diag"
	"github.com/hyiltiz/nushell/engine"
	"github.com/hyiltiz/nushell/eval"
	"github.com/hyiltiz/nushell/loader"
	"github.com/hyiltiz/nushell/parser"
)

// newSession builds an engine state per the global flags: the parent
// process environment is snapshotted in, then the bundled standard library
// is parsed and committed unless --no-stdlib asked for an empty session.
func newSession() (*engine.EngineState, error) {
	opts := engine.DefaultOptions()
	opts.Logger = slog.Default()
	opts.StrictParse = strictParse
	es := engine.NewEngineState(opts)
	for _, kv := range os.Environ() {
		if name, val, ok := strings.Cut(kv, "="); ok {
			es.AddEnvVar(name, decl.StringValue(val))
		}
	}
	if !skipStdlib {
		if err := loader.LoadStandardLibrary(es); err != nil {
			return nil, err
		}
	}
	return es, nil
}

// sourceScript parses one script and commits it into the session: parse,
// render, merge, then run the top-level assignments and import hooks and
// fold their environment edits back in. Relative module imports inside the
// script resolve against the script's own directory.
func sourceScript(es *engine.EngineState, scriptPath string) error {
	content, err := os.ReadFile(scriptPath)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(scriptPath)
	if err != nil {
		return err
	}

	ws := engine.NewWorkingSet(es)
	ws.CurrentlyParsedDir = filepath.Dir(abs)
	blk := parser.Parse(ws, loader.NewOSResolver(), scriptPath, content)
	if ws.HasParseErrors() {
		for _, perr := range ws.ParseErrors() {
			diag.ReportParseError(ws, perr)
		}
		if es.Options().StrictParse {
			return fmt.Errorf("%d parse error(s) in %s", len(ws.ParseErrors()), scriptPath)
		}
	}

	delta, err := ws.Render()
	if err != nil {
		return err
	}
	if err := es.MergeDelta(delta, nil); err != nil {
		return fmt.Errorf("commit of %s failed: %w", scriptPath, err)
	}

	stack := engine.NewStack()
	if err := eval.EvalBlock(es, stack, blk); err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	return es.MergeEnv(stack, cwd)
}
