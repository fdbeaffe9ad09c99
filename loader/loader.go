// Package loader mounts the embedded standard library into a session and
// resolves on-disk module files for the parser.
package loader

import (
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/hyiltiz/nushell/decl"
	"github.com/hyiltiz/nushell/diag"
	"github.com/hyiltiz/nushell/engine"
	"github.com/hyiltiz/nushell/eval"
	"github.com/hyiltiz/nushell/parser"
)

//go:embed std/*.nu
var stdFS embed.FS

// stdModules lists the embedded standard library in load order, each with
// the name it mounts under inside the virtual std directory. Later entries
// may import names defined by earlier ones, so the order is part of the
// contract. mod.nu keeps its extension; it supplies the std module's own
// exports rather than a submodule.
var stdModules = []struct {
	mount string
	file  string
}{
	{"log", "std/log.nu"},
	{"mod.nu", "std/mod.nu"},
	{"assert", "std/assert.nu"},
	{"dirs", "std/dirs.nu"},
	{"iter", "std/iter.nu"},
	{"help", "std/help.nu"},
}

// bootstrapSource mounts the std directory as a module and pulls the prelude
// names into the top-level namespace.
func bootstrapSource(stdDir string) string {
	return fmt.Sprintf(`# Define the standard library module.
module %s

# Prelude.
use std dirs [ enter shells g n p dexit ]
use std pwd
`, stdDir)
}

type stdSource struct {
	mount   string
	content []byte
}

// LoadStandardLibrary mounts the embedded standard library: every source is
// registered under the virtual root, the bootstrap that defines the std
// module and its prelude imports is parsed, the delta commits, and the
// resulting block runs on a fresh stack whose environment merges back into
// the session. With StrictParse set any parse diagnostic aborts before the
// commit; otherwise the first diagnostic is reported and loading continues
// with whatever parsed.
func LoadStandardLibrary(es *engine.EngineState) error {
	sources := make([]stdSource, 0, len(stdModules))
	for _, m := range stdModules {
		content, err := stdFS.ReadFile(m.file)
		if err != nil {
			return fmt.Errorf("standard library bundle is missing %s: %w", m.file, err)
		}
		sources = append(sources, stdSource{mount: m.mount, content: content})
	}
	return loadVirtualLibrary(es, sources)
}

// loadVirtualLibrary is the whole bootstrap pipeline. LoadStandardLibrary
// feeds it the embedded bundle; tests feed it their own.
func loadVirtualLibrary(es *engine.EngineState, sources []stdSource) error {
	start := time.Now()
	log := es.Options().Logger

	ws := engine.NewWorkingSet(es)
	stdDir := path.Join(engine.VirtualRootToken, "std")

	children := make([]engine.VirtualPathID, 0, len(sources))
	for _, src := range sources {
		name := stdDir + "/" + src.mount
		fid := ws.AddFile(name, src.content)
		children = append(children, ws.AddVirtualPath(name, decl.NewVirtualFile(fid)))
	}
	ws.AddVirtualPath(stdDir, decl.NewVirtualDir(children))

	prevDir := ws.CurrentlyParsedDir
	ws.CurrentlyParsedDir = engine.VirtualRootToken
	blk := parser.Parse(ws, nil, "loading stdlib", []byte(bootstrapSource(stdDir)))
	ws.CurrentlyParsedDir = prevDir

	if ws.HasParseErrors() {
		perr := ws.ParseErrors()[0]
		if es.Options().StrictParse {
			return fmt.Errorf("standard library failed to parse: %w", perr)
		}
		diag.ReportParseError(ws, perr)
	}

	delta, err := ws.Render()
	if err != nil {
		return err
	}
	if err := es.MergeDelta(delta, nil); err != nil {
		return fmt.Errorf("standard library commit failed: %w", err)
	}

	stack := engine.NewStack()
	if err := eval.EvalBlock(es, stack, blk); err != nil {
		return err
	}
	cwd, err := sessionDir(es, stack)
	if err != nil {
		return err
	}
	if err := es.MergeEnv(stack, cwd); err != nil {
		return fmt.Errorf("environment merge after stdlib load: %w", err)
	}

	log.Debug("standard library loaded",
		"modules", len(sources),
		"decls", es.NumDecls(),
		"took", time.Since(start))
	return nil
}

// sessionDir picks the working directory recorded on environment merge: an
// absolute PWD as the evaluated stack sees it, pending edits before the
// session environment, the process directory otherwise.
func sessionDir(es *engine.EngineState, stack *engine.Stack) (string, error) {
	if v, ok := stack.EnvVar(es, "PWD"); ok && v.Kind == decl.KindString && filepath.IsAbs(v.Str) {
		return v.Str, nil
	}
	return os.Getwd()
}
