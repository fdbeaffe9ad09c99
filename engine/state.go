package engine

import (
	"fmt"
	"log/slog"
	"path/filepath"

	gfn "github.com/panyam/goutils/fn"

	"github.com/hyiltiz/nushell/decl"
)

// DefaultOverlayName is the overlay every session starts with. Top-level
// definitions land here unless a module overlay has been activated.
const DefaultOverlayName = "zero"

// VirtualRootToken is the reserved first segment of virtual paths. It is
// deliberately a name unlikely to exist on a real file system, so the
// embedded library can never collide with a user's 'std' directory.
const VirtualRootToken = "NU_STDLIB_VIRTUAL_DIR"

type vpathEntry struct {
	name string
	path VirtualPath
}

// EngineState is the committed half of a session: every file, declaration,
// block, module, variable and virtual path that has ever been merged, plus
// the overlay stack that says which names are visible and the session's
// environment snapshot.
//
// All tables are append-only. The only mutations are MergeDelta, which folds
// in a rendered working set atomically, and MergeEnv, which folds in a
// stack's environment edits. Like the rest of the session state it is owned
// by one goroutine at a time.
type EngineState struct {
	files        []decl.File
	virtualPaths []vpathEntry
	vars         []*decl.Variable
	decls        []*decl.Decl
	blocks       []*decl.Block
	modules      []*decl.Module

	overlays []*OverlayFrame
	active   []OverlayID // activation order, last one wins lookups

	env *Env[Value]
	cwd string // origin directory of the most recent env merge

	opts *Options
	log  *slog.Logger
}

// NewEngineState creates an empty session with the default overlay active.
// A nil opts means DefaultOptions.
func NewEngineState(opts *Options) *EngineState {
	if opts == nil {
		opts = DefaultOptions()
	} else {
		opts = opts.clone()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := &EngineState{
		env:  NewEnv[Value](nil),
		opts: opts,
		log:  logger,
	}
	e.overlays = append(e.overlays, NewOverlayFrame(DefaultOverlayName))
	e.active = append(e.active, 0)
	return e
}

func (e *EngineState) Options() *Options { return e.opts }

// --- Table sizes ---

func (e *EngineState) NumFiles() int        { return len(e.files) }
func (e *EngineState) NumVirtualPaths() int { return len(e.virtualPaths) }
func (e *EngineState) NumVars() int         { return len(e.vars) }
func (e *EngineState) NumDecls() int        { return len(e.decls) }
func (e *EngineState) NumBlocks() int       { return len(e.blocks) }
func (e *EngineState) NumModules() int      { return len(e.modules) }

// --- Table access by ID ---

func (e *EngineState) GetFile(id FileID) (*decl.File, bool) {
	if id < 0 || int(id) >= len(e.files) {
		return nil, false
	}
	return &e.files[id], true
}

func (e *EngineState) GetVirtualPath(id VirtualPathID) (string, VirtualPath, bool) {
	if id < 0 || int(id) >= len(e.virtualPaths) {
		return "", VirtualPath{}, false
	}
	entry := e.virtualPaths[id]
	return entry.name, entry.path, true
}

func (e *EngineState) GetVar(id VarID) (*decl.Variable, bool) {
	if id < 0 || int(id) >= len(e.vars) {
		return nil, false
	}
	return e.vars[id], true
}

func (e *EngineState) GetDecl(id DeclID) (*decl.Decl, bool) {
	if id < 0 || int(id) >= len(e.decls) {
		return nil, false
	}
	return e.decls[id], true
}

func (e *EngineState) GetBlock(id BlockID) (*decl.Block, bool) {
	if id < 0 || int(id) >= len(e.blocks) {
		return nil, false
	}
	return e.blocks[id], true
}

func (e *EngineState) GetModule(id ModuleID) (*decl.Module, bool) {
	if id < 0 || int(id) >= len(e.modules) {
		return nil, false
	}
	return e.modules[id], true
}

// --- Name lookups ---

// FindVirtualPath resolves a full virtual path name to its node. Later
// registrations shadow earlier ones of the same name.
func (e *EngineState) FindVirtualPath(name string) (VirtualPathID, bool) {
	for i := len(e.virtualPaths) - 1; i >= 0; i-- {
		if e.virtualPaths[i].name == name {
			return VirtualPathID(i), true
		}
	}
	return 0, false
}

// FindDecl looks a declaration up through the active overlays, most recently
// activated first.
func (e *EngineState) FindDecl(name string, kind decl.Kind) (DeclID, bool) {
	key := NameKind{Name: name, Kind: kind}
	for i := len(e.active) - 1; i >= 0; i-- {
		frame := e.overlays[e.active[i]]
		if id, ok := frame.Decl(key); ok {
			return id, true
		}
	}
	return 0, false
}

// FindDeclQualified pins the lookup to one overlay by name, reaching
// declarations that a later overlay shadows.
func (e *EngineState) FindDeclQualified(overlay, name string, kind decl.Kind) (DeclID, bool) {
	oid, ok := e.FindOverlay(overlay)
	if !ok {
		return 0, false
	}
	return e.overlays[oid].Decl(NameKind{Name: name, Kind: kind})
}

func (e *EngineState) FindModule(name string) (ModuleID, bool) {
	for i := len(e.active) - 1; i >= 0; i-- {
		frame := e.overlays[e.active[i]]
		if id, ok := frame.Module(name); ok {
			return id, true
		}
	}
	return 0, false
}

func (e *EngineState) FindVar(name string) (VarID, bool) {
	for i := len(e.active) - 1; i >= 0; i-- {
		frame := e.overlays[e.active[i]]
		if id, ok := frame.Var(name); ok {
			return id, true
		}
	}
	return 0, false
}

func (e *EngineState) FindOverlay(name string) (OverlayID, bool) {
	for i, frame := range e.overlays {
		if frame.Name == name {
			return OverlayID(i), true
		}
	}
	return 0, false
}

// --- Overlays ---

// ActiveOverlays returns the active frames in activation order, least
// recently activated first.
func (e *EngineState) ActiveOverlays() []*OverlayFrame {
	out := make([]*OverlayFrame, 0, len(e.active))
	for _, id := range e.active {
		out = append(out, e.overlays[id])
	}
	return out
}

func (e *EngineState) ActiveOverlayNames() []string {
	return gfn.Map(e.ActiveOverlays(), func(f *OverlayFrame) string { return f.Name })
}

// CurrentOverlay is the most recently activated frame; new top-level
// definitions attach to it.
func (e *EngineState) CurrentOverlay() *OverlayFrame {
	return e.overlays[e.active[len(e.active)-1]]
}

func (e *EngineState) activateOverlay(id OverlayID) {
	for i, a := range e.active {
		if a == id {
			e.active = append(e.active[:i], e.active[i+1:]...)
			break
		}
	}
	e.active = append(e.active, id)
	e.log.Debug("overlay activated", "overlay", e.overlays[id].Name, "stack", e.ActiveOverlayNames())
}

// --- Environment ---

// AddEnvVar records one session environment variable directly, bypassing the
// stack merge. Used when seeding the snapshot from the parent process.
func (e *EngineState) AddEnvVar(name string, v Value) {
	e.env.Set(name, v)
}

func (e *EngineState) EnvVar(name string) (Value, bool) {
	return e.env.Get(name)
}

// Env exposes the live session environment snapshot. Callers may iterate it
// but folding in changes goes through MergeEnv.
func (e *EngineState) Env() *Env[Value] { return e.env }

// Cwd is the origin directory of the most recent environment merge, empty
// before the first one.
func (e *EngineState) Cwd() string { return e.cwd }

// MergeEnv folds a stack's environment edits into the session snapshot,
// last writer wins, and records cwd as the directory the merge originated
// from. The directory must be absolute; a session cannot take an
// environment from nowhere.
func (e *EngineState) MergeEnv(stack *Stack, cwd string) error {
	if stack == nil {
		return fmt.Errorf("merge env: nil stack")
	}
	if cwd == "" || !filepath.IsAbs(cwd) {
		return fmt.Errorf("%w: %q", ErrMergeDir, cwd)
	}
	e.env.CopyFrom(stack.env)
	e.cwd = cwd
	e.log.Debug("merged env", "vars", stack.env.Len(), "cwd", cwd)
	return nil
}

// --- Delta merging ---

// MergeDelta folds a rendered working set into the committed state:
// referential integrity is validated first, then tables extend, then scope
// frames fold into their overlays, then the optional activation directive
// applies. A validation failure applies nothing.
func (e *EngineState) MergeDelta(d *StateDelta, act *OverlayActivation) error {
	if d == nil {
		d = &StateDelta{}
	}
	if err := d.validate(e, act); err != nil {
		return err
	}

	e.files = append(e.files, d.files...)
	e.virtualPaths = append(e.virtualPaths, d.virtualPaths...)
	e.vars = append(e.vars, d.vars...)
	e.decls = append(e.decls, d.decls...)
	e.blocks = append(e.blocks, d.blocks...)
	e.modules = append(e.modules, d.modules...)

	for _, frame := range d.scope {
		if id, ok := e.FindOverlay(frame.Name); ok {
			e.overlays[id].extendFrom(frame)
		} else {
			e.overlays = append(e.overlays, frame)
		}
	}

	if act != nil {
		id, ok := e.FindOverlay(act.Name)
		if !ok {
			// validate() vouched for it
			return fmt.Errorf("%w: overlay %q", ErrNotFound, act.Name)
		}
		e.activateOverlay(id)
	}

	e.log.Debug("merged delta",
		"files", len(d.files),
		"vpaths", len(d.virtualPaths),
		"vars", len(d.vars),
		"decls", len(d.decls),
		"blocks", len(d.blocks),
		"modules", len(d.modules))
	return nil
}

// --- Diagnostics source ---

// FileName returns the registered name for a file ID, for error rendering.
func (e *EngineState) FileName(id FileID) string {
	if f, ok := e.GetFile(id); ok {
		return f.Name
	}
	return ""
}

// FileContent returns the registered contents for a file ID.
func (e *EngineState) FileContent(id FileID) []byte {
	if f, ok := e.GetFile(id); ok {
		return f.Content
	}
	return nil
}
