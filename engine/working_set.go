package engine

import (
	"github.com/hyiltiz/nushell/decl"
)

// VirtualDirEntry is one resolved child of a virtual directory node.
type VirtualDirEntry struct {
	ID   VirtualPathID
	Name string
	Path VirtualPath
}

// WorkingSet stages parse results against a read-only EngineState. IDs it
// hands out continue the committed numbering, so they stay valid unchanged
// once the delta merges. A working set is disposable: drop it and the
// session never sees anything it staged.
type WorkingSet struct {
	engine *EngineState
	delta  *StateDelta

	// CurrentlyParsedDir is the directory the parser resolves relative
	// module paths against. Callers that redirect it save the previous
	// value and put it back when done.
	CurrentlyParsedDir string

	parseErrors []*ParseError
	maxErrors   int
	rendered    bool
}

// NewWorkingSet opens a staging area on top of a session. The engine state
// is only read, never written; all additions collect in the delta.
func NewWorkingSet(es *EngineState) *WorkingSet {
	return &WorkingSet{
		engine:    es,
		delta:     newStateDelta(es),
		maxErrors: es.opts.MaxParseErrors,
	}
}

func (ws *WorkingSet) Engine() *EngineState { return ws.engine }

func (ws *WorkingSet) ensureLive() {
	if ws.rendered {
		panic("working set used after render")
	}
}

// --- Combined table sizes ---

func (ws *WorkingSet) NumFiles() int        { return ws.engine.NumFiles() + len(ws.delta.files) }
func (ws *WorkingSet) NumVirtualPaths() int { return ws.engine.NumVirtualPaths() + len(ws.delta.virtualPaths) }
func (ws *WorkingSet) NumVars() int         { return ws.engine.NumVars() + len(ws.delta.vars) }
func (ws *WorkingSet) NumDecls() int        { return ws.engine.NumDecls() + len(ws.delta.decls) }
func (ws *WorkingSet) NumBlocks() int       { return ws.engine.NumBlocks() + len(ws.delta.blocks) }
func (ws *WorkingSet) NumModules() int      { return ws.engine.NumModules() + len(ws.delta.modules) }

// --- Additions ---

// AddFile registers a source file and returns its ID. Files are never
// deduplicated: registering the same name twice yields two entries with two
// IDs, and the newer one shadows nothing because files are only reached by
// ID.
func (ws *WorkingSet) AddFile(name string, content []byte) FileID {
	ws.ensureLive()
	id := FileID(ws.NumFiles())
	ws.delta.files = append(ws.delta.files, decl.File{Name: name, Content: content})
	return id
}

// AddVirtualPath registers a node of the in-memory file tree under its full
// name. A later registration of the same name shadows the earlier one.
func (ws *WorkingSet) AddVirtualPath(name string, vp VirtualPath) VirtualPathID {
	ws.ensureLive()
	id := VirtualPathID(ws.NumVirtualPaths())
	ws.delta.virtualPaths = append(ws.delta.virtualPaths, vpathEntry{name: name, path: vp})
	return id
}

// AddDecl appends a declaration and binds its name into the frame new
// definitions currently target.
func (ws *WorkingSet) AddDecl(d *decl.Decl) DeclID {
	id := ws.AddExport(d)
	ws.delta.lastFrame().AddDecl(d.Key(), id)
	return id
}

// AddExport appends a declaration without binding its name anywhere. The
// declaration is reachable only through the module that lists it as an
// export, until a use brings it into scope.
func (ws *WorkingSet) AddExport(d *decl.Decl) DeclID {
	ws.ensureLive()
	id := DeclID(ws.NumDecls())
	ws.delta.decls = append(ws.delta.decls, d)
	return id
}

// UseDecl binds an existing declaration under a name in the current frame.
// This is how imports work: the declaration was appended when its module
// parsed, the use only adds a name for it.
func (ws *WorkingSet) UseDecl(name string, kind decl.Kind, id DeclID) {
	ws.ensureLive()
	ws.delta.lastFrame().AddDecl(NameKind{Name: name, Kind: kind}, id)
}

// UseModule binds an existing module under a name in the current frame.
func (ws *WorkingSet) UseModule(name string, id ModuleID) {
	ws.ensureLive()
	ws.delta.lastFrame().AddModule(name, id)
}

func (ws *WorkingSet) AddBlock(b *decl.Block) BlockID {
	ws.ensureLive()
	id := BlockID(ws.NumBlocks())
	ws.delta.blocks = append(ws.delta.blocks, b)
	return id
}

// AddModule appends a module and binds its name into the current frame.
func (ws *WorkingSet) AddModule(m *decl.Module) ModuleID {
	ws.ensureLive()
	id := ModuleID(ws.NumModules())
	ws.delta.modules = append(ws.delta.modules, m)
	ws.delta.lastFrame().AddModule(m.Name, id)
	return id
}

// AppendModule appends a module without binding its name anywhere. Nested
// modules are only reached through the parent that lists them.
func (ws *WorkingSet) AppendModule(m *decl.Module) ModuleID {
	ws.ensureLive()
	id := ModuleID(ws.NumModules())
	ws.delta.modules = append(ws.delta.modules, m)
	return id
}

// AddVariable appends a variable and binds its name into the current frame.
func (ws *WorkingSet) AddVariable(v *decl.Variable) VarID {
	ws.ensureLive()
	id := VarID(ws.NumVars())
	ws.delta.vars = append(ws.delta.vars, v)
	ws.delta.lastFrame().AddVar(v.Name, id)
	return id
}

// DefineOverlay starts a fresh frame that subsequent definitions target.
// Merging the delta creates the overlay if the session does not have it yet;
// it only becomes active through an activation directive.
func (ws *WorkingSet) DefineOverlay(name string, origin *ModuleID) *OverlayFrame {
	ws.ensureLive()
	frame := NewOverlayFrame(name)
	frame.Origin = origin
	ws.delta.scope = append(ws.delta.scope, frame)
	return frame
}

// --- Combined lookups, staged entries shadow committed ones ---

func (ws *WorkingSet) GetFile(id FileID) (*decl.File, bool) {
	if int(id) < ws.engine.NumFiles() {
		return ws.engine.GetFile(id)
	}
	idx := int(id) - ws.engine.NumFiles()
	if idx < 0 || idx >= len(ws.delta.files) {
		return nil, false
	}
	return &ws.delta.files[idx], true
}

func (ws *WorkingSet) GetVirtualPath(id VirtualPathID) (string, VirtualPath, bool) {
	if int(id) < ws.engine.NumVirtualPaths() {
		return ws.engine.GetVirtualPath(id)
	}
	idx := int(id) - ws.engine.NumVirtualPaths()
	if idx < 0 || idx >= len(ws.delta.virtualPaths) {
		return "", VirtualPath{}, false
	}
	entry := ws.delta.virtualPaths[idx]
	return entry.name, entry.path, true
}

func (ws *WorkingSet) GetDecl(id DeclID) (*decl.Decl, bool) {
	if int(id) < ws.engine.NumDecls() {
		return ws.engine.GetDecl(id)
	}
	idx := int(id) - ws.engine.NumDecls()
	if idx < 0 || idx >= len(ws.delta.decls) {
		return nil, false
	}
	return ws.delta.decls[idx], true
}

func (ws *WorkingSet) GetBlock(id BlockID) (*decl.Block, bool) {
	if int(id) < ws.engine.NumBlocks() {
		return ws.engine.GetBlock(id)
	}
	idx := int(id) - ws.engine.NumBlocks()
	if idx < 0 || idx >= len(ws.delta.blocks) {
		return nil, false
	}
	return ws.delta.blocks[idx], true
}

func (ws *WorkingSet) GetModule(id ModuleID) (*decl.Module, bool) {
	if int(id) < ws.engine.NumModules() {
		return ws.engine.GetModule(id)
	}
	idx := int(id) - ws.engine.NumModules()
	if idx < 0 || idx >= len(ws.delta.modules) {
		return nil, false
	}
	return ws.delta.modules[idx], true
}

func (ws *WorkingSet) GetVar(id VarID) (*decl.Variable, bool) {
	if int(id) < ws.engine.NumVars() {
		return ws.engine.GetVar(id)
	}
	idx := int(id) - ws.engine.NumVars()
	if idx < 0 || idx >= len(ws.delta.vars) {
		return nil, false
	}
	return ws.delta.vars[idx], true
}

// FindVirtualPath resolves a full virtual path name, staged entries first.
func (ws *WorkingSet) FindVirtualPath(name string) (VirtualPathID, bool) {
	for i := len(ws.delta.virtualPaths) - 1; i >= 0; i-- {
		if ws.delta.virtualPaths[i].name == name {
			return VirtualPathID(ws.engine.NumVirtualPaths() + i), true
		}
	}
	return ws.engine.FindVirtualPath(name)
}

// VirtualDirEntries resolves a directory node's children to named entries,
// in the order the directory lists them.
func (ws *WorkingSet) VirtualDirEntries(vp VirtualPath) []VirtualDirEntry {
	out := make([]VirtualDirEntry, 0, len(vp.Children))
	for _, child := range vp.Children {
		name, node, ok := ws.GetVirtualPath(child)
		if !ok {
			continue
		}
		out = append(out, VirtualDirEntry{ID: child, Name: name, Path: node})
	}
	return out
}

// FindDecl looks a name up through the staged frames newest first, then the
// committed overlay stack.
func (ws *WorkingSet) FindDecl(name string, kind decl.Kind) (DeclID, bool) {
	key := NameKind{Name: name, Kind: kind}
	for i := len(ws.delta.scope) - 1; i >= 0; i-- {
		if id, ok := ws.delta.scope[i].Decl(key); ok {
			return id, true
		}
	}
	return ws.engine.FindDecl(name, kind)
}

func (ws *WorkingSet) FindModule(name string) (ModuleID, bool) {
	for i := len(ws.delta.scope) - 1; i >= 0; i-- {
		if id, ok := ws.delta.scope[i].Module(name); ok {
			return id, true
		}
	}
	return ws.engine.FindModule(name)
}

func (ws *WorkingSet) FindVar(name string) (VarID, bool) {
	for i := len(ws.delta.scope) - 1; i >= 0; i-- {
		if id, ok := ws.delta.scope[i].Var(name); ok {
			return id, true
		}
	}
	return ws.engine.FindVar(name)
}

// --- Parse diagnostics ---

// AddParseError records a diagnostic. Order of recording is preserved; when
// a cap is configured, diagnostics past it are dropped.
func (ws *WorkingSet) AddParseError(perr *ParseError) {
	ws.ensureLive()
	if ws.maxErrors > 0 && len(ws.parseErrors) >= ws.maxErrors {
		return
	}
	ws.parseErrors = append(ws.parseErrors, perr)
}

func (ws *WorkingSet) ParseErrors() []*ParseError { return ws.parseErrors }

func (ws *WorkingSet) HasParseErrors() bool { return len(ws.parseErrors) > 0 }

// --- Rendering ---

// Render closes the working set and hands its delta to the caller, normally
// straight into MergeDelta. A working set renders once; afterwards it is
// spent and any further addition panics.
func (ws *WorkingSet) Render() (*StateDelta, error) {
	if ws.rendered {
		return nil, ErrRendered
	}
	ws.rendered = true
	return ws.delta, nil
}

// --- Diagnostics source ---

// FileName returns the registered name for a file ID, staged or committed.
func (ws *WorkingSet) FileName(id FileID) string {
	if f, ok := ws.GetFile(id); ok {
		return f.Name
	}
	return ""
}

// FileContent returns the registered contents for a file ID.
func (ws *WorkingSet) FileContent(id FileID) []byte {
	if f, ok := ws.GetFile(id); ok {
		return f.Content
	}
	return nil
}
