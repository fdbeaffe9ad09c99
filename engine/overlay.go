package engine

// DeclEntry is one (name, kind) registration inside an overlay frame.
type DeclEntry struct {
	Key NameKind
	ID  DeclID
}

// ModuleEntry is one module name registration inside an overlay frame.
type ModuleEntry struct {
	Name string
	ID   ModuleID
}

// VarEntry is one variable name registration inside an overlay frame.
type VarEntry struct {
	Name string
	ID   VarID
}

// OverlayFrame is one named group of visible definitions. Frames activate in
// order and the most recently activated frame wins name collisions, while an
// earlier frame's entries stay reachable by qualified lookup. All three
// registries keep first-registration order; re-registering a name updates
// the entry in place.
type OverlayFrame struct {
	Name string

	// Origin is the module this overlay was brought in from, nil for
	// overlays that exist on their own such as the default one.
	Origin *ModuleID

	declOrder   []NameKind
	decls       map[NameKind]DeclID
	moduleOrder []string
	modules     map[string]ModuleID
	varOrder    []string
	vars        map[string]VarID
}

func NewOverlayFrame(name string) *OverlayFrame {
	return &OverlayFrame{
		Name:    name,
		decls:   make(map[NameKind]DeclID),
		modules: make(map[string]ModuleID),
		vars:    make(map[string]VarID),
	}
}

func (f *OverlayFrame) AddDecl(key NameKind, id DeclID) {
	if _, ok := f.decls[key]; !ok {
		f.declOrder = append(f.declOrder, key)
	}
	f.decls[key] = id
}

func (f *OverlayFrame) Decl(key NameKind) (DeclID, bool) {
	id, ok := f.decls[key]
	return id, ok
}

func (f *OverlayFrame) AddModule(name string, id ModuleID) {
	if _, ok := f.modules[name]; !ok {
		f.moduleOrder = append(f.moduleOrder, name)
	}
	f.modules[name] = id
}

func (f *OverlayFrame) Module(name string) (ModuleID, bool) {
	id, ok := f.modules[name]
	return id, ok
}

func (f *OverlayFrame) AddVar(name string, id VarID) {
	if _, ok := f.vars[name]; !ok {
		f.varOrder = append(f.varOrder, name)
	}
	f.vars[name] = id
}

func (f *OverlayFrame) Var(name string) (VarID, bool) {
	id, ok := f.vars[name]
	return id, ok
}

// DeclEntries snapshots the decl registry in registration order.
func (f *OverlayFrame) DeclEntries() []DeclEntry {
	out := make([]DeclEntry, 0, len(f.declOrder))
	for _, key := range f.declOrder {
		out = append(out, DeclEntry{Key: key, ID: f.decls[key]})
	}
	return out
}

// ModuleEntries snapshots the module registry in registration order.
func (f *OverlayFrame) ModuleEntries() []ModuleEntry {
	out := make([]ModuleEntry, 0, len(f.moduleOrder))
	for _, name := range f.moduleOrder {
		out = append(out, ModuleEntry{Name: name, ID: f.modules[name]})
	}
	return out
}

// VarEntries snapshots the variable registry in registration order.
func (f *OverlayFrame) VarEntries() []VarEntry {
	out := make([]VarEntry, 0, len(f.varOrder))
	for _, name := range f.varOrder {
		out = append(out, VarEntry{Name: name, ID: f.vars[name]})
	}
	return out
}

func (f *OverlayFrame) IsEmpty() bool {
	return len(f.declOrder) == 0 && len(f.moduleOrder) == 0 && len(f.varOrder) == 0
}

// extendFrom folds another frame's registrations into this one, keeping the
// other frame's registration order for names not seen before.
func (f *OverlayFrame) extendFrom(other *OverlayFrame) {
	for _, key := range other.declOrder {
		f.AddDecl(key, other.decls[key])
	}
	for _, name := range other.moduleOrder {
		f.AddModule(name, other.modules[name])
	}
	for _, name := range other.varOrder {
		f.AddVar(name, other.vars[name])
	}
	if f.Origin == nil && other.Origin != nil {
		f.Origin = other.Origin
	}
}
