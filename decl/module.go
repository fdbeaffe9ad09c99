package decl

import (
	gfn "github.com/panyam/goutils/fn"
)

// Export is one name a module makes visible to importers.
type Export struct {
	Name string
	Decl DeclID
}

// Submodule links a nested module under its parent's namespace.
type Submodule struct {
	Name   string
	Module ModuleID
}

// Module is a named namespace of exports and nested modules. Exports and
// Submodules keep definition order; redefining a name updates the entry in
// place so enumeration order never depends on redefinition order.
type Module struct {
	Name       string
	Usage      string // one line description, from the doc comment
	Span       Span
	Exports    []Export
	Submodules []Submodule

	// EnvBlock, when set, is the export-env block importers run to pick up
	// the module's environment.
	EnvBlock *BlockID

	// Main is the export exposed under the module's own name.
	Main *DeclID
}

func NewModule(name string, span Span) *Module {
	return &Module{Name: name, Span: span}
}

func (m *Module) AddExport(name string, id DeclID) {
	for i := range m.Exports {
		if m.Exports[i].Name == name {
			m.Exports[i].Decl = id
			return
		}
	}
	m.Exports = append(m.Exports, Export{Name: name, Decl: id})
}

func (m *Module) AddSubmodule(name string, id ModuleID) {
	for i := range m.Submodules {
		if m.Submodules[i].Name == name {
			m.Submodules[i].Module = id
			return
		}
	}
	m.Submodules = append(m.Submodules, Submodule{Name: name, Module: id})
}

func (m *Module) Export(name string) (DeclID, bool) {
	for _, e := range m.Exports {
		if e.Name == name {
			return e.Decl, true
		}
	}
	return 0, false
}

func (m *Module) Submodule(name string) (ModuleID, bool) {
	for _, s := range m.Submodules {
		if s.Name == name {
			return s.Module, true
		}
	}
	return 0, false
}

// ExportNames lists exported names in definition order.
func (m *Module) ExportNames() []string {
	return gfn.Map(m.Exports, func(e Export) string { return e.Name })
}

// SubmoduleNames lists nested module names in definition order.
func (m *Module) SubmoduleNames() []string {
	return gfn.Map(m.Submodules, func(s Submodule) string { return s.Name })
}

func (m *Module) String() string {
	return "module " + m.Name
}
