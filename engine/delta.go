package engine

import (
	"fmt"

	"github.com/hyiltiz/nushell/decl"
)

// StateDelta is everything a working set wants to add to a session: new
// table entries plus the scope frames carrying name registrations. It is
// inert data; MergeDelta folds it in. Deltas only ever append, so merging
// never renumbers anything.
type StateDelta struct {
	files        []decl.File
	virtualPaths []vpathEntry
	vars         []*decl.Variable
	decls        []*decl.Decl
	blocks       []*decl.Block
	modules      []*decl.Module
	scope        []*OverlayFrame
}

// OverlayActivation asks MergeDelta to make an overlay the current one once
// the delta lands, e.g. when a source entered a module's namespace.
type OverlayActivation struct {
	Name string
}

func newStateDelta(es *EngineState) *StateDelta {
	d := &StateDelta{}
	// Mirror the currently active overlay so parse-time registrations have
	// a frame to land in.
	d.scope = append(d.scope, NewOverlayFrame(es.CurrentOverlay().Name))
	return d
}

func (d *StateDelta) lastFrame() *OverlayFrame {
	return d.scope[len(d.scope)-1]
}

func (d *StateDelta) frameNamed(name string) (*OverlayFrame, bool) {
	for _, f := range d.scope {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// validate bounds-checks every cross reference the delta carries against the
// combined table sizes, committed plus staged. MergeDelta calls it before
// touching any state, which is what makes a failed merge a no-op.
func (d *StateDelta) validate(es *EngineState, act *OverlayActivation) error {
	numFiles := es.NumFiles() + len(d.files)
	numVPaths := es.NumVirtualPaths() + len(d.virtualPaths)
	numVars := es.NumVars() + len(d.vars)
	numDecls := es.NumDecls() + len(d.decls)
	numBlocks := es.NumBlocks() + len(d.blocks)
	numModules := es.NumModules() + len(d.modules)

	checkSpan := func(s Span) error {
		if s.IsUnknown() {
			return nil
		}
		if int(s.File) >= numFiles {
			return integrityErr("file", int(s.File), numFiles)
		}
		return nil
	}

	for _, entry := range d.virtualPaths {
		vp := entry.path
		switch vp.Kind {
		case decl.VirtualFile:
			if vp.File < 0 || int(vp.File) >= numFiles {
				return integrityErr("file", int(vp.File), numFiles)
			}
		case decl.VirtualDir:
			for _, child := range vp.Children {
				if child < 0 || int(child) >= numVPaths {
					return integrityErr("virtual path", int(child), numVPaths)
				}
			}
		}
	}

	for _, dc := range d.decls {
		if dc.Body != nil {
			if *dc.Body < 0 || int(*dc.Body) >= numBlocks {
				return integrityErr("block", int(*dc.Body), numBlocks)
			}
		}
		if err := checkSpan(dc.Span); err != nil {
			return err
		}
	}

	for _, m := range d.modules {
		for _, exp := range m.Exports {
			if exp.Decl < 0 || int(exp.Decl) >= numDecls {
				return integrityErr("decl", int(exp.Decl), numDecls)
			}
		}
		for _, sub := range m.Submodules {
			if sub.Module < 0 || int(sub.Module) >= numModules {
				return integrityErr("module", int(sub.Module), numModules)
			}
		}
		if m.EnvBlock != nil {
			if *m.EnvBlock < 0 || int(*m.EnvBlock) >= numBlocks {
				return integrityErr("block", int(*m.EnvBlock), numBlocks)
			}
		}
		if m.Main != nil {
			if *m.Main < 0 || int(*m.Main) >= numDecls {
				return integrityErr("decl", int(*m.Main), numDecls)
			}
		}
		if err := checkSpan(m.Span); err != nil {
			return err
		}
	}

	for _, b := range d.blocks {
		if err := checkSpan(b.Span); err != nil {
			return err
		}
		for _, el := range b.Elements {
			switch node := el.(type) {
			case *decl.ModuleDef:
				if node.Module < 0 || int(node.Module) >= numModules {
					return integrityErr("module", int(node.Module), numModules)
				}
			case *decl.UseDecl:
				if node.Module < 0 || int(node.Module) >= numModules {
					return integrityErr("module", int(node.Module), numModules)
				}
			case *decl.LetAssign:
				if node.Var < 0 || int(node.Var) >= numVars {
					return integrityErr("variable", int(node.Var), numVars)
				}
			}
		}
	}

	for _, v := range d.vars {
		if err := checkSpan(v.Span); err != nil {
			return err
		}
	}

	for _, frame := range d.scope {
		for _, entry := range frame.DeclEntries() {
			if entry.ID < 0 || int(entry.ID) >= numDecls {
				return integrityErr("decl", int(entry.ID), numDecls)
			}
		}
		for _, entry := range frame.ModuleEntries() {
			if entry.ID < 0 || int(entry.ID) >= numModules {
				return integrityErr("module", int(entry.ID), numModules)
			}
		}
		for _, entry := range frame.VarEntries() {
			if entry.ID < 0 || int(entry.ID) >= numVars {
				return integrityErr("variable", int(entry.ID), numVars)
			}
		}
		if frame.Origin != nil {
			if *frame.Origin < 0 || int(*frame.Origin) >= numModules {
				return integrityErr("module", int(*frame.Origin), numModules)
			}
		}
	}

	if act != nil {
		if _, ok := es.FindOverlay(act.Name); !ok {
			if _, ok := d.frameNamed(act.Name); !ok {
				return fmt.Errorf("%w: overlay %q named by activation", ErrNotFound, act.Name)
			}
		}
	}

	return nil
}
