package scope

import (
	"context"
	"iter"
	"sort"

	"github.com/hyiltiz/nushell/decl"
	"github.com/hyiltiz/nushell/engine"
)

type declSite struct {
	id      decl.DeclID
	overlay string
}

type moduleSite struct {
	id      decl.ModuleID
	overlay string
}

type varSite struct {
	overlay  string
	value    decl.Value
	hasValue bool
	mutable  bool
}

// Collector gathers everything visible from a session's committed state plus
// a live stack. Overlays are walked least recently activated first, so a
// later overlay's entry overrides an earlier one's on collision; stack
// frames are walked outermost first, so inner bindings override outer ones.
// The result is a point-in-time snapshot: build a new collector after
// further merges.
type Collector struct {
	engine *engine.EngineState
	stack  *engine.Stack

	declOrder []decl.NameKind
	decls     map[decl.NameKind]declSite
	modOrder  []string
	modules   map[string]moduleSite
	varOrder  []string
	vars      map[string]varSite

	populated bool
}

func New(es *engine.EngineState, stack *engine.Stack) *Collector {
	return &Collector{
		engine:  es,
		stack:   stack,
		decls:   make(map[decl.NameKind]declSite),
		modules: make(map[string]moduleSite),
		vars:    make(map[string]varSite),
	}
}

// PopulateAll walks the overlay stack and the stack frames once. Accessors
// call it on demand; calling it up front is also fine.
func (c *Collector) PopulateAll() {
	if c.populated {
		return
	}
	c.populated = true

	for _, frame := range c.engine.ActiveOverlays() {
		for _, entry := range frame.DeclEntries() {
			if _, seen := c.decls[entry.Key]; !seen {
				c.declOrder = append(c.declOrder, entry.Key)
			}
			c.decls[entry.Key] = declSite{id: entry.ID, overlay: frame.Name}
		}
		for _, entry := range frame.ModuleEntries() {
			if _, seen := c.modules[entry.Name]; !seen {
				c.modOrder = append(c.modOrder, entry.Name)
			}
			c.modules[entry.Name] = moduleSite{id: entry.ID, overlay: frame.Name}
		}
		for _, entry := range frame.VarEntries() {
			site := varSite{overlay: frame.Name}
			if v, ok := c.engine.GetVar(entry.ID); ok {
				site.mutable = v.Mutable
			}
			if prev, seen := c.vars[entry.Name]; seen {
				// keep a value picked up earlier, the name tag moves
				site.value, site.hasValue = prev.value, prev.hasValue
			} else {
				c.varOrder = append(c.varOrder, entry.Name)
			}
			c.vars[entry.Name] = site
		}
	}

	if c.stack == nil {
		return
	}
	for _, frame := range c.stack.Frames() {
		frame.Each(func(name string, val decl.Value) bool {
			if prev, seen := c.vars[name]; seen {
				prev.value, prev.hasValue = val, true
				c.vars[name] = prev
			} else {
				c.varOrder = append(c.varOrder, name)
				c.vars[name] = varSite{value: val, hasValue: true, mutable: true}
			}
			return true
		})
	}
}

// Commands enumerates the visible commands sorted by name. Rows are built
// lazily as the sequence is consumed, and a canceled context stops the
// enumeration silently partway through.
func (c *Collector) Commands(ctx context.Context) iter.Seq[Command] {
	c.PopulateAll()
	keys := c.sortedDeclKeys(decl.KindCommand)
	return func(yield func(Command) bool) {
		for _, key := range keys {
			if ctx.Err() != nil {
				return
			}
			site := c.decls[key]
			d, ok := c.engine.GetDecl(site.id)
			if !ok {
				continue
			}
			if !yield(commandRow(key.Name, d, site.overlay)) {
				return
			}
		}
	}
}

// CollectCommands drains Commands into a slice. A canceled context yields
// whatever was built so far.
func (c *Collector) CollectCommands(ctx context.Context) []Command {
	var out []Command
	for cmd := range c.Commands(ctx) {
		out = append(out, cmd)
	}
	return out
}

// Aliases lists the visible aliases sorted by name.
func (c *Collector) Aliases() []Alias {
	c.PopulateAll()
	var out []Alias
	for _, key := range c.sortedDeclKeys(decl.KindAlias) {
		site := c.decls[key]
		d, ok := c.engine.GetDecl(site.id)
		if !ok {
			continue
		}
		out = append(out, Alias{
			Name:      key.Name,
			Expansion: d.Expansion,
			Usage:     d.Usage(),
			Overlay:   site.overlay,
		})
	}
	return out
}

// Externs lists the visible extern signatures sorted by name.
func (c *Collector) Externs() []Extern {
	c.PopulateAll()
	var out []Extern
	for _, key := range c.sortedDeclKeys(decl.KindExtern) {
		site := c.decls[key]
		d, ok := c.engine.GetDecl(site.id)
		if !ok {
			continue
		}
		row := Extern{Name: key.Name, Usage: d.Usage(), Overlay: site.overlay}
		if d.Sig != nil {
			row.Signature = d.Sig.String()
		}
		out = append(out, row)
	}
	return out
}

// Modules lists the visible modules sorted by name.
func (c *Collector) Modules() []Module {
	c.PopulateAll()
	names := append([]string(nil), c.modOrder...)
	sort.Strings(names)
	var out []Module
	for _, name := range names {
		site := c.modules[name]
		m, ok := c.engine.GetModule(site.id)
		if !ok {
			continue
		}
		out = append(out, Module{
			Name:        name,
			Commands:    m.ExportNames(),
			Submodules:  m.SubmoduleNames(),
			HasEnvBlock: m.EnvBlock != nil,
			Usage:       m.Usage,
			Overlay:     site.overlay,
		})
	}
	return out
}

// Variables lists the visible variable bindings sorted by name, stack
// bindings included.
func (c *Collector) Variables() []Variable {
	c.PopulateAll()
	names := append([]string(nil), c.varOrder...)
	sort.Strings(names)
	var out []Variable
	for _, name := range names {
		site := c.vars[name]
		row := Variable{Name: name, Mutable: site.mutable, Overlay: site.overlay}
		if site.hasValue {
			row.Value = site.value.String()
		}
		out = append(out, row)
	}
	return out
}

func (c *Collector) sortedDeclKeys(kind decl.Kind) []decl.NameKind {
	keys := make([]decl.NameKind, 0, len(c.declOrder))
	for _, key := range c.declOrder {
		if key.Kind == kind {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Name < keys[j].Name })
	return keys
}

func commandRow(name string, d *decl.Decl, overlay string) Command {
	row := Command{Name: name, Overlay: overlay}
	if d.Sig != nil {
		row.Category = d.Sig.Category.String()
		row.Usage = d.Sig.Usage
		row.Signature = d.Sig.String()
		row.SearchTerms = d.Sig.SearchTerms
	}
	return row
}
