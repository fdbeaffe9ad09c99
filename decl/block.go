package decl

import (
	"fmt"
	"strings"
)

// Block is one parsed unit of source. Declaration effects land in the tables
// while parsing; the elements kept here are the ones that still need a pass
// of evaluation, plus markers for what the unit defined.
type Block struct {
	Span     Span
	Elements []Node
}

func NewBlock(span Span) *Block {
	return &Block{Span: span}
}

func (b *Block) Add(n Node) {
	b.Elements = append(b.Elements, n)
}

func (b *Block) String() string {
	parts := make([]string, 0, len(b.Elements))
	for _, e := range b.Elements {
		parts = append(parts, e.String())
	}
	return fmt.Sprintf("block{%s}", strings.Join(parts, "; "))
}

// --- Elements ---

// EnvAssign sets one environment variable when the block is evaluated.
type EnvAssign struct {
	NodeInfo
	Name  string
	Value Value
}

func (e *EnvAssign) String() string {
	return fmt.Sprintf("$env.%s = %s", e.Name, e.Value)
}

// LetAssign binds a declared variable to a literal value at evaluation time.
type LetAssign struct {
	NodeInfo
	Var   VarID
	Name  string
	Value Value
}

func (l *LetAssign) String() string {
	return fmt.Sprintf("let %s = %s", l.Name, l.Value)
}

// ModuleDef marks that the block defined a module.
type ModuleDef struct {
	NodeInfo
	Module ModuleID
	Name   string
}

func (m *ModuleDef) String() string {
	return "module " + m.Name
}

// UseDecl marks an import. Names lists what was brought in; empty means the
// module was imported under its own name. Evaluating a UseDecl runs the
// module's export-env block, if it has one.
type UseDecl struct {
	NodeInfo
	Module ModuleID
	Names  []string
}

func (u *UseDecl) String() string {
	if len(u.Names) == 0 {
		return fmt.Sprintf("use module#%d", int(u.Module))
	}
	return fmt.Sprintf("use module#%d [%s]", int(u.Module), strings.Join(u.Names, " "))
}

// RawBody is an unevaluated brace body kept for a command definition.
type RawBody struct {
	NodeInfo
	Text string
}

func (r *RawBody) String() string {
	return "{...}"
}
