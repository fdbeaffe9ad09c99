package decl

import "fmt"

// Kind separates the flavors of callable declarations that share the decl
// table. Modules and variables live in their own tables.
type Kind int

const (
	KindCommand Kind = iota
	KindAlias
	KindExtern
)

var kindNames = [...]string{"command", "alias", "extern"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// NameKind keys declaration lookups. Two declarations collide only when both
// the name and the kind match, so an alias never hides a command of the same
// name.
type NameKind struct {
	Name string
	Kind Kind
}

func (nk NameKind) String() string {
	return fmt.Sprintf("%s (%s)", nk.Name, nk.Kind)
}

// Decl is one callable declaration. Body points at the parsed block for
// commands defined in source; Expansion carries the replacement text for
// aliases; externs have neither.
type Decl struct {
	Name      string
	Kind      Kind
	Sig       *Signature
	Span      Span
	Body      *BlockID
	Expansion string
}

func (d *Decl) Key() NameKind { return NameKind{Name: d.Name, Kind: d.Kind} }

// Usage returns the one-line description, empty when undocumented.
func (d *Decl) Usage() string {
	if d.Sig == nil {
		return ""
	}
	return d.Sig.Usage
}

func (d *Decl) String() string {
	return fmt.Sprintf("%s %q", d.Kind, d.Name)
}
