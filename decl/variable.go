package decl

// Variable is the declaration-time record of a named binding. Values live on
// a Stack at run time; the table only remembers that the name was declared,
// where, and whether it may be reassigned.
type Variable struct {
	Name    string
	Span    Span
	Mutable bool
}

func NewVariable(name string, span Span, mutable bool) *Variable {
	return &Variable{Name: name, Span: span, Mutable: mutable}
}
