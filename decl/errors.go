package decl

// ParseError is one diagnostic produced while parsing. A working set keeps
// them in the order they were recorded; parsing never aborts on the first
// problem.
type ParseError struct {
	Msg  string
	Help string // optional suggestion shown under the source excerpt
	Span Span
}

func (e *ParseError) Error() string { return e.Msg }
