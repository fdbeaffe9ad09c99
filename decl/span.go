package decl

import "fmt"

// --- Interfaces ---

// Node represents any element of a parsed block.
type Node interface {
	Pos() int       // Starting byte offset (for error reporting)
	End() int       // Ending byte offset
	String() string // String representation for debugging/printing
}

// --- Base Struct ---

// NodeInfo embeddable struct for position tracking.
type NodeInfo struct{ StartPos, StopPos int }

func (n *NodeInfo) Pos() int       { return n.StartPos }
func (n *NodeInfo) End() int       { return n.StopPos }
func (n *NodeInfo) String() string { return "{Node}" } // Default stringer

// --- Spans ---

// Span locates a region of source inside one registered file. Start is
// inclusive, End exclusive, both byte offsets.
type Span struct {
	File  FileID
	Start int
	End   int
}

func NewSpan(file FileID, start, end int) Span {
	return Span{File: file, Start: start, End: end}
}

// UnknownSpan is used where no source location applies, e.g. synthesized
// declarations.
func UnknownSpan() Span {
	return Span{File: -1}
}

func (s Span) IsUnknown() bool     { return s.File < 0 }
func (s Span) Len() int            { return s.End - s.Start }
func (s Span) Contains(p int) bool { return p >= s.Start && p < s.End }

func (s Span) String() string {
	if s.IsUnknown() {
		return "<unknown>"
	}
	return fmt.Sprintf("file#%d[%d:%d]", int(s.File), s.Start, s.End)
}
