package decl

import (
	"fmt"
	"strings"
)

// Category groups commands for help and scope listings.
type Category int

const (
	CategoryDefault Category = iota
	CategoryCore
	CategoryCustom
	CategoryEnv
	CategoryExperimental
	CategoryFileSystem
	CategoryFilters
	CategoryMath
	CategoryShells
	CategoryStrings
	CategorySystem
	CategoryDebug
)

var categoryNames = [...]string{
	"default",
	"core",
	"custom",
	"env",
	"experimental",
	"filesystem",
	"filters",
	"math",
	"shells",
	"strings",
	"system",
	"debug",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// PositionalArg describes one positional parameter of a command.
type PositionalArg struct {
	Name     string
	Desc     string
	Shape    string // argument shape name, e.g. "string", "int", "any"
	Optional bool
}

// Flag describes one named parameter. Short == 0 means no short form.
type Flag struct {
	Long  string
	Short rune
	Desc  string
	Shape string // empty for switch flags
}

// Signature is the declared calling convention of a command, alias or
// extern. Parsed declarations carry one; scope listings render it.
type Signature struct {
	Name        string
	Usage       string // one line description
	ExtraUsage  string
	SearchTerms []string
	Positional  []PositionalArg
	Rest        *PositionalArg
	Flags       []Flag
	Category    Category
}

func NewSignature(name string) *Signature {
	return &Signature{Name: name, Category: CategoryDefault}
}

// String renders the signature on one line, the way help output shows it.
func (s *Signature) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	for _, f := range s.Flags {
		b.WriteString(" --")
		b.WriteString(f.Long)
		if f.Short != 0 {
			fmt.Fprintf(&b, "(-%c)", f.Short)
		}
		if f.Shape != "" {
			b.WriteString(": ")
			b.WriteString(f.Shape)
		}
	}
	for _, p := range s.Positional {
		if p.Optional {
			fmt.Fprintf(&b, " (%s)", p.Name)
		} else {
			fmt.Fprintf(&b, " <%s>", p.Name)
		}
	}
	if s.Rest != nil {
		fmt.Fprintf(&b, " ...%s", s.Rest.Name)
	}
	return b.String()
}
