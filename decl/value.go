package decl

import (
	"fmt"
	"strconv"
)

// ValueKind tags the payload carried by a Value.
type ValueKind int

const (
	KindNil ValueKind = iota
	KindBool
	KindInt
	KindString
)

var valueKindNames = [...]string{"nothing", "bool", "int", "string"}

func (k ValueKind) String() string {
	if k < 0 || int(k) >= len(valueKindNames) {
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
	return valueKindNames[k]
}

// Value is a small tagged scalar. The state tables only ever need the
// literal forms that appear in declarations and environment assignments;
// anything richer belongs to an evaluator, not to the session state.
type Value struct {
	Kind ValueKind
	Str  string
	Int  int64
	Bool bool
}

func Nil() Value                 { return Value{Kind: KindNil} }
func BoolValue(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func IntValue(i int64) Value     { return Value{Kind: KindInt, Int: i} }
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

func (v Value) IsNil() bool { return v.Kind == KindNil }

// String renders the value the way it would be typed back in.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nothing"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindString:
		return v.Str
	default:
		return fmt.Sprintf("Value(kind=%d)", int(v.Kind))
	}
}

func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNil:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindInt:
		return v.Int == o.Int
	case KindString:
		return v.Str == o.Str
	}
	return false
}
