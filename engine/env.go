package engine

import (
	"fmt"
	"sort"
)

// References to values
type Ref[T any] struct {
	Value T
}

// Env[T] holds named values with basic scoping via the 'outer' environment.
// Unlike a bare map it remembers insertion order, so enumerating an
// environment is reproducible run to run. Session environment snapshots and
// stack frames are both built on it.
type Env[T any] struct {
	order []string
	store map[string]*Ref[T]
	outer *Env[T]
}

// NewEnv creates a new environment nested within an outer one.
// If outer is nil then returns a fresh top-level environment.
func NewEnv[T any](outer *Env[T]) *Env[T] {
	s := make(map[string]*Ref[T])
	return &Env[T]{store: s, outer: outer}
}

// GetRef retrieves a reference by name. It checks the current environment
// first, then recursively checks outer environments.
func (e *Env[T]) GetRef(name string) *Ref[T] {
	ref, ok := e.store[name]
	if (!ok || ref == nil) && e.outer != nil {
		ref = e.outer.GetRef(name)
	}
	return ref
}

func (e *Env[T]) Get(name string) (out T, found bool) {
	ref := e.GetRef(name)
	if ref != nil {
		out = ref.Value
		found = true
	}
	return
}

// Has reports whether name is bound in this layer only.
func (e *Env[T]) Has(name string) bool {
	_, ok := e.store[name]
	return ok
}

func (e *Env[T]) Set(key string, value T) {
	if _, ok := e.store[key]; !ok {
		e.order = append(e.order, key)
	}
	e.store[key] = &Ref[T]{Value: value}
}

// SetMany sets multiple key/values at once. Keys are applied in sorted order
// so the layer's enumeration order does not depend on map iteration.
func (e *Env[T]) SetMany(kvpairs map[string]T) {
	keys := make([]string, 0, len(kvpairs))
	for k := range kvpairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e.Set(k, kvpairs[k])
	}
}

func (e *Env[T]) Push() *Env[T] {
	return NewEnv(e)
}

func (e *Env[T]) Outer() *Env[T] {
	return e.outer
}

// CopyFrom copies values from another Env (only the top most layer),
// preserving that layer's insertion order.
func (e *Env[T]) CopyFrom(another *Env[T]) *Env[T] {
	for _, k := range another.order {
		if ref := another.store[k]; ref != nil {
			e.Set(k, ref.Value)
		}
	}
	return e
}

// Extend creates a nested environment and sets values in it.
func (e *Env[T]) Extend(kvpairs map[string]T) *Env[T] {
	out := e.Push()
	out.SetMany(kvpairs)
	return out
}

// Each visits this layer's bindings in insertion order. Return false from fn
// to stop early.
func (e *Env[T]) Each(fn func(key string, value T) bool) {
	for _, k := range e.order {
		ref := e.store[k]
		if ref == nil {
			continue
		}
		if !fn(k, ref.Value) {
			return
		}
	}
}

// Keys returns this layer's keys in insertion order (not including outer
// environments).
func (e *Env[T]) Keys() []string {
	keys := make([]string, len(e.order))
	copy(keys, e.order)
	return keys
}

// All returns all key-value pairs in this environment (not including outer
// environments).
func (e *Env[T]) All() map[string]T {
	result := make(map[string]T)
	for k, ref := range e.store {
		if ref != nil {
			result[k] = ref.Value
		}
	}
	return result
}

func (e *Env[T]) Len() int {
	return len(e.order)
}

// String representation for debugging
func (e *Env[T]) String() string {
	return fmt.Sprintf("Env[T]{keys: %v, outer: %v}", e.order, e.outer != nil)
}
