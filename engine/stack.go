package engine

// Stack is the per-caller evaluation context: a chain of variable frames
// plus a layer of environment edits staged on top of the session snapshot.
// Stacks are cheap, short-lived and never shared; the only way their edits
// reach the session is an explicit MergeEnv.
type Stack struct {
	vars *Env[Value] // innermost frame; outer chain holds enclosing frames
	env  *Env[Value] // local environment edits, in write order
}

func NewStack() *Stack {
	return &Stack{
		vars: NewEnv[Value](nil),
		env:  NewEnv[Value](nil),
	}
}

// PushFrame opens a nested variable frame, e.g. when entering a block.
func (s *Stack) PushFrame() {
	s.vars = s.vars.Push()
}

// PopFrame drops the innermost variable frame. Popping the outermost frame
// is a programmer error.
func (s *Stack) PopFrame() {
	outer := s.vars.Outer()
	if outer == nil {
		panic("pop of outermost stack frame")
	}
	s.vars = outer
}

func (s *Stack) SetVar(name string, v Value) {
	s.vars.Set(name, v)
}

// GetVar resolves a variable through the frame chain, innermost first.
func (s *Stack) GetVar(name string) (Value, bool) {
	return s.vars.Get(name)
}

// SetEnv stages one environment edit. Repeated writes to the same name keep
// the latest value, which is what makes the eventual merge last-writer-wins.
func (s *Stack) SetEnv(name string, v Value) {
	s.env.Set(name, v)
}

// GetEnv reads a staged environment edit. It does not fall through to any
// session snapshot; use EnvVar for the combined view.
func (s *Stack) GetEnv(name string) (Value, bool) {
	return s.env.Get(name)
}

// EnvVar reads an environment variable as the evaluator sees it: staged
// edits first, then the session snapshot.
func (s *Stack) EnvVar(es *EngineState, name string) (Value, bool) {
	if v, ok := s.env.Get(name); ok {
		return v, true
	}
	return es.EnvVar(name)
}

// Frames lists the variable frames outermost first, which is the order
// scope enumeration walks them.
func (s *Stack) Frames() []*Env[Value] {
	var chain []*Env[Value]
	for e := s.vars; e != nil; e = e.Outer() {
		chain = append(chain, e)
	}
	// reverse so the outermost frame comes first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// EnvEdits exposes the staged environment layer, in write order.
func (s *Stack) EnvEdits() *Env[Value] { return s.env }
