package eval

import (
	"fmt"

	"github.com/hyiltiz/nushell/decl"
	"github.com/hyiltiz/nushell/engine"
)

// EvalBlock walks a committed block against a session and a stack.
// Environment assignments land on the stack's pending edits, let bindings on
// its variable frame, and each use runs the export-env block of the module it
// imports from. Module definitions and raw bodies have no runtime effect
// here. Nothing touches the session itself; the caller decides when to merge
// the stack back with MergeEnv.
func EvalBlock(es *engine.EngineState, stack *engine.Stack, blk *decl.Block) error {
	ev := &evaluator{es: es, stack: stack, running: map[decl.ModuleID]bool{}}
	return ev.block(blk)
}

type evaluator struct {
	es    *engine.EngineState
	stack *engine.Stack

	// running guards export-env recursion: a module whose env block uses
	// itself, directly or through another module, runs only once.
	running map[decl.ModuleID]bool
}

func (ev *evaluator) block(blk *decl.Block) error {
	for _, elem := range blk.Elements {
		switch n := elem.(type) {
		case *decl.EnvAssign:
			ev.stack.SetEnv(n.Name, n.Value)
		case *decl.LetAssign:
			ev.stack.SetVar(n.Name, n.Value)
		case *decl.UseDecl:
			if err := ev.useModule(n.Module); err != nil {
				return err
			}
		case *decl.ModuleDef, *decl.RawBody:
			// declaration-time constructs, nothing to run
		default:
			return fmt.Errorf("cannot evaluate %T", elem)
		}
	}
	return nil
}

func (ev *evaluator) useModule(id decl.ModuleID) error {
	if ev.running[id] {
		return nil
	}
	mod, ok := ev.es.GetModule(id)
	if !ok {
		return fmt.Errorf("use references module %d, which is not in the session", int(id))
	}
	if mod.EnvBlock == nil {
		return nil
	}
	blk, ok := ev.es.GetBlock(*mod.EnvBlock)
	if !ok {
		return fmt.Errorf("module %q has env block %d, which is not in the session", mod.Name, int(*mod.EnvBlock))
	}
	ev.running[id] = true
	defer delete(ev.running, id)
	return ev.block(blk)
}
