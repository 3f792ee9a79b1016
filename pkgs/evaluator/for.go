package evaluator

import (
	"github.com/ivarvong/pyex-sub003/pkgs/ast"
	"github.com/ivarvong/pyex-sub003/pkgs/environment"
	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func (e *Eval) execFor(n *ast.For, env environment.Environment) (environment.Environment, signal) {
	iterVal, env2, err := e.evalExpr(n.Iter, env)
	if err != nil {
		return env2, raiseSignal(err)
	}
	env = env2

	items, err := e.iterableToSlice(iterVal)
	if err != nil {
		return env, raiseSignal(err)
	}

	for _, item := range items {
		var aerr error
		env, aerr = e.assignTo(n.Target, item, env)
		if aerr != nil {
			return env, raiseSignal(aerr)
		}
		var sig signal
		env, sig = e.execBlock(n.Body, env)
		switch sig.kind {
		case sigBreak:
			return env, signal{}
		case sigContinue, sigNone:
			// continue the loop
		default:
			return env, sig
		}
		if e.Ctx.Budget.Exceeded() {
			return env, raiseSignal(perrors.New(perrors.KindTimeout, perrors.TimeoutError, "compute budget exceeded"))
		}
	}
	env3, sig := e.execBlock(n.Else, env)
	return env3, dropLoopSignal(sig)
}

func (e *Eval) execWith(n *ast.With, env environment.Environment) (environment.Environment, signal) {
	var opened []value.Value
	for _, item := range n.Items {
		ctxVal, env2, err := e.evalExpr(item.Ctx, env)
		if err != nil {
			return e.closeManaged(opened, env2, raiseSignal(err))
		}
		env = env2
		entered, err := e.enterContext(ctxVal)
		if err != nil {
			return e.closeManaged(opened, env, raiseSignal(err))
		}
		opened = append(opened, ctxVal)
		if item.As != nil {
			var aerr error
			env, aerr = e.assignTo(item.As, entered, env)
			if aerr != nil {
				return e.closeManaged(opened, env, raiseSignal(aerr))
			}
		}
	}
	env3, sig := e.execBlock(n.Body, env)
	return e.closeManaged(opened, env3, sig)
}

func (e *Eval) closeManaged(opened []value.Value, env environment.Environment, sig signal) (environment.Environment, signal) {
	for i := len(opened) - 1; i >= 0; i-- {
		_ = e.exitContext(opened[i])
	}
	return env, sig
}

// enterContext invokes __enter__ on a context-manager instance, or, for
// value.FileHandle (returned by open()), is a no-op since the handle is
// already usable.
func (e *Eval) enterContext(ctxVal value.Value) (value.Value, error) {
	if inst, ok := ctxVal.(value.Instance); ok {
		if m, ok := inst.Class.Dict["__enter__"]; ok {
			if fn, ok := m.(value.Function); ok {
				return e.callFunction(fn, inst, nil, nil)
			}
		}
	}
	return ctxVal, nil
}

func (e *Eval) exitContext(ctxVal value.Value) error {
	if inst, ok := ctxVal.(value.Instance); ok {
		if m, ok := inst.Class.Dict["__exit__"]; ok {
			if fn, ok := m.(value.Function); ok {
				_, err := e.callFunction(fn, inst, []value.Value{value.None, value.None, value.None}, nil)
				return err
			}
		}
	}
	if fh, ok := ctxVal.(value.FileHandle); ok {
		e.Ctx.CloseFile(fh.ID)
	}
	return nil
}

func (e *Eval) execImport(n *ast.Import, env environment.Environment) (environment.Environment, signal) {
	for _, alias := range n.Modules {
		mod, err := e.loadModule(alias.Name)
		if err != nil {
			return env, raiseSignal(err)
		}
		name := alias.Name
		if alias.Alias != "" {
			name = alias.Alias
		}
		env = env.Put(name, mod)
	}
	return env, signal{}
}

func (e *Eval) execFromImport(n *ast.FromImport, env environment.Environment) (environment.Environment, signal) {
	mod, err := e.loadModule(n.Module)
	if err != nil {
		return env, raiseSignal(err)
	}
	m, ok := mod.(value.Module)
	if !ok {
		return env, raiseSignal(perrors.New(perrors.KindImport, perrors.ImportError, "module '"+n.Module+"' is not importable"))
	}
	for _, alias := range n.Names {
		v, ok := m.Get(alias.Name)
		if !ok {
			return env, raiseSignal(perrors.New(perrors.KindImport, perrors.ImportError,
				"cannot import name '"+alias.Name+"' from '"+n.Module+"'"))
		}
		name := alias.Name
		if alias.Alias != "" {
			name = alias.Alias
		}
		env = env.Put(name, v)
	}
	return env, signal{}
}
