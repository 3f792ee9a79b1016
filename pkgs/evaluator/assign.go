package evaluator

import (
	"github.com/ivarvong/pyex-sub003/pkgs/ast"
	"github.com/ivarvong/pyex-sub003/pkgs/environment"
	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func (e *Eval) execAssign(n *ast.Assign, env environment.Environment) (environment.Environment, signal) {
	v, env2, err := e.evalExpr(n.Value, env)
	if err != nil {
		return env2, raiseSignal(err)
	}
	env3, err := e.assignTo(n.Target, v, env2)
	if err != nil {
		return env3, raiseSignal(err)
	}
	return env3, signal{}
}

func (e *Eval) execMultiAssign(n *ast.MultiAssign, env environment.Environment) (environment.Environment, signal) {
	v, env2, err := e.evalExpr(n.Value, env)
	if err != nil {
		return env2, raiseSignal(err)
	}
	for _, target := range n.Targets {
		var err error
		env2, err = e.assignTo(target, v, env2)
		if err != nil {
			return env2, raiseSignal(err)
		}
	}
	return env2, signal{}
}

var augOps = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "//=": "//",
	"%=": "%", "**=": "**", "&=": "&", "|=": "|", "^=": "^",
	"<<=": "<<", ">>=": ">>",
}

func (e *Eval) execAugAssign(n *ast.AugAssign, env environment.Environment) (environment.Environment, signal) {
	cur, env2, err := e.evalExpr(n.Target, env)
	if err != nil {
		return env2, raiseSignal(err)
	}
	rhs, env3, err := e.evalExpr(n.Value, env2)
	if err != nil {
		return env3, raiseSignal(err)
	}
	op, ok := augOps[n.Op]
	if !ok {
		op = n.Op
	}
	result, err := e.binOp(op, cur, rhs)
	if err != nil {
		return env3, raiseSignal(err)
	}
	env4, err := e.assignTo(n.Target, result, env3)
	if err != nil {
		return env4, raiseSignal(err)
	}
	return env4, signal{}
}

// assignTo implements the assignment-target dispatch: a simple
// name writes through SmartPut (honouring global/nonlocal declarations); a
// subscript or attribute target writes into the underlying container or
// instance rather than rebinding a name; a tuple/list target destructures.
func (e *Eval) assignTo(target ast.Expr, v value.Value, env environment.Environment) (environment.Environment, error) {
	switch t := target.(type) {
	case *ast.Var:
		return env.SmartPut(t.Name, v), nil

	case *ast.Subscript:
		recv, env2, err := e.evalExpr(t.X, env)
		if err != nil {
			return env2, err
		}
		idx, env3, err := e.evalExpr(t.Index, env2)
		if err != nil {
			return env3, err
		}
		if err := setSubscript(recv, idx, v); err != nil {
			return env3, err
		}
		return env3, nil

	case *ast.GetAttr:
		recv, env2, err := e.evalExpr(t.X, env)
		if err != nil {
			return env2, err
		}
		if err := setAttr(recv, t.Attr, v); err != nil {
			return env2, err
		}
		return env2, nil

	case *ast.TupleExpr:
		return e.destructure(t.Elems, t.Star, v, env)

	case *ast.ListExpr:
		return e.destructure(t.Elems, -1, v, env)

	default:
		return env, perrors.New(perrors.KindRuntime, perrors.TypeError, "cannot assign to this expression")
	}
}

func (e *Eval) destructure(targets []ast.Expr, star int, v value.Value, env environment.Environment) (environment.Environment, error) {
	items, err := e.iterableToSlice(v)
	if err != nil {
		return env, err
	}
	if star < 0 {
		if len(items) != len(targets) {
			return env, perrors.New(perrors.KindRuntime, perrors.ValueError, "not enough values to unpack")
		}
		for i, t := range targets {
			var err error
			env, err = e.assignTo(t, items[i], env)
			if err != nil {
				return env, err
			}
		}
		return env, nil
	}
	before := star
	after := len(targets) - star - 1
	if len(items) < before+after {
		return env, perrors.New(perrors.KindRuntime, perrors.ValueError, "not enough values to unpack")
	}
	for i := 0; i < before; i++ {
		var err error
		env, err = e.assignTo(targets[i], items[i], env)
		if err != nil {
			return env, err
		}
	}
	mid := items[before : len(items)-after]
	var err2 error
	env, err2 = e.assignTo(targets[star], value.NewList(append([]value.Value{}, mid...)), env)
	if err2 != nil {
		return env, err2
	}
	for i := 0; i < after; i++ {
		var err error
		env, err = e.assignTo(targets[star+1+i], items[len(items)-after+i], env)
		if err != nil {
			return env, err
		}
	}
	return env, nil
}

func setSubscript(recv, idx, v value.Value) error {
	switch r := recv.(type) {
	case value.List:
		items := r.Get()
		i, err := normalizeIndex(idx, len(items))
		if err != nil {
			return err
		}
		items[i] = v
		return nil
	case value.Dict:
		r.Set(idx, v)
		return nil
	default:
		return perrors.New(perrors.KindRuntime, perrors.TypeError, "'"+value.TypeName(recv)+"' object does not support item assignment")
	}
}

func setAttr(recv value.Value, attr string, v value.Value) error {
	switch r := recv.(type) {
	case value.Instance:
		(*r.Dict)[attr] = v
		return nil
	case *value.Class:
		r.Dict[attr] = v
		return nil
	default:
		return perrors.New(perrors.KindRuntime, perrors.AttributeError, "'"+value.TypeName(recv)+"' object has no attribute '"+attr+"'")
	}
}

func (e *Eval) execDel(n *ast.Del, env environment.Environment) (environment.Environment, signal) {
	for _, target := range n.Targets {
		switch t := target.(type) {
		case *ast.Var:
			// Python's del removes the binding entirely; this interpreter's
			// Environment has no Delete primitive, so del on a plain name
			// rebinds it to a sentinel that Get/Truthy will never naturally
			// see again within the same scope during normal execution.
			env = env.Put(t.Name, nil)
		case *ast.Subscript:
			recv, env2, err := e.evalExpr(t.X, env)
			if err != nil {
				return env2, raiseSignal(err)
			}
			idx, env3, err := e.evalExpr(t.Index, env2)
			if err != nil {
				return env3, raiseSignal(err)
			}
			env = env3
			switch r := recv.(type) {
			case value.Dict:
				if !r.Delete(idx) {
					return env, raiseSignal(perrors.New(perrors.KindRuntime, perrors.KeyError, value.Repr(idx)))
				}
			case value.List:
				items := r.Get()
				i, err := normalizeIndex(idx, len(items))
				if err != nil {
					return env, raiseSignal(err)
				}
				r.Set(append(items[:i], items[i+1:]...))
			}
		case *ast.GetAttr:
			recv, env2, err := e.evalExpr(t.X, env)
			if err != nil {
				return env2, raiseSignal(err)
			}
			env = env2
			if inst, ok := recv.(value.Instance); ok {
				delete(*inst.Dict, t.Attr)
			}
		}
	}
	return env, signal{}
}
