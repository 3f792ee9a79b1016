package evaluator

import (
	"github.com/ivarvong/pyex-sub003/pkgs/ast"
	"github.com/ivarvong/pyex-sub003/pkgs/environment"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// runComprehension walks a chain of `for`/`if` clauses, invoking emit for
// every combination of loop variables that survives the guards. Python
// scopes comprehensions in their own frame (unlike ordinary for loops), so
// the whole chain runs inside a single pushed scope that is dropped before
// returning.
func (e *Eval) runComprehension(clauses []ast.Comprehension, env environment.Environment, emit func(env environment.Environment) (environment.Environment, error)) (environment.Environment, error) {
	var walk func(i int, env environment.Environment) (environment.Environment, error)
	walk = func(i int, env environment.Environment) (environment.Environment, error) {
		if i == len(clauses) {
			return emit(env)
		}
		cl := clauses[i]
		iterVal, env2, err := e.evalExpr(cl.Iter, env)
		if err != nil {
			return env2, err
		}
		env = env2
		items, err := e.iterableToSlice(iterVal)
		if err != nil {
			return env, err
		}
		for _, item := range items {
			env3, aerr := e.assignTo(cl.Target, item, env)
			if aerr != nil {
				return env3, aerr
			}
			env = env3
			skip := false
			for _, ifExpr := range cl.Ifs {
				cond, env4, cerr := e.evalExpr(ifExpr, env)
				if cerr != nil {
					return env4, cerr
				}
				env = env4
				ok, terr := e.truthy(cond)
				if terr != nil {
					return env, terr
				}
				if !ok {
					skip = true
					break
				}
			}
			if skip {
				continue
			}
			env, err = walk(i+1, env)
			if err != nil {
				return env, err
			}
		}
		return env, nil
	}
	return walk(0, env)
}

func (e *Eval) evalListComp(n *ast.ListComp, env environment.Environment) (value.Value, environment.Environment, error) {
	scope := env.PushScope()
	var items []value.Value
	scope, err := e.runComprehension(n.Clauses, scope, func(cenv environment.Environment) (environment.Environment, error) {
		v, cenv2, err := e.evalExpr(n.Elt, cenv)
		if err != nil {
			return cenv2, err
		}
		items = append(items, v)
		return cenv2, nil
	})
	if err != nil {
		return nil, env, err
	}
	_ = scope
	return value.NewList(items), env, nil
}

func (e *Eval) evalSetComp(n *ast.SetComp, env environment.Environment) (value.Value, environment.Environment, error) {
	scope := env.PushScope()
	s := value.NewSet()
	scope, err := e.runComprehension(n.Clauses, scope, func(cenv environment.Environment) (environment.Environment, error) {
		v, cenv2, err := e.evalExpr(n.Elt, cenv)
		if err != nil {
			return cenv2, err
		}
		s.Add(v)
		return cenv2, nil
	})
	if err != nil {
		return nil, env, err
	}
	_ = scope
	return s, env, nil
}

func (e *Eval) evalDictComp(n *ast.DictComp, env environment.Environment) (value.Value, environment.Environment, error) {
	scope := env.PushScope()
	d := value.NewDict()
	scope, err := e.runComprehension(n.Clauses, scope, func(cenv environment.Environment) (environment.Environment, error) {
		k, cenv2, err := e.evalExpr(n.Key, cenv)
		if err != nil {
			return cenv2, err
		}
		v, cenv3, err := e.evalExpr(n.Value, cenv2)
		if err != nil {
			return cenv3, err
		}
		d.Set(k, v)
		return cenv3, nil
	})
	if err != nil {
		return nil, env, err
	}
	_ = scope
	return d, env, nil
}

// evalGenExpr evaluates a generator expression eagerly, since this
// interpreter's only implemented generator-consumption mode is eager
// materialisation (the "accumulate" mode). list(x for x in y)
// and direct for-loop consumption both see identical results either way.
func (e *Eval) evalGenExpr(n *ast.GenExpr, env environment.Environment) (value.Value, environment.Environment, error) {
	scope := env.PushScope()
	var items []value.Value
	scope, err := e.runComprehension(n.Clauses, scope, func(cenv environment.Environment) (environment.Environment, error) {
		v, cenv2, err := e.evalExpr(n.Elt, cenv)
		if err != nil {
			return cenv2, err
		}
		items = append(items, v)
		return cenv2, nil
	})
	if err != nil {
		return nil, env, err
	}
	_ = scope
	return value.Generator{Done: true, Materialized: items}, env, nil
}
