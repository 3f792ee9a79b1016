package evaluator

import (
	"github.com/ivarvong/pyex-sub003/pkgs/ast"
	"github.com/ivarvong/pyex-sub003/pkgs/dispatch"
	"github.com/ivarvong/pyex-sub003/pkgs/environment"
	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func (e *Eval) evalCall(n *ast.Call, env environment.Environment) (value.Value, environment.Environment, error) {
	if v, ok := n.Func.(*ast.Var); ok && v.Name == "super" && len(n.Args) == 0 && n.StarArg == nil && len(n.Keywords) == 0 && n.DoubleStarArg == nil {
		if sup, ok := superFromEnv(env); ok {
			return sup, env, nil
		}
	}

	fnVal, env2, err := e.evalExpr(n.Func, env)
	if err != nil {
		return nil, env2, err
	}
	env = env2

	args := make([]value.Value, 0, len(n.Args))
	for _, a := range n.Args {
		v, env3, err := e.evalExpr(a, env)
		if err != nil {
			return nil, env3, err
		}
		env = env3
		args = append(args, v)
	}
	if n.StarArg != nil {
		v, env3, err := e.evalExpr(n.StarArg, env)
		if err != nil {
			return nil, env3, err
		}
		env = env3
		spread, err := e.iterableToSlice(v)
		if err != nil {
			return nil, env, err
		}
		args = append(args, spread...)
	}

	var kwargs map[string]value.Value
	if len(n.Keywords) > 0 {
		kwargs = make(map[string]value.Value, len(n.Keywords))
		for _, kw := range n.Keywords {
			v, env3, err := e.evalExpr(kw.Value, env)
			if err != nil {
				return nil, env3, err
			}
			env = env3
			kwargs[kw.Name] = v
		}
	}
	if n.DoubleStarArg != nil {
		v, env3, err := e.evalExpr(n.DoubleStarArg, env)
		if err != nil {
			return nil, env3, err
		}
		env = env3
		d, ok := v.(value.Dict)
		if !ok {
			return nil, env, perrors.New(perrors.KindRuntime, perrors.TypeError, "argument after ** must be a dict")
		}
		if kwargs == nil {
			kwargs = make(map[string]value.Value)
		}
		for _, k := range d.Keys() {
			vv, _ := d.Get(k)
			kwargs[string(k.(value.Str))] = vv
		}
	}

	v, err := e.callValue(fnVal, args, kwargs, env)
	// callFunction may have published global-declared writes into e.Global;
	// fold them back into the module scope of the env threaded by this call
	// site so a caller observes them on its next read, at any call depth.
	env = env.WithGlobalBindings(e.Global.GlobalBindings())
	return v, env, err
}

// superFromEnv recognises a bare `super()` call by reading the hidden
// __self__/__owner_class__ bindings callFunction leaves in a bound
// method's call frame, constructing the proxy that resolves attribute
// lookups starting one step past the owning class in the instance's MRO.
func superFromEnv(env environment.Environment) (value.Super, bool) {
	selfV, ok := env.Get("__self__")
	if !ok {
		return value.Super{}, false
	}
	ownerV, ok := env.Get("__owner_class__")
	if !ok {
		return value.Super{}, false
	}
	self, ok := selfV.(value.Instance)
	if !ok {
		return value.Super{}, false
	}
	owner, ok := ownerV.(*value.Class)
	if !ok {
		return value.Super{}, false
	}
	return value.Super{Of: owner, Instance: self}, true
}

// callValue dispatches a call on any callable runtime value: a built-in
// registered method, a built-in free function, a user function/closure, a
// bound method, or a class (instantiation).
func (e *Eval) callValue(fn value.Value, args []value.Value, kwargs map[string]value.Value, env environment.Environment) (value.Value, error) {
	switch f := fn.(type) {
	case value.Builtin:
		return f.Fn(args, kwargs)

	case boundBuiltinMethod:
		return dispatch.Call(f.recv, f.name, args, kwargs)

	case value.Function:
		return e.callFunction(f, nil, args, kwargs)

	case value.BoundMethod:
		return e.callFunction(f.Fn, f.Self, args, kwargs)

	case *value.Class:
		return e.instantiate(f, args, kwargs)

	default:
		return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "'"+value.TypeName(fn)+"' object is not callable")
	}
}

// callFunction invokes a user-defined function or closure. self is nil for
// a plain function call and the bound instance for a method call.
func (e *Eval) callFunction(fn value.Function, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	if err := e.Ctx.EnterCall(); err != nil {
		return nil, err
	}
	defer e.Ctx.ExitCall()

	bindings, err := bindParams(fn.Params, self, args, kwargs)
	if err != nil {
		return nil, err
	}
	if self != nil && fn.OwnerClass != nil {
		bindings["__self__"] = self
		bindings["__owner_class__"] = fn.OwnerClass
	}

	callEnv := environment.MergeClosureScopes(e.Global, fn.Captured, bindings)

	if fn.IsGenerator {
		gc := e.startGenerator(fn, callEnv)
		items, err := drainGenerator(gc)
		if err != nil {
			return nil, err
		}
		return value.Generator{Done: true, Materialized: items}, nil
	}

	stmts, _ := fn.Body.([]ast.Stmt)
	finalEnv, sig := e.execBlock(stmts, callEnv)
	e.Global = e.Global.WithGlobalBindings(finalEnv.GlobalBindings())
	switch sig.kind {
	case sigReturn:
		return sig.value, nil
	case sigRaise:
		return nil, sig.exc
	default:
		return value.None, nil
	}
}

// bindParams implements Python's positional/default/*args/**kwargs
// parameter-binding rules for a single call.
func bindParams(params []value.Param, self value.Value, args []value.Value, kwargs map[string]value.Value) (map[string]value.Value, error) {
	out := make(map[string]value.Value)
	ai := 0
	if self != nil {
		if len(params) == 0 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "method takes no arguments")
		}
		out[params[0].Name] = self
		params = params[1:]
	}
	for _, p := range params {
		if p.IsStar {
			rest := args[ai:]
			out[p.Name] = value.Tuple{Items: append([]value.Value{}, rest...)}
			ai = len(args)
			continue
		}
		if p.IsDouble {
			d := value.NewDict()
			for k, v := range kwargs {
				d.Set(value.Str(k), v)
			}
			out[p.Name] = d
			continue
		}
		if ai < len(args) {
			out[p.Name] = args[ai]
			ai++
			continue
		}
		if v, ok := kwargs[p.Name]; ok {
			out[p.Name] = v
			continue
		}
		if p.Default != nil {
			out[p.Name] = p.Default
			continue
		}
		return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "missing required argument: '"+p.Name+"'")
	}
	return out, nil
}
