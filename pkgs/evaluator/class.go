package evaluator

import (
	"github.com/ivarvong/pyex-sub003/pkgs/ast"
	"github.com/ivarvong/pyex-sub003/pkgs/environment"
	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func (e *Eval) execClassDef(n *ast.ClassDef, env environment.Environment) (environment.Environment, signal) {
	bases := make([]*value.Class, 0, len(n.Bases))
	for _, b := range n.Bases {
		bv, env2, err := e.evalExpr(b, env)
		if err != nil {
			return env2, raiseSignal(err)
		}
		env = env2
		bc, ok := bv.(*value.Class)
		if !ok {
			return env, raiseSignal(perrors.New(perrors.KindRuntime, perrors.TypeError, "base must be a class"))
		}
		bases = append(bases, bc)
	}

	cls := &value.Class{Name: n.Name, Bases: bases, Dict: make(map[string]value.Value)}
	mro, err := c3Linearize(cls)
	if err != nil {
		return env, raiseSignal(err)
	}
	cls.MRO = mro

	// The class body executes in its own scope, whose final bindings
	// become the class's method/attribute dict, mirroring CPython's
	// class-statement execution model.
	bodyEnv := env.PushScope()
	bodyEnv, sig := e.execBlock(n.Body, bodyEnv)
	if sig.kind == sigRaise {
		return env, sig
	}
	for _, name := range bodyEnv.Names() {
		if v, ok := bodyEnv.Get(name); ok && v != nil {
			if fn, ok := v.(value.Function); ok {
				fn.OwnerClass = cls
				cls.Dict[name] = fn
				continue
			}
			cls.Dict[name] = v
		}
	}

	var clsVal value.Value = cls
	for i := len(n.Decorators) - 1; i >= 0; i-- {
		var dec value.Value
		var err error
		dec, env, err = e.evalExpr(n.Decorators[i], env)
		if err != nil {
			return env, raiseSignal(err)
		}
		clsVal, err = e.callValue(dec, []value.Value{clsVal}, nil, env)
		if err != nil {
			return env, raiseSignal(err)
		}
	}

	return env.Put(n.Name, clsVal), signal{}
}

// c3Linearize computes the C3 method-resolution order for cls, the
// algorithm Python itself uses for multiple inheritance .
func c3Linearize(cls *value.Class) ([]*value.Class, error) {
	if len(cls.Bases) == 0 {
		return []*value.Class{cls}, nil
	}
	var seqs [][]*value.Class
	for _, b := range cls.Bases {
		seqs = append(seqs, b.MRO)
	}
	seqs = append(seqs, append([]*value.Class{}, cls.Bases...))

	merged := []*value.Class{cls}
	for {
		seqs = removeEmpty(seqs)
		if len(seqs) == 0 {
			break
		}
		var head *value.Class
		for _, seq := range seqs {
			candidate := seq[0]
			if !appearsInTail(candidate, seqs) {
				head = candidate
				break
			}
		}
		if head == nil {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "cannot create a consistent method resolution order")
		}
		merged = append(merged, head)
		for i, seq := range seqs {
			seqs[i] = removeFirstOccurrence(seq, head)
		}
	}
	return merged, nil
}

func removeEmpty(seqs [][]*value.Class) [][]*value.Class {
	out := seqs[:0]
	for _, s := range seqs {
		if len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func appearsInTail(c *value.Class, seqs [][]*value.Class) bool {
	for _, seq := range seqs {
		for _, x := range seq[1:] {
			if x == c {
				return true
			}
		}
	}
	return false
}

func removeFirstOccurrence(seq []*value.Class, c *value.Class) []*value.Class {
	out := make([]*value.Class, 0, len(seq))
	for _, x := range seq {
		if x == c {
			continue
		}
		out = append(out, x)
	}
	return out
}

func (e *Eval) instantiate(cls *value.Class, args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	inst := value.NewInstance(cls)
	if m, ok := lookupMethod(cls, "__init__"); ok {
		if fn, ok := m.(value.Function); ok {
			if _, err := e.callFunction(fn, inst, args, kwargs); err != nil {
				return nil, err
			}
		}
		return inst, nil
	}
	// A class deriving from a built-in exception and defining no __init__
	// of its own inherits BaseException.__init__, which just stores its
	// positional arguments as self.args.
	if isExceptionClass(cls) {
		(*inst.Dict)["args"] = value.Tuple{Items: append([]value.Value{}, args...)}
	}
	return inst, nil
}

func isExceptionClass(cls *value.Class) bool {
	for _, a := range cls.MRO {
		if a.IsException {
			return true
		}
	}
	return cls.IsException
}
