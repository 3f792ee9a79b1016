package evaluator

import (
	"math/big"
	"strings"

	"github.com/ivarvong/pyex-sub003/pkgs/ast"
	"github.com/ivarvong/pyex-sub003/pkgs/dispatch"
	"github.com/ivarvong/pyex-sub003/pkgs/environment"
	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// evalExpr evaluates an expression, returning its value and the
// (possibly updated) environment — walrus expressions and calls (which
// fold global writes back in) are the expression forms that change the
// environment, but every expression threads it through uniformly so the
// evaluator's signature stays regular, matching the execution context's
// (result, ctx') return convention generalised to expressions.
func (e *Eval) evalExpr(x ast.Expr, env environment.Environment) (value.Value, environment.Environment, error) {
	switch n := x.(type) {
	case *ast.Lit:
		v, err := e.evalLit(n)
		return v, env, err

	case *ast.Var:
		if v, ok := env.Get(n.Name); ok {
			if v == nil {
				return nil, env, perrors.New(perrors.KindRuntime, perrors.NameError, "name '"+n.Name+"' is not defined")
			}
			return v, env, nil
		}
		if b, ok := e.lookupBuiltin(n.Name); ok {
			return b, env, nil
		}
		msg := "name '" + n.Name + "' is not defined" + suggestSuffix(n.Name, env.Names())
		return nil, env, perrors.New(perrors.KindRuntime, perrors.NameError, msg)

	case *ast.TupleExpr:
		items := make([]value.Value, len(n.Elems))
		for i, el := range n.Elems {
			v, env2, err := e.evalExpr(el, env)
			if err != nil {
				return nil, env2, err
			}
			env = env2
			items[i] = v
		}
		return value.Tuple{Items: items}, env, nil

	case *ast.ListExpr:
		items := make([]value.Value, 0, len(n.Elems))
		for _, el := range n.Elems {
			v, env2, err := e.evalExpr(el, env)
			if err != nil {
				return nil, env2, err
			}
			env = env2
			items = append(items, v)
		}
		return value.NewList(items), env, nil

	case *ast.SetExpr:
		s := value.NewSet()
		for _, el := range n.Elems {
			v, env2, err := e.evalExpr(el, env)
			if err != nil {
				return nil, env2, err
			}
			env = env2
			s.Add(v)
		}
		return s, env, nil

	case *ast.DictExpr:
		d := value.NewDict()
		for i, kExpr := range n.Keys {
			if kExpr == nil {
				// **expr spread
				v, env2, err := e.evalExpr(n.Values[i], env)
				if err != nil {
					return nil, env2, err
				}
				env = env2
				src, ok := v.(value.Dict)
				if !ok {
					return nil, env, perrors.New(perrors.KindRuntime, perrors.TypeError, "argument must be a dict")
				}
				for _, k := range src.Keys() {
					vv, _ := src.Get(k)
					d.Set(k, vv)
				}
				continue
			}
			k, env2, err := e.evalExpr(kExpr, env)
			if err != nil {
				return nil, env2, err
			}
			env = env2
			v, env3, err := e.evalExpr(n.Values[i], env)
			if err != nil {
				return nil, env3, err
			}
			env = env3
			d.Set(k, v)
		}
		return d, env, nil

	case *ast.BinOp:
		if n.Op == "and" || n.Op == "or" {
			l, env2, err := e.evalExpr(n.L, env)
			if err != nil {
				return nil, env2, err
			}
			env = env2
			lok, err := e.truthy(l)
			if err != nil {
				return nil, env, err
			}
			if n.Op == "and" && !lok {
				return l, env, nil
			}
			if n.Op == "or" && lok {
				return l, env, nil
			}
			return e.evalExpr(n.R, env)
		}
		l, env2, err := e.evalExpr(n.L, env)
		if err != nil {
			return nil, env2, err
		}
		env = env2
		r, env3, err := e.evalExpr(n.R, env)
		if err != nil {
			return nil, env3, err
		}
		env = env3
		v, err := e.binOp(n.Op, l, r)
		return v, env, err

	case *ast.ChainedCompare:
		first, env2, err := e.evalExpr(n.Operands[0], env)
		if err != nil {
			return nil, env2, err
		}
		env = env2
		left := first
		for i, op := range n.Ops {
			right, env3, err := e.evalExpr(n.Operands[i+1], env)
			if err != nil {
				return nil, env3, err
			}
			env = env3
			ok, err := e.compare(op, left, right)
			if err != nil {
				return nil, env, err
			}
			if !ok {
				return value.Bool(false), env, nil
			}
			left = right
		}
		return value.Bool(true), env, nil

	case *ast.UnaryOp:
		v, env2, err := e.evalExpr(n.X, env)
		if err != nil {
			return nil, env2, err
		}
		env = env2
		if n.Op == "not" {
			ok, err := e.truthy(v)
			if err != nil {
				return nil, env, err
			}
			return value.Bool(!ok), env, nil
		}
		res, err := unaryOp(n.Op, v)
		return res, env, err

	case *ast.Ternary:
		c, env2, err := e.evalExpr(n.Cond, env)
		if err != nil {
			return nil, env2, err
		}
		env = env2
		cok, err := e.truthy(c)
		if err != nil {
			return nil, env, err
		}
		if cok {
			return e.evalExpr(n.Then, env)
		}
		return e.evalExpr(n.Else, env)

	case *ast.Call:
		return e.evalCall(n, env)

	case *ast.GetAttr:
		recv, env2, err := e.evalExpr(n.X, env)
		if err != nil {
			return nil, env2, err
		}
		env = env2
		v, err := e.getAttr(recv, n.Attr)
		return v, env, err

	case *ast.Subscript:
		recv, env2, err := e.evalExpr(n.X, env)
		if err != nil {
			return nil, env2, err
		}
		env = env2
		if sl, ok := n.Index.(*ast.SliceExpr); ok {
			v, err := e.evalSlice(recv, sl, env)
			return v, env, err
		}
		idx, env3, err := e.evalExpr(n.Index, env)
		if err != nil {
			return nil, env3, err
		}
		env = env3
		v, err := getSubscript(recv, idx)
		return v, env, err

	case *ast.Lambda:
		return value.Function{
			Name:     "<lambda>",
			Params:   convertParams(n.Params),
			Body:     n.Body,
			Captured: env.Snapshot(),
		}, env, nil

	case *ast.FString:
		var sb strings.Builder
		for _, part := range n.Parts {
			if part.Expr == nil {
				sb.WriteString(part.Literal)
				continue
			}
			v, env2, err := e.evalExpr(part.Expr, env)
			if err != nil {
				return nil, env2, err
			}
			env = env2
			text, err := formatValue(v, part.Spec)
			if err != nil {
				return nil, env, err
			}
			sb.WriteString(text)
		}
		return value.Str(sb.String()), env, nil

	case *ast.ListComp:
		return e.evalListComp(n, env)

	case *ast.SetComp:
		return e.evalSetComp(n, env)

	case *ast.DictComp:
		return e.evalDictComp(n, env)

	case *ast.GenExpr:
		return e.evalGenExpr(n, env)

	case *ast.Walrus:
		v, env2, err := e.evalExpr(n.Value, env)
		if err != nil {
			return nil, env2, err
		}
		return v, env2.PutAtSource(n.Name, v), nil

	case *ast.Yield:
		return nil, env, perrors.New(perrors.KindRuntime, perrors.TypeError, "yield outside generator")

	default:
		return nil, env, perrors.New(perrors.KindRuntime, perrors.TypeError, "unsupported expression")
	}
}

func (e *Eval) evalLit(n *ast.Lit) (value.Value, error) {
	switch n.Kind {
	case ast.LitInt:
		i := new(big.Int)
		text := strings.ReplaceAll(n.Int, "_", "")
		base := 10
		switch {
		case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
			base, text = 16, text[2:]
		case strings.HasPrefix(text, "0o") || strings.HasPrefix(text, "0O"):
			base, text = 8, text[2:]
		case strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B"):
			base, text = 2, text[2:]
		}
		i.SetString(text, base)
		return value.NewIntFromBig(i), nil
	case ast.LitFloat:
		return value.Float(n.Float), nil
	case ast.LitStr:
		return value.Str(n.Str), nil
	case ast.LitBool:
		return value.Bool(n.Bool), nil
	case ast.LitNone:
		return value.None, nil
	default:
		return value.None, nil
	}
}

func getSubscript(recv, idx value.Value) (value.Value, error) {
	switch r := recv.(type) {
	case value.List:
		items := r.Get()
		i, err := normalizeIndex(idx, len(items))
		if err != nil {
			return nil, err
		}
		return items[i], nil
	case value.Tuple:
		i, err := normalizeIndex(idx, len(r.Items))
		if err != nil {
			return nil, err
		}
		return r.Items[i], nil
	case value.Str:
		runes := []rune(string(r))
		i, err := normalizeIndex(idx, len(runes))
		if err != nil {
			return nil, err
		}
		return value.Str(string(runes[i])), nil
	case value.Dict:
		v, ok := r.Get(idx)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.KeyError, value.Repr(idx))
		}
		return v, nil
	default:
		return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "'"+value.TypeName(recv)+"' object is not subscriptable")
	}
}

func (e *Eval) evalSlice(recv value.Value, sl *ast.SliceExpr, env environment.Environment) (value.Value, error) {
	length, err := sliceableLen(recv)
	if err != nil {
		return nil, err
	}
	lo, hi, step, err := e.resolveSlice(sl, length, env)
	if err != nil {
		return nil, err
	}
	switch r := recv.(type) {
	case value.List:
		return value.NewList(sliceValues(r.Get(), lo, hi, step)), nil
	case value.Tuple:
		return value.Tuple{Items: sliceValues(r.Items, lo, hi, step)}, nil
	case value.Str:
		runes := []rune(string(r))
		vals := make([]value.Value, len(runes))
		for i, c := range runes {
			vals[i] = value.Str(string(c))
		}
		out := sliceValues(vals, lo, hi, step)
		var sb strings.Builder
		for _, v := range out {
			sb.WriteString(string(v.(value.Str)))
		}
		return value.Str(sb.String()), nil
	default:
		return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "object is not sliceable")
	}
}

func sliceableLen(v value.Value) (int, error) {
	switch x := v.(type) {
	case value.List:
		return len(x.Get()), nil
	case value.Tuple:
		return len(x.Items), nil
	case value.Str:
		return len([]rune(string(x))), nil
	default:
		return 0, perrors.New(perrors.KindRuntime, perrors.TypeError, "object is not sliceable")
	}
}

func (e *Eval) resolveSlice(sl *ast.SliceExpr, length int, env environment.Environment) (lo, hi, step int, err error) {
	step = 1
	if sl.Step != nil {
		v, _, err2 := e.evalExpr(sl.Step, env)
		if err2 != nil {
			return 0, 0, 0, err2
		}
		n, ok := asIntValue(v)
		if !ok {
			return 0, 0, 0, perrors.New(perrors.KindRuntime, perrors.TypeError, "slice step must be an int")
		}
		step = int(n.V.Int64())
		if step == 0 {
			return 0, 0, 0, perrors.New(perrors.KindRuntime, perrors.ValueError, "slice step cannot be zero")
		}
	}
	if step > 0 {
		lo, hi = 0, length
	} else {
		lo, hi = length-1, -length-1
	}
	if sl.Lo != nil {
		v, _, err2 := e.evalExpr(sl.Lo, env)
		if err2 != nil {
			return 0, 0, 0, err2
		}
		n, _ := asIntValue(v)
		lo = clampSliceIndex(int(n.V.Int64()), length, step > 0)
	}
	if sl.Hi != nil {
		v, _, err2 := e.evalExpr(sl.Hi, env)
		if err2 != nil {
			return 0, 0, 0, err2
		}
		n, _ := asIntValue(v)
		hi = clampSliceIndex(int(n.V.Int64()), length, step > 0)
	}
	return lo, hi, step, nil
}

func clampSliceIndex(i, length int, forward bool) int {
	if i < 0 {
		i += length
	}
	if forward {
		if i < 0 {
			i = 0
		}
		if i > length {
			i = length
		}
	} else {
		if i < -1 {
			i = -1
		}
		if i >= length {
			i = length - 1
		}
	}
	return i
}

func sliceValues(items []value.Value, lo, hi, step int) []value.Value {
	var out []value.Value
	if step > 0 {
		for i := lo; i < hi; i += step {
			if i < 0 || i >= len(items) {
				break
			}
			out = append(out, items[i])
		}
	} else {
		for i := lo; i > hi; i += step {
			if i < 0 || i >= len(items) {
				break
			}
			out = append(out, items[i])
		}
	}
	if out == nil {
		out = []value.Value{}
	}
	return out
}

func (e *Eval) getAttr(recv value.Value, attr string) (value.Value, error) {
	switch r := recv.(type) {
	case value.Instance:
		if v, ok := (*r.Dict)[attr]; ok {
			return v, nil
		}
		if m, ok := lookupMethod(r.Class, attr); ok {
			if fn, ok := m.(value.Function); ok {
				return value.BoundMethod{Self: r, Fn: fn}, nil
			}
			return m, nil
		}
		names := classAttrNames(r.Class)
		for k := range *r.Dict {
			names = append(names, k)
		}
		return nil, perrors.New(perrors.KindRuntime, perrors.AttributeError, "'"+r.Class.Name+"' object has no attribute '"+attr+"'"+suggestSuffix(attr, names))
	case *value.Class:
		if v, ok := r.Dict[attr]; ok {
			return v, nil
		}
		if m, ok := lookupMethod(r, attr); ok {
			return m, nil
		}
		return nil, perrors.New(perrors.KindRuntime, perrors.AttributeError, "type object '"+r.Name+"' has no attribute '"+attr+"'"+suggestSuffix(attr, classAttrNames(r)))
	case value.Module:
		if v, ok := r.Get(attr); ok {
			return v, nil
		}
		return nil, perrors.New(perrors.KindImport, perrors.AttributeError, "module '"+r.Name+"' has no attribute '"+attr+"'")
	case value.Super:
		started := false
		for _, c := range instanceClass(r.Instance).MRO {
			if !started {
				if c == r.Of {
					started = true
				}
				continue
			}
			if m, ok := c.Dict[attr]; ok {
				if fn, ok := m.(value.Function); ok {
					return value.BoundMethod{Self: r.Instance, Fn: fn}, nil
				}
				return m, nil
			}
		}
		return nil, perrors.New(perrors.KindRuntime, perrors.AttributeError, "super object has no attribute '"+attr+"'")
	default:
		typeName := value.TypeName(recv)
		if dispatch.Has(typeName, attr) {
			return boundBuiltinMethod{recv: recv, name: attr}, nil
		}
		return nil, perrors.New(perrors.KindRuntime, perrors.AttributeError, "'"+typeName+"' object has no attribute '"+attr+"'")
	}
}

func instanceClass(v value.Value) *value.Class {
	if inst, ok := v.(value.Instance); ok {
		return inst.Class
	}
	return nil
}

// classAttrNames collects every attribute/method name visible across c's
// MRO, used to build NameError/AttributeError "did you mean" hints.
func classAttrNames(c *value.Class) []string {
	seen := map[string]bool{}
	var out []string
	for _, k := range c.MRO {
		for name := range k.Dict {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

func lookupMethod(c *value.Class, name string) (value.Value, bool) {
	for _, k := range c.MRO {
		if v, ok := k.Dict[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// boundBuiltinMethod is a built-in method bound to its receiver, returned
// by attribute access on str/list/dict/set/tuple values so that `x.upper()`
// evaluates like any other call expression.
type boundBuiltinMethod struct {
	recv value.Value
	name string
}

func (e *Eval) lookupBuiltin(name string) (value.Value, bool) {
	if e.builtins == nil {
		e.builtins = newBuiltins(e)
	}
	fn, ok := e.builtins[name]
	return fn, ok
}
