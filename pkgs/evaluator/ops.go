package evaluator

import (
	"math"
	"math/big"
	"strings"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// dunderNames maps an operator token to the Python dunder method pair
// (forward, reflected) consulted when at least one operand is a class
// instance, operator-dispatch rule.
var dunderNames = map[string][2]string{
	"+": {"__add__", "__radd__"}, "-": {"__sub__", "__rsub__"},
	"*": {"__mul__", "__rmul__"}, "/": {"__truediv__", "__rtruediv__"},
	"//": {"__floordiv__", "__rfloordiv__"}, "%": {"__mod__", "__rmod__"},
	"**": {"__pow__", "__rpow__"}, "&": {"__and__", "__rand__"},
	"|": {"__or__", "__ror__"}, "^": {"__xor__", "__rxor__"},
	"<<": {"__lshift__", "__rlshift__"}, ">>": {"__rshift__", "__rrshift__"},
}

func (e *Eval) binOp(op string, l, r value.Value) (value.Value, error) {
	if inst, ok := l.(value.Instance); ok {
		if names, hasDunder := dunderNames[op]; hasDunder {
			if m, ok := inst.Class.Dict[names[0]]; ok {
				return e.callDunder(m, inst, r)
			}
		}
	}
	if inst, ok := r.(value.Instance); ok {
		if names, hasDunder := dunderNames[op]; hasDunder {
			if m, ok := inst.Class.Dict[names[1]]; ok {
				return e.callDunder(m, inst, l)
			}
		}
	}

	if op == "+" {
		if ls, ok := l.(value.Str); ok {
			rs, ok := r.(value.Str)
			if !ok {
				return nil, typeErr("+", l, r)
			}
			return value.Str(string(ls) + string(rs)), nil
		}
		if ll, ok := l.(value.List); ok {
			rl, ok := r.(value.List)
			if !ok {
				return nil, typeErr("+", l, r)
			}
			out := append([]value.Value{}, ll.Get()...)
			out = append(out, rl.Get()...)
			return value.NewList(out), nil
		}
		if lt, ok := l.(value.Tuple); ok {
			rt, ok := r.(value.Tuple)
			if !ok {
				return nil, typeErr("+", l, r)
			}
			out := append([]value.Value{}, lt.Items...)
			out = append(out, rt.Items...)
			return value.Tuple{Items: out}, nil
		}
	}
	if op == "*" {
		if ll, ok := l.(value.List); ok {
			if n, ok := r.(value.Int); ok {
				return repeatList(ll.Get(), int(n.V.Int64())), nil
			}
		}
		if rl, ok := r.(value.List); ok {
			if n, ok := l.(value.Int); ok {
				return repeatList(rl.Get(), int(n.V.Int64())), nil
			}
		}
		if ls, ok := l.(value.Str); ok {
			if n, ok := r.(value.Int); ok {
				return value.Str(repeatStr(string(ls), int(n.V.Int64()))), nil
			}
		}
		if n, ok := l.(value.Int); ok {
			if rs, ok := r.(value.Str); ok {
				return value.Str(repeatStr(string(rs), int(n.V.Int64()))), nil
			}
		}
	}
	if op == "%" {
		if ls, ok := l.(value.Str); ok {
			return value.Str(percentFormat(string(ls), r)), nil
		}
	}

	return numericBinOp(op, l, r)
}

func (e *Eval) callDunder(method value.Value, self value.Instance, other value.Value) (value.Value, error) {
	fn, ok := method.(value.Function)
	if !ok {
		return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "operator method is not callable")
	}
	return e.callFunction(fn, self, []value.Value{other}, nil)
}

// truthy evaluates v's boolean value, consulting an instance's __bool__
// (preferred) or __len__ (fallback) dunder before deferring to
// value.Truthy's built-in-type rules — the same lookup order Python uses
// for bool(obj).
func (e *Eval) truthy(v value.Value) (bool, error) {
	inst, ok := v.(value.Instance)
	if !ok {
		return value.Truthy(v), nil
	}
	if m, ok := lookupMethod(inst.Class, "__bool__"); ok {
		fn, ok := m.(value.Function)
		if !ok {
			return false, perrors.New(perrors.KindRuntime, perrors.TypeError, "__bool__ method is not callable")
		}
		res, err := e.callFunction(fn, inst, nil, nil)
		if err != nil {
			return false, err
		}
		return value.Truthy(res), nil
	}
	if m, ok := lookupMethod(inst.Class, "__len__"); ok {
		fn, ok := m.(value.Function)
		if !ok {
			return false, perrors.New(perrors.KindRuntime, perrors.TypeError, "__len__ method is not callable")
		}
		res, err := e.callFunction(fn, inst, nil, nil)
		if err != nil {
			return false, err
		}
		n, ok := asIntValue(res)
		if !ok {
			return false, perrors.New(perrors.KindRuntime, perrors.TypeError, "__len__ must return an int")
		}
		return n.V.Sign() != 0, nil
	}
	return true, nil
}

func repeatList(items []value.Value, n int) value.List {
	if n <= 0 {
		return value.NewList(nil)
	}
	out := make([]value.Value, 0, len(items)*n)
	for i := 0; i < n; i++ {
		out = append(out, items...)
	}
	return value.NewList(out)
}

func repeatStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

func typeErr(op string, l, r value.Value) error {
	return perrors.New(perrors.KindRuntime, perrors.TypeError,
		"unsupported operand type(s) for "+op+": '"+value.TypeName(l)+"' and '"+value.TypeName(r)+"'")
}

func toFloat(v value.Value) (float64, bool) {
	switch x := v.(type) {
	case value.Int:
		f := new(big.Float).SetInt(x.V)
		out, _ := f.Float64()
		return out, true
	case value.Float:
		return float64(x), true
	case value.Bool:
		if bool(x) {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func bothInt(l, r value.Value) (value.Int, value.Int, bool) {
	li, lok := asIntValue(l)
	ri, rok := asIntValue(r)
	return li, ri, lok && rok
}

func asIntValue(v value.Value) (value.Int, bool) {
	switch x := v.(type) {
	case value.Int:
		return x, true
	case value.Bool:
		if bool(x) {
			return value.NewInt(1), true
		}
		return value.NewInt(0), true
	default:
		return value.Int{}, false
	}
}

func numericBinOp(op string, l, r value.Value) (value.Value, error) {
	if li, ri, ok := bothInt(l, r); ok && op != "/" {
		switch op {
		case "+":
			return value.NewIntFromBig(new(big.Int).Add(li.V, ri.V)), nil
		case "-":
			return value.NewIntFromBig(new(big.Int).Sub(li.V, ri.V)), nil
		case "*":
			return value.NewIntFromBig(new(big.Int).Mul(li.V, ri.V)), nil
		case "//":
			if ri.V.Sign() == 0 {
				return nil, perrors.New(perrors.KindRuntime, perrors.ZeroDivisionError, "integer division or modulo by zero")
			}
			q, m := new(big.Int), new(big.Int)
			q.DivMod(li.V, ri.V, m)
			return value.NewIntFromBig(q), nil
		case "%":
			if ri.V.Sign() == 0 {
				return nil, perrors.New(perrors.KindRuntime, perrors.ZeroDivisionError, "integer division or modulo by zero")
			}
			m := new(big.Int).Mod(li.V, ri.V)
			return value.NewIntFromBig(m), nil
		case "**":
			if ri.V.Sign() < 0 {
				lf, _ := toFloat(l)
				rf, _ := toFloat(r)
				return value.Float(math.Pow(lf, rf)), nil
			}
			return value.NewIntFromBig(new(big.Int).Exp(li.V, ri.V, nil)), nil
		case "&":
			return value.NewIntFromBig(new(big.Int).And(li.V, ri.V)), nil
		case "|":
			return value.NewIntFromBig(new(big.Int).Or(li.V, ri.V)), nil
		case "^":
			return value.NewIntFromBig(new(big.Int).Xor(li.V, ri.V)), nil
		case "<<":
			return value.NewIntFromBig(new(big.Int).Lsh(li.V, uint(ri.V.Int64()))), nil
		case ">>":
			return value.NewIntFromBig(new(big.Int).Rsh(li.V, uint(ri.V.Int64()))), nil
		}
	}

	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if !lok || !rok {
		return nil, typeErr(op, l, r)
	}
	switch op {
	case "+":
		return value.Float(lf + rf), nil
	case "-":
		return value.Float(lf - rf), nil
	case "*":
		return value.Float(lf * rf), nil
	case "/":
		if rf == 0 {
			return nil, perrors.New(perrors.KindRuntime, perrors.ZeroDivisionError, "division by zero")
		}
		return value.Float(lf / rf), nil
	case "//":
		if rf == 0 {
			return nil, perrors.New(perrors.KindRuntime, perrors.ZeroDivisionError, "float floor division by zero")
		}
		return value.Float(math.Floor(lf / rf)), nil
	case "%":
		if rf == 0 {
			return nil, perrors.New(perrors.KindRuntime, perrors.ZeroDivisionError, "float modulo")
		}
		return value.Float(math.Mod(lf, rf)), nil
	case "**":
		return value.Float(math.Pow(lf, rf)), nil
	default:
		return nil, typeErr(op, l, r)
	}
}

func unaryOp(op string, v value.Value) (value.Value, error) {
	switch op {
	case "-":
		if i, ok := asIntValue(v); ok {
			return value.NewIntFromBig(new(big.Int).Neg(i.V)), nil
		}
		if f, ok := toFloat(v); ok {
			return value.Float(-f), nil
		}
	case "+":
		return v, nil
	case "~":
		if i, ok := asIntValue(v); ok {
			return value.NewIntFromBig(new(big.Int).Not(i.V)), nil
		}
	case "not":
		return value.Bool(!value.Truthy(v)), nil
	}
	return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "bad operand type for unary "+op+": '"+value.TypeName(v)+"'")
}

func (e *Eval) compare(op string, l, r value.Value) (bool, error) {
	switch op {
	case "==":
		return e.eq(l, r), nil
	case "!=":
		return !e.eq(l, r), nil
	case "in":
		return e.contains(r, l)
	case "not in":
		c, err := e.contains(r, l)
		return !c, err
	case "is":
		return sameIdentity(l, r), nil
	case "is not":
		return !sameIdentity(l, r), nil
	}
	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if lok && rok {
		switch op {
		case "<":
			return lf < rf, nil
		case "<=":
			return lf <= rf, nil
		case ">":
			return lf > rf, nil
		case ">=":
			return lf >= rf, nil
		}
	}
	if ls, ok := l.(value.Str); ok {
		if rs, ok := r.(value.Str); ok {
			switch op {
			case "<":
				return ls < rs, nil
			case "<=":
				return ls <= rs, nil
			case ">":
				return ls > rs, nil
			case ">=":
				return ls >= rs, nil
			}
		}
	}
	return false, perrors.New(perrors.KindRuntime, perrors.TypeError,
		"'"+op+"' not supported between instances of '"+value.TypeName(l)+"' and '"+value.TypeName(r)+"'")
}

func (e *Eval) eq(l, r value.Value) bool {
	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if lok && rok {
		return lf == rf
	}
	switch x := l.(type) {
	case value.Str:
		y, ok := r.(value.Str)
		return ok && x == y
	case value.NoneType:
		_, ok := r.(value.NoneType)
		return ok
	case value.List:
		y, ok := r.(value.List)
		if !ok || len(x.Get()) != len(y.Get()) {
			return false
		}
		for i, el := range x.Get() {
			if !e.eq(el, y.Get()[i]) {
				return false
			}
		}
		return true
	case value.Tuple:
		y, ok := r.(value.Tuple)
		if !ok || len(x.Items) != len(y.Items) {
			return false
		}
		for i, el := range x.Items {
			if !e.eq(el, y.Items[i]) {
				return false
			}
		}
		return true
	case value.Dict:
		y, ok := r.(value.Dict)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, k := range x.Keys() {
			xv, _ := x.Get(k)
			yv, ok := y.Get(k)
			if !ok || !e.eq(xv, yv) {
				return false
			}
		}
		return true
	case value.Instance:
		if m, ok := x.Class.Dict["__eq__"]; ok {
			res, err := e.callDunder(m, x, r)
			if err == nil {
				return value.Truthy(res)
			}
		}
		y, ok := r.(value.Instance)
		return ok && x.Dict == y.Dict
	default:
		return false
	}
}

func sameIdentity(l, r value.Value) bool {
	switch x := l.(type) {
	case value.NoneType:
		_, ok := r.(value.NoneType)
		return ok
	case value.Bool:
		y, ok := r.(value.Bool)
		return ok && x == y
	case value.List:
		y, ok := r.(value.List)
		return ok && x.Items == y.Items
	case value.Instance:
		y, ok := r.(value.Instance)
		return ok && x.Dict == y.Dict
	case value.Int:
		y, ok := r.(value.Int)
		return ok && x.V.Cmp(y.V) == 0
	default:
		return false
	}
}

func (e *Eval) contains(container, item value.Value) (bool, error) {
	switch c := container.(type) {
	case value.Str:
		s, ok := item.(value.Str)
		if !ok {
			return false, perrors.New(perrors.KindRuntime, perrors.TypeError, "'in <string>' requires string as left operand")
		}
		return indexOfSubstring(string(c), string(s)), nil
	case value.List:
		for _, el := range c.Get() {
			if e.eq(el, item) {
				return true, nil
			}
		}
		return false, nil
	case value.Tuple:
		for _, el := range c.Items {
			if e.eq(el, item) {
				return true, nil
			}
		}
		return false, nil
	case value.Set:
		return c.Has(item), nil
	case value.Dict:
		_, ok := c.Get(item)
		return ok, nil
	case value.Range:
		n, ok := asIntValue(item)
		if !ok {
			return false, nil
		}
		v := n.V.Int64()
		if c.Step > 0 {
			return v >= c.Start && v < c.Stop && (v-c.Start)%c.Step == 0, nil
		}
		return v <= c.Start && v > c.Stop && (c.Start-v)%(-c.Step) == 0, nil
	default:
		return false, perrors.New(perrors.KindRuntime, perrors.TypeError, "argument of type '"+value.TypeName(container)+"' is not iterable")
	}
}

func indexOfSubstring(s, sub string) bool {
	return strings.Contains(s, sub)
}

func percentFormat(format string, arg value.Value) string {
	var args []value.Value
	if t, ok := arg.(value.Tuple); ok {
		args = t.Items
	} else {
		args = []value.Value{arg}
	}
	out := make([]byte, 0, len(format))
	ai := 0
	for i := 0; i < len(format); i++ {
		if format[i] == '%' && i+1 < len(format) {
			spec := format[i+1]
			i++
			if spec == '%' {
				out = append(out, '%')
				continue
			}
			if ai >= len(args) {
				continue
			}
			a := args[ai]
			ai++
			switch spec {
			case 's':
				out = append(out, value.ToStr(a)...)
			case 'd':
				out = append(out, value.Repr(a)...)
			case 'r':
				out = append(out, value.Repr(a)...)
			default:
				out = append(out, value.ToStr(a)...)
			}
			continue
		}
		out = append(out, format[i])
	}
	return string(out)
}

func normalizeIndex(idx value.Value, length int) (int, error) {
	n, ok := asIntValue(idx)
	if !ok {
		return 0, perrors.New(perrors.KindRuntime, perrors.TypeError, "indices must be integers")
	}
	i := int(n.V.Int64())
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, perrors.New(perrors.KindRuntime, perrors.IndexError, "index out of range")
	}
	return i, nil
}

// iterableToSlice eagerly materialises v's elements. For a user-defined
// instance with no native representation, it falls back to the
// __iter__/__next__ protocol: call __iter__ once to obtain an iterator
// object (often the instance itself), then call __next__ repeatedly
// until it raises StopIteration.
func (e *Eval) iterableToSlice(v value.Value) ([]value.Value, error) {
	switch x := v.(type) {
	case value.List:
		return append([]value.Value{}, x.Get()...), nil
	case value.Tuple:
		return x.Items, nil
	case value.Set:
		return x.Items(), nil
	case value.Str:
		out := make([]value.Value, 0, len(x))
		for _, c := range string(x) {
			out = append(out, value.Str(string(c)))
		}
		return out, nil
	case value.Dict:
		return x.Keys(), nil
	case value.Range:
		n := x.Len()
		out := make([]value.Value, 0, n)
		for i := int64(0); i < n; i++ {
			out = append(out, value.NewInt(x.Start+i*x.Step))
		}
		return out, nil
	case value.Generator:
		return x.Materialized, nil
	case value.Instance:
		return e.drainIterProtocol(x)
	default:
		return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "'"+value.TypeName(v)+"' object is not iterable")
	}
}

func (e *Eval) drainIterProtocol(inst value.Instance) ([]value.Value, error) {
	iterVal := value.Value(inst)
	if m, ok := lookupMethod(inst.Class, "__iter__"); ok {
		fn, ok := m.(value.Function)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "__iter__ method is not callable")
		}
		v, err := e.callFunction(fn, inst, nil, nil)
		if err != nil {
			return nil, err
		}
		iterVal = v
	}
	iterInst, ok := iterVal.(value.Instance)
	if !ok {
		return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "'"+value.TypeName(iterVal)+"' object is not iterable")
	}
	nextMethod, ok := lookupMethod(iterInst.Class, "__next__")
	if !ok {
		return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "'"+iterInst.Class.Name+"' object is not an iterator")
	}
	nextFn, ok := nextMethod.(value.Function)
	if !ok {
		return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "__next__ method is not callable")
	}
	var out []value.Value
	for {
		v, err := e.callFunction(nextFn, iterInst, nil, nil)
		if err != nil {
			if perrors.IsException(err, "StopIteration") {
				return out, nil
			}
			return out, err
		}
		out = append(out, v)
	}
}
