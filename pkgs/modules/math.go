package modules

import (
	"math"
	"math/big"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func toF(v value.Value) (float64, bool) {
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
	}
	return 0, false
}

func unary(name string, fn func(float64) float64) value.Builtin {
	return value.Builtin{Name: name, Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, name+"() takes exactly one argument")
		}
		f, ok := toF(args[0])
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "must be real number, not "+value.TypeName(args[0]))
		}
		return value.Float(fn(f)), nil
	}}
}

func buildMath(ctx *pycontext.Context) value.Module {
	m := value.NewModule("math")
	m.Set("pi", value.Float(math.Pi))
	m.Set("e", value.Float(math.E))
	m.Set("inf", value.Float(math.Inf(1)))
	m.Set("nan", value.Float(math.NaN()))
	m.Set("sqrt", unary("sqrt", math.Sqrt))
	m.Set("floor", unary("floor", math.Floor))
	m.Set("ceil", unary("ceil", math.Ceil))
	m.Set("sin", unary("sin", math.Sin))
	m.Set("cos", unary("cos", math.Cos))
	m.Set("tan", unary("tan", math.Tan))
	m.Set("log", unary("log", math.Log))
	m.Set("log2", unary("log2", math.Log2))
	m.Set("log10", unary("log10", math.Log10))
	m.Set("exp", unary("exp", math.Exp))
	m.Set("fabs", unary("fabs", math.Abs))
	m.Set("trunc", unary("trunc", math.Trunc))
	m.Set("pow", value.Builtin{Name: "pow", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "pow() takes exactly two arguments")
		}
		a, _ := toF(args[0])
		b, _ := toF(args[1])
		return value.Float(math.Pow(a, b)), nil
	}})
	m.Set("hypot", value.Builtin{Name: "hypot", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "hypot() takes exactly two arguments")
		}
		a, _ := toF(args[0])
		b, _ := toF(args[1])
		return value.Float(math.Hypot(a, b)), nil
	}})
	m.Set("isnan", value.Builtin{Name: "isnan", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		f, _ := toF(args[0])
		return value.Bool(math.IsNaN(f)), nil
	}})
	m.Set("isinf", value.Builtin{Name: "isinf", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		f, _ := toF(args[0])
		return value.Bool(math.IsInf(f, 0)), nil
	}})
	return m
}
