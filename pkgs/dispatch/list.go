package dispatch

import (
	"sort"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func registerListMethods(r *Registry) {
	r.Register("list", "append", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		l := recv.(value.List)
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "append() takes exactly one argument")
		}
		l.Set(append(l.Get(), args[0]))
		return value.None, nil
	})
	r.Register("list", "extend", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		l := recv.(value.List)
		other, err := toSlice(args[0])
		if err != nil {
			return nil, err
		}
		l.Set(append(l.Get(), other...))
		return value.None, nil
	})
	r.Register("list", "insert", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		l := recv.(value.List)
		idx, ok := args[0].(value.Int)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "insert() index must be an int")
		}
		items := l.Get()
		i := normalizeInsertIndex(int(idx.V.Int64()), len(items))
		items = append(items, nil)
		copy(items[i+1:], items[i:])
		items[i] = args[1]
		l.Set(items)
		return value.None, nil
	})
	r.Register("list", "pop", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		l := recv.(value.List)
		items := l.Get()
		if len(items) == 0 {
			return nil, perrors.New(perrors.KindRuntime, perrors.IndexError, "pop from empty list")
		}
		idx := len(items) - 1
		if len(args) > 0 {
			n, ok := args[0].(value.Int)
			if !ok {
				return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "pop() index must be an int")
			}
			idx = int(n.V.Int64())
			if idx < 0 {
				idx += len(items)
			}
		}
		if idx < 0 || idx >= len(items) {
			return nil, perrors.New(perrors.KindRuntime, perrors.IndexError, "pop index out of range")
		}
		v := items[idx]
		items = append(items[:idx], items[idx+1:]...)
		l.Set(items)
		return v, nil
	})
	r.Register("list", "remove", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		l := recv.(value.List)
		items := l.Get()
		for i, e := range items {
			if valuesEqual(e, args[0]) {
				l.Set(append(items[:i], items[i+1:]...))
				return value.None, nil
			}
		}
		return nil, perrors.New(perrors.KindRuntime, perrors.ValueError, "list.remove(x): x not in list")
	})
	r.Register("list", "clear", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		recv.(value.List).Set([]value.Value{})
		return value.None, nil
	})
	r.Register("list", "index", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		items := recv.(value.List).Get()
		for i, e := range items {
			if valuesEqual(e, args[0]) {
				return value.NewInt(int64(i)), nil
			}
		}
		return nil, perrors.New(perrors.KindRuntime, perrors.ValueError, "value not in list")
	})
	r.Register("list", "count", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		items := recv.(value.List).Get()
		n := 0
		for _, e := range items {
			if valuesEqual(e, args[0]) {
				n++
			}
		}
		return value.NewInt(int64(n)), nil
	})
	r.Register("list", "sort", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		l := recv.(value.List)
		items := append([]value.Value{}, l.Get()...)
		reverse := false
		if rv, ok := kw["reverse"]; ok {
			reverse = value.Truthy(rv)
		}
		var keyFn func(value.Value) (value.Value, error)
		if kf, ok := kw["key"]; ok {
			keyFn = func(v value.Value) (value.Value, error) { return callKeyFunc(kf, v) }
		}
		var sortErr error
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i], items[j]
			if keyFn != nil {
				var err error
				a, err = keyFn(items[i])
				if err != nil {
					sortErr = err
				}
				b, err = keyFn(items[j])
				if err != nil {
					sortErr = err
				}
			}
			less, err := valuesLess(a, b)
			if err != nil {
				sortErr = err
			}
			return less
		})
		if sortErr != nil {
			return nil, sortErr
		}
		if reverse {
			for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
				items[i], items[j] = items[j], items[i]
			}
		}
		l.Set(items)
		return value.None, nil
	})
	r.Register("list", "reverse", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		l := recv.(value.List)
		items := l.Get()
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		l.Set(items)
		return value.None, nil
	})
	r.Register("list", "copy", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		return value.NewList(append([]value.Value{}, recv.(value.List).Get()...)), nil
	})
}

// callKeyFunc is set by the evaluator package at startup to let sort/key=
// invoke a Python callable without dispatch importing evaluator (which
// would create an import cycle).
var CallKeyFunc func(fn value.Value, arg value.Value) (value.Value, error)

func callKeyFunc(fn value.Value, arg value.Value) (value.Value, error) {
	if CallKeyFunc == nil {
		return arg, nil
	}
	return CallKeyFunc(fn, arg)
}

func toSlice(v value.Value) ([]value.Value, error) {
	switch x := v.(type) {
	case value.List:
		return x.Get(), nil
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
	default:
		return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "object is not iterable")
	}
}

func normalizeInsertIndex(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			i = 0
		}
	}
	if i > n {
		i = n
	}
	return i
}
