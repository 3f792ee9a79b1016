package modules

import (
	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// infiniteCap bounds the otherwise-unbounded iterators (count, cycle,
// repeat without a count) since this sandbox materializes sequences
// eagerly rather than lazily streaming them; a program that actually
// needs more than this many values from one of these should be using
// an explicit loop instead.
const infiniteCap = 10000

func buildItertools(ctx *pycontext.Context) value.Module {
	m := value.NewModule("itertools")

	m.Set("chain", value.Builtin{Name: "chain", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		var out []value.Value
		for _, a := range args {
			items, err := iterItems(a)
			if err != nil {
				return nil, err
			}
			out = append(out, items...)
		}
		return value.NewList(out), nil
	}})

	m.Set("count", value.Builtin{Name: "count", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		start, step := int64(0), int64(1)
		if len(args) > 0 {
			n, ok := asInt(args[0])
			if !ok {
				return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "count() start must be an int")
			}
			start = n
		}
		if len(args) > 1 {
			n, ok := asInt(args[1])
			if !ok {
				return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "count() step must be an int")
			}
			step = n
		}
		out := make([]value.Value, infiniteCap)
		for i := range out {
			out[i] = value.NewInt(start + int64(i)*step)
		}
		return value.NewList(out), nil
	}})

	m.Set("repeat", value.Builtin{Name: "repeat", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) == 0 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "repeat() takes at least one argument")
		}
		n := infiniteCap
		if len(args) > 1 {
			v, ok := asInt(args[1])
			if !ok {
				return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "repeat() count must be an int")
			}
			n = int(v)
		}
		out := make([]value.Value, n)
		for i := range out {
			out[i] = args[0]
		}
		return value.NewList(out), nil
	}})

	m.Set("cycle", value.Builtin{Name: "cycle", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "cycle() takes exactly one argument")
		}
		items, err := iterItems(args[0])
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return value.NewList(nil), nil
		}
		out := make([]value.Value, infiniteCap)
		for i := range out {
			out[i] = items[i%len(items)]
		}
		return value.NewList(out), nil
	}})

	m.Set("product", value.Builtin{Name: "product", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		pools := make([][]value.Value, len(args))
		for i, a := range args {
			items, err := iterItems(a)
			if err != nil {
				return nil, err
			}
			pools[i] = items
		}
		var out []value.Value
		var rec func(i int, cur []value.Value)
		rec = func(i int, cur []value.Value) {
			if i == len(pools) {
				out = append(out, value.Tuple{Items: append([]value.Value{}, cur...)})
				return
			}
			for _, v := range pools[i] {
				rec(i+1, append(cur, v))
			}
		}
		rec(0, nil)
		return value.NewList(out), nil
	}})

	m.Set("combinations", value.Builtin{Name: "combinations", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "combinations() takes exactly two arguments")
		}
		items, err := iterItems(args[0])
		if err != nil {
			return nil, err
		}
		r, ok := asInt(args[1])
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "combinations() r must be an int")
		}
		var out []value.Value
		var rec func(start int, cur []value.Value)
		rec = func(start int, cur []value.Value) {
			if len(cur) == int(r) {
				out = append(out, value.Tuple{Items: append([]value.Value{}, cur...)})
				return
			}
			for i := start; i < len(items); i++ {
				rec(i+1, append(cur, items[i]))
			}
		}
		rec(0, nil)
		return value.NewList(out), nil
	}})

	m.Set("permutations", value.Builtin{Name: "permutations", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) < 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "permutations() takes at least one argument")
		}
		items, err := iterItems(args[0])
		if err != nil {
			return nil, err
		}
		r := len(items)
		if len(args) > 1 {
			n, ok := asInt(args[1])
			if !ok {
				return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "permutations() r must be an int")
			}
			r = int(n)
		}
		var out []value.Value
		used := make([]bool, len(items))
		var rec func(cur []value.Value)
		rec = func(cur []value.Value) {
			if len(cur) == r {
				out = append(out, value.Tuple{Items: append([]value.Value{}, cur...)})
				return
			}
			for i := range items {
				if used[i] {
					continue
				}
				used[i] = true
				rec(append(cur, items[i]))
				used[i] = false
			}
		}
		rec(nil)
		return value.NewList(out), nil
	}})

	m.Set("groupby", value.Builtin{Name: "groupby", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "groupby() takes exactly one argument (no key function)")
		}
		items, err := iterItems(args[0])
		if err != nil {
			return nil, err
		}
		var out []value.Value
		var curKey value.Value
		var cur []value.Value
		flush := func() {
			if cur != nil {
				out = append(out, value.Tuple{Items: []value.Value{curKey, value.NewList(cur)}})
			}
		}
		for i, v := range items {
			if i == 0 || value.Key(v) != value.Key(curKey) {
				flush()
				curKey = v
				cur = []value.Value{v}
			} else {
				cur = append(cur, v)
			}
		}
		flush()
		return value.NewList(out), nil
	}})

	return m
}
