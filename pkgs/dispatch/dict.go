package dispatch

import (
	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func registerDictMethods(r *Registry) {
	r.Register("dict", "get", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		d := recv.(value.Dict)
		v, ok := d.Get(args[0])
		if ok {
			return v, nil
		}
		if len(args) > 1 {
			return args[1], nil
		}
		return value.None, nil
	})
	r.Register("dict", "keys", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		return value.NewList(recv.(value.Dict).Keys()), nil
	})
	r.Register("dict", "values", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		d := recv.(value.Dict)
		keys := d.Keys()
		vals := make([]value.Value, len(keys))
		for i, k := range keys {
			vals[i], _ = d.Get(k)
		}
		return value.NewList(vals), nil
	})
	r.Register("dict", "items", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		d := recv.(value.Dict)
		keys := d.Keys()
		items := make([]value.Value, len(keys))
		for i, k := range keys {
			v, _ := d.Get(k)
			items[i] = value.Tuple{Items: []value.Value{k, v}}
		}
		return value.NewList(items), nil
	})
	r.Register("dict", "pop", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		d := recv.(value.Dict)
		v, ok := d.Get(args[0])
		if !ok {
			if len(args) > 1 {
				return args[1], nil
			}
			return nil, perrors.New(perrors.KindRuntime, perrors.KeyError, value.Repr(args[0]))
		}
		d.Delete(args[0])
		return v, nil
	})
	r.Register("dict", "update", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		d := recv.(value.Dict)
		if len(args) > 0 {
			other, ok := args[0].(value.Dict)
			if !ok {
				return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "update() argument must be a dict")
			}
			for _, k := range other.Keys() {
				v, _ := other.Get(k)
				d.Set(k, v)
			}
		}
		for k, v := range kw {
			d.Set(value.Str(k), v)
		}
		return value.None, nil
	})
	r.Register("dict", "setdefault", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		d := recv.(value.Dict)
		if v, ok := d.Get(args[0]); ok {
			return v, nil
		}
		def := value.Value(value.None)
		if len(args) > 1 {
			def = args[1]
		}
		d.Set(args[0], def)
		return def, nil
	})
	r.Register("dict", "clear", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		d := recv.(value.Dict)
		for _, k := range d.Keys() {
			d.Delete(k)
		}
		return value.None, nil
	})
	r.Register("dict", "copy", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		return recv.(value.Dict).Clone(), nil
	})
}
