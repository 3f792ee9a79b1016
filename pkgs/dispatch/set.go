package dispatch

import (
	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func registerSetMethods(r *Registry) {
	r.Register("set", "add", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		recv.(value.Set).Add(args[0])
		return value.None, nil
	})
	r.Register("set", "discard", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		recv.(value.Set).Delete(args[0])
		return value.None, nil
	})
	r.Register("set", "remove", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s := recv.(value.Set)
		if !s.Has(args[0]) {
			return nil, keyErrorFor(args[0])
		}
		s.Delete(args[0])
		return value.None, nil
	})
	r.Register("set", "union", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		out := value.NewSet()
		for _, v := range recv.(value.Set).Items() {
			out.Add(v)
		}
		for _, a := range args {
			items, err := toSlice(a)
			if err != nil {
				return nil, err
			}
			for _, v := range items {
				out.Add(v)
			}
		}
		return out, nil
	})
	r.Register("set", "intersection", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s := recv.(value.Set)
		out := value.NewSet()
		if len(args) == 0 {
			for _, v := range s.Items() {
				out.Add(v)
			}
			return out, nil
		}
		other, err := toSlice(args[0])
		if err != nil {
			return nil, err
		}
		otherSet := value.NewSet()
		for _, v := range other {
			otherSet.Add(v)
		}
		for _, v := range s.Items() {
			if otherSet.Has(v) {
				out.Add(v)
			}
		}
		return out, nil
	})
	r.Register("set", "difference", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s := recv.(value.Set)
		out := value.NewSet()
		other, err := toSlice(args[0])
		if err != nil {
			return nil, err
		}
		otherSet := value.NewSet()
		for _, v := range other {
			otherSet.Add(v)
		}
		for _, v := range s.Items() {
			if !otherSet.Has(v) {
				out.Add(v)
			}
		}
		return out, nil
	})
	r.Register("set", "issubset", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s := recv.(value.Set)
		other, err := toSlice(args[0])
		if err != nil {
			return nil, err
		}
		otherSet := value.NewSet()
		for _, v := range other {
			otherSet.Add(v)
		}
		for _, v := range s.Items() {
			if !otherSet.Has(v) {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	})
	r.Register("set", "clear", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s := recv.(value.Set)
		for _, v := range s.Items() {
			s.Delete(v)
		}
		return value.None, nil
	})
	r.Register("set", "copy", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		out := value.NewSet()
		for _, v := range recv.(value.Set).Items() {
			out.Add(v)
		}
		return out, nil
	})
}

func keyErrorFor(v value.Value) error {
	return perrors.New(perrors.KindRuntime, perrors.KeyError, value.Repr(v))
}
