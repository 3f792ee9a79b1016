package dispatch

import (
	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func registerTupleMethods(r *Registry) {
	r.Register("tuple", "count", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		t := recv.(value.Tuple)
		n := 0
		for _, e := range t.Items {
			if valuesEqual(e, args[0]) {
				n++
			}
		}
		return value.NewInt(int64(n)), nil
	})
	r.Register("tuple", "index", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		t := recv.(value.Tuple)
		for i, e := range t.Items {
			if valuesEqual(e, args[0]) {
				return value.NewInt(int64(i)), nil
			}
		}
		return nil, perrors.New(perrors.KindRuntime, perrors.ValueError, "tuple.index(x): x not in tuple")
	})
}
