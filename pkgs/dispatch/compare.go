package dispatch

import (
	"math/big"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// valuesEqual implements Python's == for the value types dispatch needs to
// compare internally (list.remove/index/count, dict/set membership already
// use value.Key). Numeric types compare across int/float/bool per
// Python's numeric tower.
func valuesEqual(a, b value.Value) bool {
	af, aIsNum := asNumber(a)
	bf, bIsNum := asNumber(b)
	if aIsNum && bIsNum {
		return af.Cmp(bf) == 0
	}
	switch x := a.(type) {
	case value.Str:
		y, ok := b.(value.Str)
		return ok && x == y
	case value.NoneType:
		_, ok := b.(value.NoneType)
		return ok
	case value.List:
		y, ok := b.(value.List)
		if !ok || len(x.Get()) != len(y.Get()) {
			return false
		}
		for i, e := range x.Get() {
			if !valuesEqual(e, y.Get()[i]) {
				return false
			}
		}
		return true
	case value.Tuple:
		y, ok := b.(value.Tuple)
		if !ok || len(x.Items) != len(y.Items) {
			return false
		}
		for i, e := range x.Items {
			if !valuesEqual(e, y.Items[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func asNumber(v value.Value) (*big.Rat, bool) {
	switch x := v.(type) {
	case value.Int:
		return new(big.Rat).SetInt(x.V), true
	case value.Float:
		r := new(big.Rat)
		r.SetFloat64(float64(x))
		return r, true
	case value.Bool:
		if bool(x) {
			return big.NewRat(1, 1), true
		}
		return big.NewRat(0, 1), true
	default:
		return nil, false
	}
}

// valuesLess implements Python's < for the subset of types sort() and
// comparison operators need directly.
func valuesLess(a, b value.Value) (bool, error) {
	af, aIsNum := asNumber(a)
	bf, bIsNum := asNumber(b)
	if aIsNum && bIsNum {
		return af.Cmp(bf) < 0, nil
	}
	as, aIsStr := a.(value.Str)
	bs, bIsStr := b.(value.Str)
	if aIsStr && bIsStr {
		return as < bs, nil
	}
	at, aIsTup := a.(value.Tuple)
	bt, bIsTup := b.(value.Tuple)
	if aIsTup && bIsTup {
		for i := 0; i < len(at.Items) && i < len(bt.Items); i++ {
			if valuesEqual(at.Items[i], bt.Items[i]) {
				continue
			}
			return valuesLess(at.Items[i], bt.Items[i])
		}
		return len(at.Items) < len(bt.Items), nil
	}
	return false, perrors.New(perrors.KindRuntime, perrors.TypeError,
		"'<' not supported between instances of '"+value.TypeName(a)+"' and '"+value.TypeName(b)+"'")
}
