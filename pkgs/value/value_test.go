package value

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
)

func TestTruthy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"none is falsy", None, false},
		{"true bool", Bool(true), true},
		{"false bool", Bool(false), false},
		{"zero int", NewInt(0), false},
		{"nonzero int", NewInt(3), true},
		{"zero float", Float(0), false},
		{"nonzero float", Float(0.1), true},
		{"empty string", Str(""), false},
		{"nonempty string", Str("x"), true},
		{"empty list", NewList(nil), false},
		{"nonempty list", NewList([]Value{NewInt(1)}), true},
		{"empty tuple", Tuple{}, false},
		{"nonempty tuple", Tuple{Items: []Value{NewInt(1)}}, true},
		{"empty dict", NewDict(), false},
		{"empty set", NewSet(), false},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			if got := Truthy(c.v); got != c.want {
				t.Errorf("Truthy(%v) = %v, want %v", c.v, got, c.want)
			}
		})
	}
}

func TestDictSetGetDelete(t *testing.T) {
	t.Parallel()
	d := NewDict()
	d.Set(Str("a"), NewInt(1))
	d.Set(Str("b"), NewInt(2))

	v, ok := d.Get(Str("a"))
	if !ok || v.(Int).V.Int64() != 1 {
		t.Fatalf("Get(a) = %v, %v", v, ok)
	}
	if d.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", d.Len())
	}

	// insertion order is preserved by Keys().
	keys := d.Keys()
	if len(keys) != 2 || keys[0].(Str) != "a" || keys[1].(Str) != "b" {
		t.Fatalf("Keys() = %v, want [a b]", keys)
	}

	if !d.Delete(Str("a")) {
		t.Fatalf("Delete(a) = false, want true")
	}
	if _, ok := d.Get(Str("a")); ok {
		t.Fatalf("Get(a) after delete should miss")
	}
	if d.Delete(Str("missing")) {
		t.Fatalf("Delete(missing) = true, want false")
	}
}

func TestDictSetOverwriteKeepsInsertionOrder(t *testing.T) {
	t.Parallel()
	d := NewDict()
	d.Set(Str("a"), NewInt(1))
	d.Set(Str("b"), NewInt(2))
	d.Set(Str("a"), NewInt(99))

	keys := d.Keys()
	if len(keys) != 2 {
		t.Fatalf("Keys() = %v, want 2 entries", keys)
	}
	v, _ := d.Get(Str("a"))
	if v.(Int).V.Int64() != 99 {
		t.Fatalf("Get(a) = %v, want 99", v)
	}
}

func TestSetAddHasDeleteDedup(t *testing.T) {
	t.Parallel()
	s := NewSet()
	s.Add(NewInt(1))
	s.Add(NewInt(1))
	s.Add(NewInt(2))

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (duplicate add must not grow the set)", s.Len())
	}
	if !s.Has(NewInt(1)) {
		t.Fatalf("Has(1) = false, want true")
	}
	s.Delete(NewInt(1))
	if s.Has(NewInt(1)) {
		t.Fatalf("Has(1) after delete = true, want false")
	}
}

func TestSetItemsOrderIsCanonicalAcrossCalls(t *testing.T) {
	t.Parallel()
	s := NewSet()
	s.Add(NewInt(3))
	s.Add(NewInt(1))
	s.Add(NewInt(2))

	first := s.Items()
	second := s.Items()
	if len(first) != len(second) {
		t.Fatalf("Items() length changed between calls")
	}
	for i := range first {
		if Key(first[i]) != Key(second[i]) {
			t.Fatalf("Items() order not stable across calls: %v vs %v", first, second)
		}
	}
}

func TestRangeLen(t *testing.T) {
	t.Parallel()
	cases := []struct {
		r    Range
		want int64
	}{
		{Range{0, 5, 1}, 5},
		{Range{0, 0, 1}, 0},
		{Range{5, 0, -1}, 5},
		{Range{0, 10, 3}, 4},
		{Range{10, 0, 1}, 0},
	}
	for _, c := range cases {
		if got := c.r.Len(); got != c.want {
			t.Errorf("Range%+v.Len() = %d, want %d", c.r, got, c.want)
		}
	}
}

func TestTypeName(t *testing.T) {
	t.Parallel()
	cases := []struct {
		v    Value
		want string
	}{
		{NewInt(1), "int"},
		{Float(1.5), "float"},
		{Bool(true), "bool"},
		{None, "NoneType"},
		{Str("x"), "str"},
		{NewList(nil), "list"},
		{Tuple{}, "tuple"},
		{NewDict(), "dict"},
		{NewSet(), "set"},
		{Range{}, "range"},
	}
	for _, c := range cases {
		if got := TypeName(c.v); got != c.want {
			t.Errorf("TypeName(%v) = %q, want %q", c.v, got, c.want)
		}
	}
}

func TestReprRoundTripForms(t *testing.T) {
	t.Parallel()
	cases := []struct {
		v    Value
		want string
	}{
		{None, "None"},
		{Bool(true), "True"},
		{Bool(false), "False"},
		{NewInt(42), "42"},
		{Str("a'b"), "'a\\'b'"},
		{NewList([]Value{NewInt(1), NewInt(2)}), "[1, 2]"},
		{Tuple{Items: []Value{NewInt(1)}}, "(1,)"},
		{Tuple{Items: []Value{NewInt(1), NewInt(2)}}, "(1, 2)"},
		{NewSet(), "set()"},
	}
	for _, c := range cases {
		if got := Repr(c.v); got != c.want {
			t.Errorf("Repr(%v) = %q, want %q", c.v, got, c.want)
		}
	}
}

func TestToStrUnwrapsStrButNotOthers(t *testing.T) {
	t.Parallel()
	if got := ToStr(Str("hi")); got != "hi" {
		t.Errorf("ToStr(Str) = %q, want %q", got, "hi")
	}
	if got := ToStr(NewInt(7)); got != "7" {
		t.Errorf("ToStr(Int) = %q, want %q", got, "7")
	}
}

func TestToStrOfExceptionInstanceIsItsMessage(t *testing.T) {
	t.Parallel()
	cls := &Class{Name: "ValueError", Dict: map[string]Value{}, IsException: true}
	cls.MRO = []*Class{cls}

	noArgs := NewInstance(cls)
	if got := ToStr(noArgs); got != "" {
		t.Errorf("ToStr(no-arg exception) = %q, want empty string", got)
	}

	oneArg := NewInstance(cls)
	(*oneArg.Dict)["args"] = Tuple{Items: []Value{Str("bad")}}
	if got := ToStr(oneArg); got != "bad" {
		t.Errorf("ToStr(one-arg exception) = %q, want %q", got, "bad")
	}
	if got := Repr(oneArg); got != "ValueError('bad')" {
		t.Errorf("Repr(one-arg exception) = %q, want %q", got, "ValueError('bad')")
	}

	twoArgs := NewInstance(cls)
	(*twoArgs.Dict)["args"] = Tuple{Items: []Value{Str("a"), NewInt(2)}}
	if got := ToStr(twoArgs); got != "('a', 2)" {
		t.Errorf("ToStr(two-arg exception) = %q, want %q", got, "('a', 2)")
	}
}

func TestPlainInstanceReprIsUnaffectedByExceptionFormatting(t *testing.T) {
	t.Parallel()
	cls := &Class{Name: "Point", Dict: map[string]Value{}}
	cls.MRO = []*Class{cls}
	inst := NewInstance(cls)
	if got := Repr(inst); got != "<Point object>" {
		t.Errorf("Repr(plain instance) = %q, want %q", got, "<Point object>")
	}
}

func TestToStrAndTypeNameOfCaughtPyError(t *testing.T) {
	t.Parallel()
	exc := perrors.NewUserException("ValueError", "bad")
	if got := ToStr(*exc); got != "bad" {
		t.Errorf("ToStr(PyError) = %q, want %q", got, "bad")
	}
	if got := TypeName(*exc); got != "ValueError" {
		t.Errorf("TypeName(PyError) = %q, want %q", got, "ValueError")
	}
}

func TestTupleDeepEquality(t *testing.T) {
	t.Parallel()
	want := Tuple{Items: []Value{Str("a"), Bool(true), None, Tuple{Items: []Value{Str("nested")}}}}
	got := Tuple{Items: []Value{Str("a"), Bool(true), None, Tuple{Items: []Value{Str("nested")}}}}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tuple mismatch (-want +got):\n%s", diff)
	}

	got.Items[0] = Str("b")
	if diff := cmp.Diff(want, got); diff == "" {
		t.Errorf("expected a diff once Items[0] changed, got none")
	}
}

func TestKeyUnhashablePanics(t *testing.T) {
	t.Parallel()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("Key(list) did not panic")
		}
		if _, ok := r.(*UnhashableError); !ok {
			t.Fatalf("recovered %T, want *UnhashableError", r)
		}
	}()
	Key(NewList(nil))
}
