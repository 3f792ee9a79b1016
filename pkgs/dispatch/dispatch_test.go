package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func TestCallUpperOnString(t *testing.T) {
	t.Parallel()
	got, err := Call(value.Str("hi"), "upper", nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, value.Str("HI"), got)
}

func TestCallUnknownMethodReturnsAttributeError(t *testing.T) {
	t.Parallel()
	_, err := Call(value.Str("hi"), "nope", nil, nil)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "has no attribute 'nope'")
	}
}

func TestHasReflectsRegisteredMethods(t *testing.T) {
	t.Parallel()
	assert.True(t, Has("str", "upper"))
	assert.False(t, Has("str", "definitely_not_a_method"))
}

func TestListAppendMutatesReceiverInPlace(t *testing.T) {
	t.Parallel()
	l := value.NewList([]value.Value{value.NewInt(1)})
	_, err := Call(l, "append", []value.Value{value.NewInt(2)}, nil)
	assert.NoError(t, err)
	assert.Equal(t, []value.Value{value.NewInt(1), value.NewInt(2)}, l.Get())
}

func TestRegistryLookupMissAndHit(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Register("list", "custom", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		return value.None, nil
	})

	_, ok := r.Lookup("list", "missing")
	assert.False(t, ok)

	fn, ok := r.Lookup("list", "custom")
	assert.True(t, ok)
	v, err := fn(value.NewList(nil), nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, value.None, v)
}

func TestNamesListsRegisteredMethodsForType(t *testing.T) {
	t.Parallel()
	names := Global().Names("str")
	assert.Contains(t, names, "upper")
	assert.Contains(t, names, "lower")
}
