package modules

import (
	"math/rand"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// buildRandom seeds a dedicated rand.Rand from the context's configured
// RandomSeed so a program's draws are reproducible across live and replay
// runs: seeding deterministically is what makes replay possible without
// also having to log every individual draw.
func buildRandom(ctx *pycontext.Context) value.Module {
	seed := int64(1)
	if ctx != nil && ctx.Capabilities.RandomSeed != 0 {
		seed = ctx.Capabilities.RandomSeed
	}
	r := rand.New(rand.NewSource(seed))

	m := value.NewModule("random")
	m.Set("seed", value.Builtin{Name: "seed", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) == 1 {
			n, ok := asInt(args[0])
			if ok {
				r.Seed(n)
			}
		}
		return value.None, nil
	}})
	m.Set("random", value.Builtin{Name: "random", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		v := r.Float64()
		ctx.RecordEvent("side_effect", map[string]interface{}{"source": "random.random", "value": v})
		return value.Float(v), nil
	}})
	m.Set("randint", value.Builtin{Name: "randint", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "randint() takes exactly two arguments")
		}
		lo, _ := asInt(args[0])
		hi, _ := asInt(args[1])
		if hi < lo {
			return nil, perrors.New(perrors.KindRuntime, perrors.ValueError, "empty range for randint()")
		}
		v := lo + r.Int63n(hi-lo+1)
		ctx.RecordEvent("side_effect", map[string]interface{}{"source": "random.randint", "value": v})
		return value.NewInt(v), nil
	}})
	m.Set("choice", value.Builtin{Name: "choice", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "choice() takes exactly one argument")
		}
		seq, ok := args[0].(value.List)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "choice() expects a list")
		}
		items := seq.Get()
		if len(items) == 0 {
			return nil, perrors.New(perrors.KindRuntime, perrors.IndexError, "cannot choose from an empty sequence")
		}
		i := r.Intn(len(items))
		ctx.RecordEvent("side_effect", map[string]interface{}{"source": "random.choice", "index": i})
		return items[i], nil
	}})
	m.Set("shuffle", value.Builtin{Name: "shuffle", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "shuffle() takes exactly one argument")
		}
		seq, ok := args[0].(value.List)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "shuffle() expects a list")
		}
		items := seq.Get()
		r.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
		ctx.RecordEvent("side_effect", map[string]interface{}{"source": "random.shuffle", "length": len(items)})
		return value.None, nil
	}})
	return m
}

func asInt(v value.Value) (int64, bool) {
	switch x := v.(type) {
	case value.Int:
		return x.V.Int64(), true
	case value.Bool:
		if bool(x) {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
