package modules

import (
	"encoding/hex"
	"math/rand"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// buildSecrets draws from the same seeded source as random so token
// generation stays replayable; real unpredictability is not a property
// this sandbox can offer without breaking deterministic replay, so every
// draw is recorded as a side_effect event the same way random.random's is.
func buildSecrets(ctx *pycontext.Context) value.Module {
	seed := int64(7)
	if ctx != nil && ctx.Capabilities.RandomSeed != 0 {
		seed = ctx.Capabilities.RandomSeed ^ 0x5ec8e75
	}
	r := rand.New(rand.NewSource(seed))

	m := value.NewModule("secrets")
	m.Set("token_hex", value.Builtin{Name: "token_hex", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		n := int64(16)
		if len(args) == 1 {
			v, ok := asInt(args[0])
			if !ok {
				return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "token_hex() takes an int")
			}
			n = v
		}
		buf := make([]byte, n)
		r.Read(buf)
		ctx.RecordEvent("side_effect", map[string]interface{}{"source": "secrets.token_hex", "bytes": n})
		return value.Str(hex.EncodeToString(buf)), nil
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
		return items[r.Intn(len(items))], nil
	}})
	return m
}
