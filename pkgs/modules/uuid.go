package modules

import (
	"fmt"
	"math/rand"

	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// buildUUID generates RFC 4122 version-4-shaped identifiers from the
// context's seeded source, trading true randomness for replay fidelity.
func buildUUID(ctx *pycontext.Context) value.Module {
	seed := int64(42)
	if ctx != nil && ctx.Capabilities.RandomSeed != 0 {
		seed = ctx.Capabilities.RandomSeed ^ 0x00d1d
	}
	r := rand.New(rand.NewSource(seed))

	m := value.NewModule("uuid")
	m.Set("uuid4", value.Builtin{Name: "uuid4", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		var b [16]byte
		r.Read(b[:])
		b[6] = (b[6] & 0x0f) | 0x40
		b[8] = (b[8] & 0x3f) | 0x80
		s := fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
		ctx.RecordEvent("side_effect", map[string]interface{}{"source": "uuid.uuid4", "value": s})
		return value.Str(s), nil
	}})
	return m
}
