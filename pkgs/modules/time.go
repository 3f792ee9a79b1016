package modules

import (
	"time"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// clockNow returns the context's frozen clock when configured (replay
// determinism), falling back to wall time.
func clockNow(ctx *pycontext.Context) time.Time {
	if ctx != nil && ctx.Capabilities.ClockFrozenAt != 0 {
		return time.Unix(ctx.Capabilities.ClockFrozenAt, 0).UTC()
	}
	return time.Now().UTC()
}

func buildTime(ctx *pycontext.Context) value.Module {
	m := value.NewModule("time")
	m.Set("time", value.Builtin{Name: "time", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		return value.Float(float64(clockNow(ctx).UnixNano()) / 1e9), nil
	}})
	m.Set("sleep", value.Builtin{Name: "sleep", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		// Sandboxed execution never actually blocks on wall-clock sleep;
		// time.sleep is a no-op so compute-budget accounting stays the
		// only notion of "how long" a run took.
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "sleep() takes exactly one argument")
		}
		return value.None, nil
	}})
	return m
}

func buildDatetime(ctx *pycontext.Context) value.Module {
	m := value.NewModule("datetime")
	m.Set("now_isoformat", value.Builtin{Name: "now_isoformat", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		return value.Str(clockNow(ctx).Format(time.RFC3339)), nil
	}})
	m.Set("utcnow_isoformat", value.Builtin{Name: "utcnow_isoformat", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		return value.Str(clockNow(ctx).Format(time.RFC3339)), nil
	}})
	return m
}
