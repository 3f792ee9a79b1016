package modules

import (
	b64 "encoding/base64"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func buildBase64(ctx *pycontext.Context) value.Module {
	m := value.NewModule("base64")
	m.Set("b64encode", value.Builtin{Name: "b64encode", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "b64encode() takes exactly one argument")
		}
		s, ok := args[0].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "b64encode() expects a str")
		}
		return value.Str(b64.StdEncoding.EncodeToString([]byte(s))), nil
	}})
	m.Set("b64decode", value.Builtin{Name: "b64decode", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "b64decode() takes exactly one argument")
		}
		s, ok := args[0].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "b64decode() expects a str")
		}
		out, err := b64.StdEncoding.DecodeString(string(s))
		if err != nil {
			return nil, perrors.Wrap(perrors.KindRuntime, perrors.ValueError, "invalid base64: "+err.Error(), err)
		}
		return value.Str(out), nil
	}})
	return m
}
