package modules

import (
	htmllib "html"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func buildHTML(ctx *pycontext.Context) value.Module {
	m := value.NewModule("html")
	m.Set("escape", value.Builtin{Name: "escape", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "escape() takes exactly one argument")
		}
		s, ok := args[0].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "escape() expects a str")
		}
		return value.Str(htmllib.EscapeString(string(s))), nil
	}})
	m.Set("unescape", value.Builtin{Name: "unescape", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "unescape() takes exactly one argument")
		}
		s, ok := args[0].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "unescape() expects a str")
		}
		return value.Str(htmllib.UnescapeString(string(s))), nil
	}})
	return m
}
