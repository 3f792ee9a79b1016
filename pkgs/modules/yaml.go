package modules

import (
	"gopkg.in/yaml.v3"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// buildYAML reuses json.go's toGo/fromGo bridge: yaml.v3 unmarshals
// mappings into map[string]interface{} (unlike yaml.v2's
// map[interface{}]interface{}), so the same conversion helpers serve
// both formats without a parallel Value<->Go translation layer.
func buildYAML(ctx *pycontext.Context) value.Module {
	m := value.NewModule("yaml")
	m.Set("dump", value.Builtin{Name: "dump", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "dump() takes exactly one argument")
		}
		gv, err := toGo(args[0])
		if err != nil {
			return nil, err
		}
		out, err := yaml.Marshal(gv)
		if err != nil {
			return nil, perrors.Wrap(perrors.KindRuntime, perrors.ValueError, "could not serialize to YAML", err)
		}
		return value.Str(out), nil
	}})
	m.Set("safe_load", value.Builtin{Name: "safe_load", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "safe_load() takes exactly one argument")
		}
		s, ok := args[0].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "the YAML document must be str")
		}
		var data interface{}
		if err := yaml.Unmarshal([]byte(s), &data); err != nil {
			return nil, perrors.Wrap(perrors.KindRuntime, perrors.ValueError, "invalid YAML: "+err.Error(), err)
		}
		return fromGo(data), nil
	}})
	return m
}
