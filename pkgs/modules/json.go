package modules

import (
	"encoding/json"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// toGo converts a runtime Value into plain Go data (map/slice/string/
// float64/bool/nil) suitable for encoding/json, the bridge point between
// the interpreter's closed Value sum type and Go's JSON encoder.
func toGo(v value.Value) (interface{}, error) {
	switch x := v.(type) {
	case value.NoneType:
		return nil, nil
	case value.Bool:
		return bool(x), nil
	case value.Int:
		f, _ := toF(x)
		return f, nil
	case value.Float:
		return float64(x), nil
	case value.Str:
		return string(x), nil
	case value.List:
		out := make([]interface{}, 0, len(x.Get()))
		for _, e := range x.Get() {
			gv, err := toGo(e)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	case value.Tuple:
		out := make([]interface{}, 0, len(x.Items))
		for _, e := range x.Items {
			gv, err := toGo(e)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	case value.Dict:
		out := map[string]interface{}{}
		for _, k := range x.Keys() {
			ks, ok := k.(value.Str)
			if !ok {
				return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "json: keys must be str")
			}
			vv, _ := x.Get(k)
			gv, err := toGo(vv)
			if err != nil {
				return nil, err
			}
			out[string(ks)] = gv
		}
		return out, nil
	default:
		return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "object of type '"+value.TypeName(v)+"' is not JSON serializable")
	}
}

// fromGo converts decoded JSON data back into a runtime Value.
func fromGo(v interface{}) value.Value {
	switch x := v.(type) {
	case nil:
		return value.None
	case bool:
		return value.Bool(x)
	case float64:
		return value.Float(x)
	case int:
		return value.NewInt(int64(x))
	case string:
		return value.Str(x)
	case []interface{}:
		items := make([]value.Value, len(x))
		for i, e := range x {
			items[i] = fromGo(e)
		}
		return value.NewList(items)
	case map[string]interface{}:
		d := value.NewDict()
		for k, e := range x {
			d.Set(value.Str(k), fromGo(e))
		}
		return d
	default:
		return value.None
	}
}

func buildJSON(ctx *pycontext.Context) value.Module {
	m := value.NewModule("json")
	m.Set("dumps", value.Builtin{Name: "dumps", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "dumps() takes exactly one argument")
		}
		gv, err := toGo(args[0])
		if err != nil {
			return nil, err
		}
		var out []byte
		if v, ok := kwargs["indent"]; ok {
			n, _ := toF(v)
			out, err = json.MarshalIndent(gv, "", spaces(int(n)))
		} else {
			out, err = json.Marshal(gv)
		}
		if err != nil {
			return nil, perrors.Wrap(perrors.KindRuntime, perrors.ValueError, "could not serialize to JSON", err)
		}
		return value.Str(out), nil
	}})
	m.Set("loads", value.Builtin{Name: "loads", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "loads() takes exactly one argument")
		}
		s, ok := args[0].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "the JSON object must be str")
		}
		var data interface{}
		if err := json.Unmarshal([]byte(s), &data); err != nil {
			return nil, perrors.Wrap(perrors.KindRuntime, perrors.ValueError, "invalid JSON: "+err.Error(), err)
		}
		return fromGo(data), nil
	}})
	return m
}

func spaces(n int) string {
	if n < 0 {
		n = 0
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = ' '
	}
	return string(out)
}
