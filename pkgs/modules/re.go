package modules

import (
	"regexp"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func compileRe(args []value.Value) (*regexp.Regexp, error) {
	if len(args) == 0 {
		return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "missing pattern argument")
	}
	pat, ok := args[0].(value.Str)
	if !ok {
		return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "pattern must be a str")
	}
	re, err := regexp.Compile(string(pat))
	if err != nil {
		return nil, perrors.Wrap(perrors.KindRuntime, perrors.ValueError, "invalid regular expression: "+err.Error(), err)
	}
	return re, nil
}

func matchResult(re *regexp.Regexp, s string) value.Value {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return value.None
	}
	inst := &map[string]value.Value{
		"__text__":  value.Str(s),
		"__start__": value.NewInt(int64(loc[0])),
		"__end__":   value.NewInt(int64(loc[1])),
	}
	groups := value.NewList(nil)
	items := groups.Get()
	for i := 0; i*2 < len(loc); i++ {
		lo, hi := loc[i*2], loc[i*2+1]
		if lo < 0 {
			items = append(items, value.None)
			continue
		}
		items = append(items, value.Str(s[lo:hi]))
	}
	groups.Set(items)
	(*inst)["__groups__"] = groups
	matchClass := &value.Class{Name: "Match", Dict: matchMethods(groups.Get())}
	matchClass.MRO = []*value.Class{matchClass}
	return value.Instance{Class: matchClass, Dict: inst}
}

// matchMethods closes over this specific match's captured groups so
// group() can answer without needing a "self" lookup path back into the
// bound instance's dict.
func matchMethods(groups []value.Value) map[string]value.Value {
	return map[string]value.Value{
		"group": value.Builtin{Name: "group", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
			idx := int64(0)
			if len(args) == 1 {
				n, ok := asInt(args[0])
				if !ok {
					return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "group() index must be an int")
				}
				idx = n
			}
			if idx < 0 || int(idx) >= len(groups) {
				return nil, perrors.New(perrors.KindRuntime, perrors.IndexError, "no such group")
			}
			return groups[idx], nil
		}},
		"groups": value.Builtin{Name: "groups", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
			if len(groups) <= 1 {
				return value.Tuple{}, nil
			}
			return value.Tuple{Items: append([]value.Value{}, groups[1:]...)}, nil
		}},
	}
}

func buildRe(ctx *pycontext.Context) value.Module {
	m := value.NewModule("re")
	m.Set("match", value.Builtin{Name: "match", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		re, err := compileRe(args)
		if err != nil {
			return nil, err
		}
		s, ok := args[1].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "expected a str for the string to match")
		}
		loc := re.FindStringIndex(string(s))
		if loc == nil || loc[0] != 0 {
			return value.None, nil
		}
		return matchResult(re, string(s)), nil
	}})
	m.Set("search", value.Builtin{Name: "search", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		re, err := compileRe(args)
		if err != nil {
			return nil, err
		}
		s, ok := args[1].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "expected a str for the string to search")
		}
		return matchResult(re, string(s)), nil
	}})
	m.Set("findall", value.Builtin{Name: "findall", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		re, err := compileRe(args)
		if err != nil {
			return nil, err
		}
		s, ok := args[1].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "expected a str for the string to search")
		}
		var out []value.Value
		for _, m := range re.FindAllStringSubmatch(string(s), -1) {
			if len(m) > 1 {
				groups := make([]value.Value, len(m)-1)
				for i, g := range m[1:] {
					groups[i] = value.Str(g)
				}
				if len(groups) == 1 {
					out = append(out, groups[0])
				} else {
					out = append(out, value.Tuple{Items: groups})
				}
			} else {
				out = append(out, value.Str(m[0]))
			}
		}
		return value.NewList(out), nil
	}})
	m.Set("sub", value.Builtin{Name: "sub", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) < 3 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "sub() takes at least 3 arguments")
		}
		pat, ok := args[0].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "pattern must be a str")
		}
		re, err := regexp.Compile(string(pat))
		if err != nil {
			return nil, perrors.Wrap(perrors.KindRuntime, perrors.ValueError, "invalid regular expression: "+err.Error(), err)
		}
		repl, ok := args[1].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "repl must be a str")
		}
		s, ok := args[2].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "string must be a str")
		}
		return value.Str(re.ReplaceAllString(string(s), string(repl))), nil
	}})
	m.Set("split", value.Builtin{Name: "split", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		re, err := compileRe(args)
		if err != nil {
			return nil, err
		}
		s, ok := args[1].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "expected a str for the string to split")
		}
		parts := re.Split(string(s), -1)
		out := make([]value.Value, len(parts))
		for i, p := range parts {
			out[i] = value.Str(p)
		}
		return value.NewList(out), nil
	}})
	return m
}
