package dispatch

import (
	"strconv"
	"strings"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func asStr(recv value.Value) string { return string(recv.(value.Str)) }

func argStr(args []value.Value, i int) (string, error) {
	if i >= len(args) {
		return "", perrors.New(perrors.KindRuntime, perrors.TypeError, "missing argument")
	}
	s, ok := args[i].(value.Str)
	if !ok {
		return "", perrors.New(perrors.KindRuntime, perrors.TypeError, "expected str argument")
	}
	return string(s), nil
}

func registerStrMethods(r *Registry) {
	r.Register("str", "upper", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		return value.Str(strings.ToUpper(asStr(recv))), nil
	})
	r.Register("str", "lower", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		return value.Str(strings.ToLower(asStr(recv))), nil
	})
	r.Register("str", "strip", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		if len(args) > 0 {
			cut, err := argStr(args, 0)
			if err != nil {
				return nil, err
			}
			return value.Str(strings.Trim(asStr(recv), cut)), nil
		}
		return value.Str(strings.TrimSpace(asStr(recv))), nil
	})
	r.Register("str", "lstrip", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		if len(args) > 0 {
			cut, err := argStr(args, 0)
			if err != nil {
				return nil, err
			}
			return value.Str(strings.TrimLeft(asStr(recv), cut)), nil
		}
		return value.Str(strings.TrimLeft(asStr(recv), " \t\n\r")), nil
	})
	r.Register("str", "rstrip", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		if len(args) > 0 {
			cut, err := argStr(args, 0)
			if err != nil {
				return nil, err
			}
			return value.Str(strings.TrimRight(asStr(recv), cut)), nil
		}
		return value.Str(strings.TrimRight(asStr(recv), " \t\n\r")), nil
	})
	r.Register("str", "split", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s := asStr(recv)
		var parts []string
		if len(args) == 0 {
			parts = strings.Fields(s)
		} else {
			sep, err := argStr(args, 0)
			if err != nil {
				return nil, err
			}
			parts = strings.Split(s, sep)
		}
		items := make([]value.Value, len(parts))
		for i, p := range parts {
			items[i] = value.Str(p)
		}
		return value.NewList(items), nil
	})
	r.Register("str", "rsplit", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s := asStr(recv)
		var parts []string
		if len(args) == 0 {
			parts = strings.Fields(s)
		} else {
			sep, err := argStr(args, 0)
			if err != nil {
				return nil, err
			}
			parts = strings.Split(s, sep)
		}
		items := make([]value.Value, len(parts))
		for i, p := range parts {
			items[i] = value.Str(p)
		}
		return value.NewList(items), nil
	})
	r.Register("str", "splitlines", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		parts := strings.Split(asStr(recv), "\n")
		if len(parts) > 0 && parts[len(parts)-1] == "" {
			parts = parts[:len(parts)-1]
		}
		items := make([]value.Value, len(parts))
		for i, p := range parts {
			items[i] = value.Str(strings.TrimSuffix(p, "\r"))
		}
		return value.NewList(items), nil
	})
	r.Register("str", "join", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		sep := asStr(recv)
		if len(args) == 0 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "join() requires an iterable")
		}
		lst, ok := args[0].(value.List)
		if !ok {
			if t, ok2 := args[0].(value.Tuple); ok2 {
				parts := make([]string, len(t.Items))
				for i, e := range t.Items {
					parts[i] = value.ToStr(e)
				}
				return value.Str(strings.Join(parts, sep)), nil
			}
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "join() argument must be an iterable")
		}
		items := lst.Get()
		parts := make([]string, len(items))
		for i, e := range items {
			s, ok := e.(value.Str)
			if !ok {
				return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "sequence item: expected str instance")
			}
			parts[i] = string(s)
		}
		return value.Str(strings.Join(parts, sep)), nil
	})
	r.Register("str", "replace", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		old, err := argStr(args, 0)
		if err != nil {
			return nil, err
		}
		new, err := argStr(args, 1)
		if err != nil {
			return nil, err
		}
		count := -1
		if len(args) > 2 {
			if n, ok := args[2].(value.Int); ok {
				count = int(n.V.Int64())
			}
		}
		return value.Str(strings.Replace(asStr(recv), old, new, count)), nil
	})
	r.Register("str", "startswith", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		p, err := argStr(args, 0)
		if err != nil {
			return nil, err
		}
		return value.Bool(strings.HasPrefix(asStr(recv), p)), nil
	})
	r.Register("str", "endswith", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		p, err := argStr(args, 0)
		if err != nil {
			return nil, err
		}
		return value.Bool(strings.HasSuffix(asStr(recv), p)), nil
	})
	r.Register("str", "find", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		p, err := argStr(args, 0)
		if err != nil {
			return nil, err
		}
		return value.NewInt(int64(strings.Index(asStr(recv), p))), nil
	})
	r.Register("str", "rfind", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		p, err := argStr(args, 0)
		if err != nil {
			return nil, err
		}
		return value.NewInt(int64(strings.LastIndex(asStr(recv), p))), nil
	})
	r.Register("str", "count", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		p, err := argStr(args, 0)
		if err != nil {
			return nil, err
		}
		return value.NewInt(int64(strings.Count(asStr(recv), p))), nil
	})
	r.Register("str", "format", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s := asStr(recv)
		for i, a := range args {
			s = strings.Replace(s, "{"+strconv.Itoa(i)+"}", value.ToStr(a), -1)
		}
		s = strings.Replace(s, "{}", "", -1)
		for k, v := range kw {
			s = strings.Replace(s, "{"+k+"}", value.ToStr(v), -1)
		}
		return value.Str(s), nil
	})
	r.Register("str", "title", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		return value.Str(strings.Title(strings.ToLower(asStr(recv)))), nil
	})
	r.Register("str", "capitalize", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s := asStr(recv)
		if s == "" {
			return value.Str(""), nil
		}
		return value.Str(strings.ToUpper(s[:1]) + strings.ToLower(s[1:])), nil
	})
	r.Register("str", "isdigit", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s := asStr(recv)
		if s == "" {
			return value.Bool(false), nil
		}
		for _, c := range s {
			if c < '0' || c > '9' {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	})
	r.Register("str", "isalpha", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s := asStr(recv)
		if s == "" {
			return value.Bool(false), nil
		}
		for _, c := range s {
			if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	})
	r.Register("str", "isalnum", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s := asStr(recv)
		if s == "" {
			return value.Bool(false), nil
		}
		for _, c := range s {
			if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	})
	r.Register("str", "isspace", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s := asStr(recv)
		if s == "" {
			return value.Bool(false), nil
		}
		return value.Bool(strings.TrimSpace(s) == ""), nil
	})
	r.Register("str", "isupper", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s := asStr(recv)
		return value.Bool(s != "" && s == strings.ToUpper(s) && s != strings.ToLower(s)), nil
	})
	r.Register("str", "islower", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s := asStr(recv)
		return value.Bool(s != "" && s == strings.ToLower(s) && s != strings.ToUpper(s)), nil
	})
	r.Register("str", "zfill", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		n, ok := args[0].(value.Int)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "zfill() requires an int")
		}
		s := asStr(recv)
		width := int(n.V.Int64())
		if len(s) >= width {
			return value.Str(s), nil
		}
		sign := ""
		body := s
		if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
			sign = s[:1]
			body = s[1:]
		}
		return value.Str(sign + strings.Repeat("0", width-len(s)) + body), nil
	})
	r.Register("str", "encode", func(recv value.Value, args []value.Value, kw map[string]value.Value) (value.Value, error) {
		return value.Str(asStr(recv)), nil
	})
}
