package evaluator

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/ivarvong/pyex-sub003/pkgs/fsbackend"
	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// newBuiltins constructs the free-function builtin table bound to e,
// following the pattern of registering a fixed table of named
// callables once per run (runtime/decorators.Registry's init-time
// registration, generalised here from decorators to Python builtins).
// Builtins that need Ctx (print, open) or need to call back into the
// evaluator (sorted key=, map, filter) close over e rather than going
// through dispatch.Registry, since they are free functions, not methods
// bound to a receiver type.
func newBuiltins(e *Eval) map[string]value.Value {
	b := map[string]value.Value{}

	reg := func(name string, fn func(args []value.Value, kwargs map[string]value.Value) (value.Value, error)) {
		b[name] = value.Builtin{Name: name, Fn: fn}
	}

	reg("print", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		sep := " "
		if v, ok := kwargs["sep"]; ok {
			sep = value.ToStr(v)
		}
		end := "\n"
		if v, ok := kwargs["end"]; ok {
			end = value.ToStr(v)
		}
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = value.ToStr(a)
		}
		text := strings.Join(parts, sep) + end
		if e.Ctx.Stdout != nil {
			fmt.Fprint(e.Ctx.Stdout, text)
		}
		e.Ctx.RecordEvent("output", map[string]interface{}{"text": text})
		return value.None, nil
	})

	reg("suspend", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		e.Ctx.RecordEvent("suspend", map[string]interface{}{})
		return nil, errSuspended
	})

	reg("len", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "len() takes exactly one argument")
		}
		n, err := lengthOf(args[0])
		if err != nil {
			return nil, err
		}
		return value.NewInt(int64(n)), nil
	})

	reg("range", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		var start, stop, step int64 = 0, 0, 1
		switch len(args) {
		case 1:
			n, ok := asIntValue(args[0])
			if !ok {
				return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "range() argument must be an int")
			}
			stop = n.V.Int64()
		case 2, 3:
			n0, ok0 := asIntValue(args[0])
			n1, ok1 := asIntValue(args[1])
			if !ok0 || !ok1 {
				return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "range() arguments must be ints")
			}
			start, stop = n0.V.Int64(), n1.V.Int64()
			if len(args) == 3 {
				n2, ok2 := asIntValue(args[2])
				if !ok2 {
					return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "range() arguments must be ints")
				}
				step = n2.V.Int64()
				if step == 0 {
					return nil, perrors.New(perrors.KindRuntime, perrors.ValueError, "range() arg 3 must not be zero")
				}
			}
		default:
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "range expected 1 to 3 arguments")
		}
		return value.Range{Start: start, Stop: stop, Step: step}, nil
	})

	reg("str", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Str(""), nil
		}
		return value.Str(value.ToStr(args[0])), nil
	})

	reg("repr", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "repr() takes exactly one argument")
		}
		return value.Str(value.Repr(args[0])), nil
	})

	reg("int", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.NewInt(0), nil
		}
		base := 10
		if v, ok := kwargs["base"]; ok {
			n, _ := asIntValue(v)
			base = int(n.V.Int64())
		}
		switch x := args[0].(type) {
		case value.Int:
			return x, nil
		case value.Bool:
			if bool(x) {
				return value.NewInt(1), nil
			}
			return value.NewInt(0), nil
		case value.Float:
			i, _ := big.NewFloat(float64(x)).Int(nil)
			return value.NewIntFromBig(i), nil
		case value.Str:
			i := new(big.Int)
			text := strings.TrimSpace(string(x))
			if _, ok := i.SetString(text, base); !ok {
				return nil, perrors.New(perrors.KindRuntime, perrors.ValueError, "invalid literal for int() with base "+strconv.Itoa(base)+": "+value.Repr(x))
			}
			return value.NewIntFromBig(i), nil
		default:
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "int() argument must be a string or a number")
		}
	})

	reg("float", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Float(0), nil
		}
		switch x := args[0].(type) {
		case value.Float:
			return x, nil
		case value.Int:
			f, _ := toFloat(x)
			return value.Float(f), nil
		case value.Bool:
			f, _ := toFloat(x)
			return value.Float(f), nil
		case value.Str:
			f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
			if err != nil {
				return nil, perrors.New(perrors.KindRuntime, perrors.ValueError, "could not convert string to float: "+value.Repr(x))
			}
			return value.Float(f), nil
		default:
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "float() argument must be a string or a number")
		}
	})

	reg("bool", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Bool(false), nil
		}
		ok, err := e.truthy(args[0])
		if err != nil {
			return nil, err
		}
		return value.Bool(ok), nil
	})

	reg("list", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.NewList(nil), nil
		}
		items, err := e.iterableToSlice(args[0])
		if err != nil {
			return nil, err
		}
		return value.NewList(append([]value.Value{}, items...)), nil
	})

	reg("tuple", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Tuple{}, nil
		}
		items, err := e.iterableToSlice(args[0])
		if err != nil {
			return nil, err
		}
		return value.Tuple{Items: items}, nil
	})

	reg("set", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		s := value.NewSet()
		if len(args) == 0 {
			return s, nil
		}
		items, err := e.iterableToSlice(args[0])
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			s.Add(it)
		}
		return s, nil
	})

	reg("dict", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		d := value.NewDict()
		if len(args) == 1 {
			src, ok := args[0].(value.Dict)
			if !ok {
				return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "dict() argument must be a dict")
			}
			for _, k := range src.Keys() {
				v, _ := src.Get(k)
				d.Set(k, v)
			}
		}
		for k, v := range kwargs {
			d.Set(value.Str(k), v)
		}
		return d, nil
	})

	reg("sorted", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "sorted() takes exactly one argument")
		}
		items, err := e.iterableToSlice(args[0])
		if err != nil {
			return nil, err
		}
		items = append([]value.Value{}, items...)
		reverse := false
		if v, ok := kwargs["reverse"]; ok {
			reverse = value.Truthy(v)
		}
		var sortErr error
		keyed := items
		if keyFn, ok := kwargs["key"]; ok {
			keyed = make([]value.Value, len(items))
			for i, it := range items {
				k, err := e.callValue(keyFn, []value.Value{it}, nil, e.Global)
				if err != nil {
					return nil, err
				}
				keyed[i] = k
			}
		}
		idx := make([]int, len(items))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(i, j int) bool {
			less, err := e.compare("<", keyed[idx[i]], keyed[idx[j]])
			if err != nil {
				sortErr = err
			}
			return less
		})
		if sortErr != nil {
			return nil, sortErr
		}
		out := make([]value.Value, len(items))
		for i, j := range idx {
			out[i] = items[j]
		}
		if reverse {
			for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
				out[i], out[j] = out[j], out[i]
			}
		}
		return value.NewList(out), nil
	})

	reg("map", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) < 2 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "map() takes at least two arguments")
		}
		fn := args[0]
		items, err := e.iterableToSlice(args[1])
		if err != nil {
			return nil, err
		}
		out := make([]value.Value, len(items))
		for i, it := range items {
			v, err := e.callValue(fn, []value.Value{it}, nil, e.Global)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return value.NewList(out), nil
	})

	reg("filter", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "filter() takes exactly two arguments")
		}
		items, err := e.iterableToSlice(args[1])
		if err != nil {
			return nil, err
		}
		var out []value.Value
		for _, it := range items {
			testVal := it
			if _, isNone := args[0].(value.NoneType); !isNone {
				v, err := e.callValue(args[0], []value.Value{it}, nil, e.Global)
				if err != nil {
					return nil, err
				}
				testVal = v
			}
			keep, err := e.truthy(testVal)
			if err != nil {
				return nil, err
			}
			if keep {
				out = append(out, it)
			}
		}
		return value.NewList(out), nil
	})

	reg("zip", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		seqs := make([][]value.Value, len(args))
		minLen := -1
		for i, a := range args {
			items, err := e.iterableToSlice(a)
			if err != nil {
				return nil, err
			}
			seqs[i] = items
			if minLen < 0 || len(items) < minLen {
				minLen = len(items)
			}
		}
		if minLen < 0 {
			minLen = 0
		}
		out := make([]value.Value, minLen)
		for i := 0; i < minLen; i++ {
			row := make([]value.Value, len(seqs))
			for j, s := range seqs {
				row[j] = s[i]
			}
			out[i] = value.Tuple{Items: row}
		}
		return value.NewList(out), nil
	})

	reg("enumerate", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) == 0 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "enumerate() takes at least one argument")
		}
		start := int64(0)
		if len(args) > 1 {
			n, _ := asIntValue(args[1])
			start = n.V.Int64()
		}
		items, err := e.iterableToSlice(args[0])
		if err != nil {
			return nil, err
		}
		out := make([]value.Value, len(items))
		for i, it := range items {
			out[i] = value.Tuple{Items: []value.Value{value.NewInt(start + int64(i)), it}}
		}
		return value.NewList(out), nil
	})

	reg("abs", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		switch x := args[0].(type) {
		case value.Int:
			return value.NewIntFromBig(new(big.Int).Abs(x.V)), nil
		case value.Float:
			if x < 0 {
				return -x, nil
			}
			return x, nil
		default:
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "bad operand type for abs()")
		}
	})

	reg("round", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		f, ok := toFloat(args[0])
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "type not supported for round()")
		}
		if len(args) > 1 {
			n, _ := asIntValue(args[1])
			scale := mathPow10(int(n.V.Int64()))
			r := roundHalfEven(f*scale) / scale
			return value.Float(r), nil
		}
		i := int64(roundHalfEven(f))
		return value.NewInt(i), nil
	})

	reg("divmod", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		q, err := numericBinOp("//", args[0], args[1])
		if err != nil {
			return nil, err
		}
		m, err := numericBinOp("%", args[0], args[1])
		if err != nil {
			return nil, err
		}
		return value.Tuple{Items: []value.Value{q, m}}, nil
	})

	reg("pow", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) == 3 {
			base, _ := asIntValue(args[0])
			exp, _ := asIntValue(args[1])
			mod, _ := asIntValue(args[2])
			return value.NewIntFromBig(new(big.Int).Exp(base.V, exp.V, mod.V)), nil
		}
		return numericBinOp("**", args[0], args[1])
	})

	reg("min", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		return extremum(e, args, kwargs, true)
	})
	reg("max", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		return extremum(e, args, kwargs, false)
	})

	reg("sum", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		items, err := e.iterableToSlice(args[0])
		if err != nil {
			return nil, err
		}
		var acc value.Value = value.NewInt(0)
		if len(args) > 1 {
			acc = args[1]
		}
		for _, it := range items {
			acc, err = numericBinOp("+", acc, it)
			if err != nil {
				return nil, err
			}
		}
		return acc, nil
	})

	reg("any", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		items, err := e.iterableToSlice(args[0])
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			ok, err := e.truthy(it)
			if err != nil {
				return nil, err
			}
			if ok {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})

	reg("all", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		items, err := e.iterableToSlice(args[0])
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			ok, err := e.truthy(it)
			if err != nil {
				return nil, err
			}
			if !ok {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	})

	reg("chr", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		n, ok := asIntValue(args[0])
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "an integer is required")
		}
		return value.Str(string(rune(n.V.Int64()))), nil
	})

	reg("ord", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		s, ok := args[0].(value.Str)
		if !ok || len([]rune(string(s))) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "ord() expected a character")
		}
		r := []rune(string(s))[0]
		return value.NewInt(int64(r)), nil
	})

	reg("type", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "type() takes exactly one argument")
		}
		if inst, ok := args[0].(value.Instance); ok {
			return inst.Class, nil
		}
		return value.Str(value.TypeName(args[0])), nil
	})

	reg("isinstance", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "isinstance() takes exactly two arguments")
		}
		return value.Bool(isInstanceOf(args[0], args[1])), nil
	})

	reg("issubclass", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "issubclass() takes exactly two arguments")
		}
		cls, ok := args[0].(*value.Class)
		want, ok2 := args[1].(*value.Class)
		if !ok || !ok2 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "issubclass() arguments must be classes")
		}
		return value.Bool(classMatches(cls, want)), nil
	})

	reg("callable", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		switch args[0].(type) {
		case value.Function, value.BoundMethod, value.Builtin, *value.Class:
			return value.Bool(true), nil
		default:
			return value.Bool(false), nil
		}
	})

	reg("hasattr", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		attr, ok := args[1].(value.Str)
		if !ok {
			return value.Bool(false), nil
		}
		_, err := e.getAttr(args[0], string(attr))
		return value.Bool(err == nil), nil
	})

	reg("getattr", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		attr, ok := args[1].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "getattr(): attribute name must be a string")
		}
		v, err := e.getAttr(args[0], string(attr))
		if err != nil {
			if len(args) > 2 {
				return args[2], nil
			}
			return nil, err
		}
		return v, nil
	})

	reg("setattr", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		attr, ok := args[1].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "setattr(): attribute name must be a string")
		}
		if err := setAttr(args[0], string(attr), args[2]); err != nil {
			return nil, err
		}
		return value.None, nil
	})

	reg("id", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		return value.NewInt(identityHash(args[0])), nil
	})

	reg("hash", func(args []value.Value, kwargs map[string]value.Value) (result value.Value, err error) {
		defer func() {
			if r := recover(); r != nil {
				result, err = nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "unhashable type: '"+value.TypeName(args[0])+"'")
			}
		}()
		return value.NewInt(identityHash(args[0])), nil
	})

	reg("open", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if !e.Ctx.Capabilities.FilesystemEnabled {
			return nil, perrors.New(perrors.KindPermission, perrors.PermissionError, "filesystem capability is disabled")
		}
		path, ok := args[0].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "open() path must be a string")
		}
		mode := "r"
		if len(args) > 1 {
			if m, ok := args[1].(value.Str); ok {
				mode = string(m)
			}
		}
		if e.FS != nil && strings.Contains(mode, "r") && !strings.ContainsAny(mode, "wa") {
			if !e.FS.Exists(string(path)) {
				return nil, perrors.Wrap(perrors.KindIO, perrors.FileNotFoundError, "No such file or directory: "+value.Repr(path), fsbackend.ErrNotFound)
			}
		}
		id := e.Ctx.AllocFile(string(path), mode)
		return value.FileHandle{ID: id, Path: string(path), Mode: mode}, nil
	})

	reg("iter", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		items, err := e.iterableToSlice(args[0])
		if err != nil {
			return nil, err
		}
		id := e.Ctx.AllocIterator(&listIterator{items: items})
		return value.IteratorToken{ID: id}, nil
	})

	reg("next", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		tok, ok := args[0].(value.IteratorToken)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "next() argument must be an iterator")
		}
		it, ok := e.Ctx.Iterators[tok.ID].(*listIterator)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "invalid iterator")
		}
		if it.pos >= len(it.items) {
			if len(args) > 1 {
				return args[1], nil
			}
			return nil, perrors.New(perrors.KindRuntime, perrors.StopIteration, "")
		}
		v := it.items[it.pos]
		it.pos++
		return v, nil
	})

	reg("input", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) > 0 && e.Ctx.Stdout != nil {
			fmt.Fprint(e.Ctx.Stdout, value.ToStr(args[0]))
		}
		if e.Ctx.Stdin == nil {
			return value.Str(""), nil
		}
		var line string
		fmt.Fscanln(e.Ctx.Stdin, &line)
		return value.Str(line), nil
	})

	reg("format", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) == 0 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "format() takes at least one argument")
		}
		spec := ""
		if len(args) > 1 {
			s, ok := args[1].(value.Str)
			if !ok {
				return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "format() spec must be a str")
			}
			spec = string(s)
		}
		text, err := formatValue(args[0], spec)
		if err != nil {
			return nil, err
		}
		return value.Str(text), nil
	})

	for name, cls := range newBuiltinExceptionClasses() {
		b[name] = cls
	}

	return b
}

// listIterator is the state backing iter()/next() over a materialised
// item list, registered in the context's iterator table so next() can
// find it by ID.
type listIterator struct {
	items []value.Value
	pos   int
}

// identityHash derives a stable integer from v's canonical key form, used
// to back id()/hash() without exposing real Go pointer addresses (which
// would make replay output machine-dependent).
func identityHash(v value.Value) int64 {
	k := value.Key(v)
	var h int64 = 14695981039346656037 % (1 << 62)
	for _, c := range k {
		h = (h*1099511628211 + int64(c)) % (1 << 62)
	}
	return h
}

func lengthOf(v value.Value) (int, error) {
	switch x := v.(type) {
	case value.Str:
		return len([]rune(string(x))), nil
	case value.List:
		return len(x.Get()), nil
	case value.Tuple:
		return len(x.Items), nil
	case value.Dict:
		return x.Len(), nil
	case value.Set:
		return x.Len(), nil
	case value.Range:
		return int(x.Len()), nil
	default:
		return 0, perrors.New(perrors.KindRuntime, perrors.TypeError, "object of type '"+value.TypeName(v)+"' has no len()")
	}
}

func isInstanceOf(v, typ value.Value) bool {
	typeName := value.TypeName(v)
	switch t := typ.(type) {
	case *value.Class:
		inst, ok := v.(value.Instance)
		return ok && classMatches(inst.Class, t)
	case value.Str:
		return typeName == string(t)
	case value.Tuple:
		for _, opt := range t.Items {
			if isInstanceOf(v, opt) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func extremum(e *Eval, args []value.Value, kwargs map[string]value.Value, wantMin bool) (value.Value, error) {
	var items []value.Value
	if len(args) == 1 {
		var err error
		items, err = e.iterableToSlice(args[0])
		if err != nil {
			return nil, err
		}
	} else {
		items = args
	}
	if len(items) == 0 {
		return nil, perrors.New(perrors.KindRuntime, perrors.ValueError, "arg is an empty sequence")
	}
	keyFn, hasKey := kwargs["key"]
	keyOf := func(v value.Value) (value.Value, error) {
		if !hasKey {
			return v, nil
		}
		return e.callValue(keyFn, []value.Value{v}, nil, e.Global)
	}
	best := items[0]
	bestKey, err := keyOf(best)
	if err != nil {
		return nil, err
	}
	for _, it := range items[1:] {
		k, err := keyOf(it)
		if err != nil {
			return nil, err
		}
		var replace bool
		if wantMin {
			replace, err = e.compare("<", k, bestKey)
		} else {
			replace, err = e.compare(">", k, bestKey)
		}
		if err != nil {
			return nil, err
		}
		if replace {
			best, bestKey = it, k
		}
	}
	return best, nil
}

func mathPow10(n int) float64 {
	r := 1.0
	if n >= 0 {
		for i := 0; i < n; i++ {
			r *= 10
		}
		return r
	}
	for i := 0; i < -n; i++ {
		r *= 10
	}
	return 1 / r
}

// roundHalfEven implements Python 3's banker's rounding.
func roundHalfEven(f float64) float64 {
	floor := float64(int64(f))
	if f < 0 && floor != f {
		floor -= 1
	}
	diff := f - floor
	switch {
	case diff < 0.5:
		return floor
	case diff > 0.5:
		return floor + 1
	default:
		if int64(floor)%2 == 0 {
			return floor
		}
		return floor + 1
	}
}
