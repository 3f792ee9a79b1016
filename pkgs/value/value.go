// Package value defines the runtime value representation of the
// interpreter: a tagged-sum Value covering every Python runtime type the
// evaluator needs. Modeled on a prior pkgs/plan value model (a small closed
// set of Go types carried through `interface{}` with type-switch dispatch)
// but generalised to Python's object model, with math/big standing in for
// CPython's arbitrary-precision int — the one ambient concern of this repo
// for which no viable third-party library exists anywhere in the retrieved
// example pack or broader ecosystem, so the standard library is used here.
package value

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
)

// Value is the interpreter's universal runtime value. It has no methods of
// its own; behaviour lives in the dispatch and evaluator packages, which
// type-switch on the concrete types below — mirroring a prior own
// preference for free functions over value-carrying interfaces.
type Value interface{}

// Int is a Python int: arbitrary precision, backed by math/big.
type Int struct{ V *big.Int }

func NewInt(i int64) Int       { return Int{big.NewInt(i)} }
func NewIntFromBig(b *big.Int) Int { return Int{b} }

func (i Int) String() string { return i.V.String() }

// Float is a Python float (IEEE-754 double).
type Float float64

// Bool is a Python bool. Kept distinct from Int so truthiness and
// isinstance checks can tell bools from ints despite Python's `bool`
// being an `int` subclass at the value-representation level; the
// evaluator's numeric tower promotes Bool to Int/Float as needed.
type Bool bool

// NoneType is the singleton type of Python's None.
type NoneType struct{}

// None is the single None value.
var None = NoneType{}

// Str is a Python str.
type Str string

// List is a Python list: a mutable, ordered, resizable sequence. Lists are
// reference types — evaluator code must copy the Items slice explicitly
// when value semantics (e.g. slicing) are required.
type List struct{ Items *[]Value }

func NewList(items []Value) List {
	if items == nil {
		items = []Value{}
	}
	return List{Items: &items}
}

func (l List) Get() []Value  { return *l.Items }
func (l List) Set(i []Value) { *l.Items = i }

// Tuple is a Python tuple: an immutable, ordered sequence.
type Tuple struct{ Items []Value }

// Dict is a Python dict: insertion-order preserving, reference-typed.
type Dict struct {
	keys   *[]Value
	values *map[string]Value // keyed by a canonical string form of the key, see Key()
	raw    *map[string]Value // parallel map: canonical key -> the actual Value key object
}

func NewDict() Dict {
	keys := []Value{}
	values := map[string]Value{}
	raw := map[string]Value{}
	return Dict{keys: &keys, values: &values, raw: &raw}
}

// Key produces a canonical, hashable string form of v for use as a dict or
// set member key. Mirrors CPython's requirement that dict/set keys be
// hashable; unhashable values (list, dict, set) panic with an
// *UnhashableError the caller should translate into a Python TypeError.
func Key(v Value) string {
	switch x := v.(type) {
	case Int:
		return "i:" + x.V.String()
	case Float:
		return fmt.Sprintf("f:%v", float64(x))
	case Bool:
		if bool(x) {
			return "b:true"
		}
		return "b:false"
	case Str:
		return "s:" + string(x)
	case NoneType:
		return "n"
	case Tuple:
		parts := make([]string, len(x.Items))
		for i, e := range x.Items {
			parts[i] = Key(e)
		}
		return "t:(" + strings.Join(parts, ",") + ")"
	default:
		panic(&UnhashableError{Value: v})
	}
}

// UnhashableError is raised when Key is asked to hash a mutable, unhashable
// value; the evaluator recovers it and converts it to a Python TypeError.
type UnhashableError struct{ Value Value }

func (e *UnhashableError) Error() string { return "unhashable type" }

func (d Dict) Get(key Value) (Value, bool) {
	v, ok := (*d.values)[Key(key)]
	return v, ok
}

func (d Dict) Set(key, val Value) {
	k := Key(key)
	if _, exists := (*d.values)[k]; !exists {
		*d.keys = append(*d.keys, key)
	}
	(*d.values)[k] = val
	(*d.raw)[k] = key
}

func (d Dict) Delete(key Value) bool {
	k := Key(key)
	if _, ok := (*d.values)[k]; !ok {
		return false
	}
	delete(*d.values, k)
	delete(*d.raw, k)
	for i, kk := range *d.keys {
		if Key(kk) == k {
			*d.keys = append((*d.keys)[:i], (*d.keys)[i+1:]...)
			break
		}
	}
	return true
}

func (d Dict) Keys() []Value { return append([]Value{}, (*d.keys)...) }

func (d Dict) Len() int { return len(*d.keys) }

func (d Dict) Clone() Dict {
	nd := NewDict()
	for _, k := range d.Keys() {
		v, _ := d.Get(k)
		nd.Set(k, v)
	}
	return nd
}

// Set is a Python set: an unordered collection of unique, hashable values.
// Iteration order is canonical-key sorted for replay determinism, since
// Go's map iteration order is randomised and a replay run must produce
// byte-identical output to the live run it replays.
type Set struct {
	items *map[string]Value
}

func NewSet() Set {
	m := map[string]Value{}
	return Set{items: &m}
}

func (s Set) Add(v Value)      { (*s.items)[Key(v)] = v }
func (s Set) Delete(v Value)   { delete(*s.items, Key(v)) }
func (s Set) Has(v Value) bool { _, ok := (*s.items)[Key(v)]; return ok }
func (s Set) Len() int         { return len(*s.items) }

func (s Set) Items() []Value {
	keys := make([]string, 0, len(*s.items))
	for k := range *s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Value, 0, len(keys))
	for _, k := range keys {
		out = append(out, (*s.items)[k])
	}
	return out
}

// Range is a Python range object: lazy, supports len/indexing/iteration
// without materialising.
type Range struct{ Start, Stop, Step int64 }

func (r Range) Len() int64 {
	if r.Step > 0 {
		if r.Stop <= r.Start {
			return 0
		}
		return (r.Stop - r.Start + r.Step - 1) / r.Step
	}
	if r.Step < 0 {
		if r.Stop >= r.Start {
			return 0
		}
		return (r.Start - r.Stop - r.Step - 1) / (-r.Step)
	}
	return 0
}

// Function is a user-defined function or closure.
type Function struct {
	Name       string
	Params     []Param
	Body       interface{} // []ast.Stmt, typed loosely here to avoid an import cycle with pkgs/ast
	Captured   map[string]Value
	IsGenerator bool
	Decorators []Value
	OwnerClass *Class // set when the function is stored as a class method, used to resolve super()
}

type Param struct {
	Name     string
	Default  Value // nil if none; a def statement evaluates its defaults at def time, a lambda's defaults are not evaluated and stay nil
	IsStar   bool
	IsDouble bool
}

// BoundMethod is a Function bound to an instance (the implicit `self`
// argument).
type BoundMethod struct {
	Self Value
	Fn   Function
}

// Builtin is a built-in callable, modeled on dispatch
// registry: a single native-Go signature taking positional and keyword
// arguments, which covers the 0/1/n-arg builtins the stdlib shims need,
// so the evaluator's call path need not type-switch on the callable.
type Builtin struct {
	Name string
	Fn   func(args []Value, kwargs map[string]Value) (Value, error)
}

// Class is a user-defined class: name, base classes, method table, and a
// precomputed C3-linearised MRO .
type Class struct {
	Name    string
	Bases   []*Class
	Dict    map[string]Value // methods and class attributes
	MRO     []*Class

	// IsException marks a built-in exception class (pkgs/evaluator's
	// exception_classes.go). A user class inherits it transitively through
	// MRO rather than setting it directly.
	IsException bool
}

// Instance is an instance of a user-defined Class.
type Instance struct {
	Class *Class
	Dict  *map[string]Value
}

func NewInstance(c *Class) Instance {
	d := map[string]Value{}
	return Instance{Class: c, Dict: &d}
}

// Module is an imported stdlib module namespace: a flat table of functions
// and constants, looked up both by attribute access (`math.sqrt`) and by
// `from ... import name`.
type Module struct {
	Name    string
	Members map[string]Value
}

func NewModule(name string) Module { return Module{Name: name, Members: map[string]Value{}} }

func (m Module) Get(name string) (Value, bool) { v, ok := m.Members[name]; return v, ok }
func (m Module) Set(name string, v Value)      { m.Members[name] = v }

// Super is the proxy object returned by `super()`, used to resolve method
// lookups starting after Of in Of's MRO.
type Super struct {
	Of       *Class
	Instance Value
}

// FileHandle is an open file capability handle (the filesystem
// capability model).
type FileHandle struct {
	ID     int
	Path   string
	Mode   string
	Closed bool
}

// IteratorToken references a live iterator registered in the execution
// context's iterator registry, keyed by ID so next() can look up its
// state.
type IteratorToken struct {
	ID int
}

// Generator is a generator-function invocation, always held as a fully
// materialised item list; no suspended continuation is kept.
type Generator struct {
	ID        int
	Done      bool
	Materialized []Value // used when already fully consumed/accumulated
}

// TypeName returns the Python type name of v, used for error messages,
// isinstance(), and type().
func TypeName(v Value) string {
	switch x := v.(type) {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case NoneType:
		return "NoneType"
	case Str:
		return "str"
	case List:
		return "list"
	case Tuple:
		return "tuple"
	case Dict:
		return "dict"
	case Set:
		return "set"
	case Range:
		return "range"
	case Function:
		return "function"
	case BoundMethod:
		return "method"
	case Builtin:
		return "builtin_function_or_method"
	case *Class:
		return "type"
	case Instance:
		return x.Class.Name
	case Super:
		return "super"
	case FileHandle:
		return "file"
	case IteratorToken:
		return "iterator"
	case Generator:
		return "generator"
	case Module:
		return "module"
	case perrors.PyError:
		return x.Class
	case *perrors.PyError:
		return x.Class
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Truthy implements Python's truthiness protocol : None,
// False, zero numbers, and empty containers are falsy.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case NoneType:
		return false
	case Bool:
		return bool(x)
	case Int:
		return x.V.Sign() != 0
	case Float:
		return x != 0
	case Str:
		return len(x) > 0
	case List:
		return len(x.Get()) > 0
	case Tuple:
		return len(x.Items) > 0
	case Dict:
		return x.Len() > 0
	case Set:
		return x.Len() > 0
	case Range:
		return x.Len() > 0
	default:
		return true
	}
}

// Repr produces the Python repr() text of v.
func Repr(v Value) string {
	switch x := v.(type) {
	case NoneType:
		return "None"
	case Bool:
		if bool(x) {
			return "True"
		}
		return "False"
	case Int:
		return x.V.String()
	case Float:
		return formatFloat(float64(x))
	case Str:
		return "'" + strings.ReplaceAll(string(x), "'", "\\'") + "'"
	case List:
		parts := make([]string, 0, len(x.Get()))
		for _, e := range x.Get() {
			parts = append(parts, Repr(e))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Tuple:
		parts := make([]string, 0, len(x.Items))
		for _, e := range x.Items {
			parts = append(parts, Repr(e))
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case Dict:
		parts := make([]string, 0, x.Len())
		for _, k := range x.Keys() {
			vv, _ := x.Get(k)
			parts = append(parts, Repr(k)+": "+Repr(vv))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case Set:
		if x.Len() == 0 {
			return "set()"
		}
		parts := make([]string, 0, x.Len())
		for _, e := range x.Items() {
			parts = append(parts, Repr(e))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case Range:
		if x.Step == 1 {
			return fmt.Sprintf("range(%d, %d)", x.Start, x.Stop)
		}
		return fmt.Sprintf("range(%d, %d, %d)", x.Start, x.Stop, x.Step)
	case Function:
		return fmt.Sprintf("<function %s>", x.Name)
	case *Class:
		return fmt.Sprintf("<class '%s'>", x.Name)
	case Instance:
		if x.Class.instanceIsException() {
			return fmt.Sprintf("%s(%s)", x.Class.Name, strings.Join(exceptionArgReprs(x), ", "))
		}
		return fmt.Sprintf("<%s object>", x.Class.Name)
	case Module:
		return fmt.Sprintf("<module '%s'>", x.Name)
	case perrors.PyError:
		return fmt.Sprintf("%s('%s')", x.Class, x.Message)
	case *perrors.PyError:
		return fmt.Sprintf("%s('%s')", x.Class, x.Message)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// instanceIsException reports whether c or an ancestor in its MRO is a
// built-in exception class.
func (c *Class) instanceIsException() bool {
	for _, a := range c.MRO {
		if a.IsException {
			return true
		}
	}
	return c.IsException
}

// exceptionArgReprs reads the positional constructor arguments BaseException
// stashes on self.args, for use by ToStr/Repr.
func exceptionArgReprs(x Instance) []string {
	if x.Dict == nil {
		return nil
	}
	t, ok := (*x.Dict)["args"].(Tuple)
	if !ok {
		return nil
	}
	parts := make([]string, len(t.Items))
	for i, a := range t.Items {
		parts[i] = Repr(a)
	}
	return parts
}

// ToStr produces the Python str() text of v, which for str itself is the raw
// text (no quoting), for an exception instance is its message (empty if
// none, the lone arg if one, else the repr of its args tuple), and
// otherwise falls back to Repr.
func ToStr(v Value) string {
	if s, ok := v.(Str); ok {
		return string(s)
	}
	if inst, ok := v.(Instance); ok && inst.Class.instanceIsException() {
		args := exceptionArgsRaw(inst)
		switch len(args) {
		case 0:
			return ""
		case 1:
			return ToStr(args[0])
		default:
			return "(" + strings.Join(exceptionArgReprs(inst), ", ") + ")"
		}
	}
	if pe, ok := v.(perrors.PyError); ok {
		return pe.Message
	}
	if pe, ok := v.(*perrors.PyError); ok {
		return pe.Message
	}
	return Repr(v)
}

func exceptionArgsRaw(x Instance) []Value {
	if x.Dict == nil {
		return nil
	}
	t, ok := (*x.Dict)["args"].(Tuple)
	if !ok {
		return nil
	}
	return t.Items
}

func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "inf") && !strings.Contains(s, "nan") {
		s += ".0"
	}
	return s
}
