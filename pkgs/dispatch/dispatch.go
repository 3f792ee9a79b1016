// Package dispatch implements method lookup for the interpreter's built-in
// types (str, list, dict, set, tuple); file handles have no methods
// registered here. Modeled on
// pkgs/decorators.Registry: a sync.RWMutex-guarded map-of-maps keyed first
// by receiver type name and then by method name, generalised from
// decorator-name lookup to builtin-method lookup.
package dispatch

import (
	"sync"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// Method is a built-in method implementation: it receives the bound
// receiver, positional args, and keyword args, and returns a value or a
// *perrors.PyError.
type Method func(recv value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, error)

// Registry manages the built-in method tables for every receiver type.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]map[string]Method
}

var global = NewRegistry()

// NewRegistry creates an empty method registry.
func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]map[string]Method)}
}

// Register adds a method for the given receiver type name.
func (r *Registry) Register(typeName, methodName string, m Method) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.methods[typeName] == nil {
		r.methods[typeName] = make(map[string]Method)
	}
	r.methods[typeName][methodName] = m
}

// Lookup retrieves the method for typeName.methodName, if registered.
func (r *Registry) Lookup(typeName, methodName string) (Method, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.methods[typeName]
	if !ok {
		return nil, false
	}
	fn, ok := m[methodName]
	return fn, ok
}

// Names lists every method name registered for typeName, used by dir().
func (r *Registry) Names(typeName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for name := range r.methods[typeName] {
		out = append(out, name)
	}
	return out
}

// Global returns the process-wide method registry populated by init().
func Global() *Registry { return global }

// Call looks up and invokes method on recv in the global registry,
// returning an AttributeError if the receiver type has no such method.
func Call(recv value.Value, method string, args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	typeName := value.TypeName(recv)
	fn, ok := global.Lookup(typeName, method)
	if !ok {
		return nil, perrors.New(perrors.KindRuntime, perrors.AttributeError,
			"'"+typeName+"' object has no attribute '"+method+"'")
	}
	return fn(recv, args, kwargs)
}

// Has reports whether typeName.methodName is a registered builtin method,
// used by the evaluator's attribute-access path to distinguish built-in
// methods from instance/class attribute lookups.
func Has(typeName, methodName string) bool {
	_, ok := global.Lookup(typeName, methodName)
	return ok
}

func init() {
	registerStrMethods(global)
	registerListMethods(global)
	registerDictMethods(global)
	registerSetMethods(global)
	registerTupleMethods(global)
}
