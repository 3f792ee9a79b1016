// Package environment implements the interpreter's lexical scope stack,
// following runtime/execution.ExecutionContext's habit of cloning a
// context struct by value and mutating the clone rather than mutating
// shared state in place. Scopes use the same "copy struct, mutate copy,
// return it" idiom for PushScope/DropTopScope, keeping Environment values
// cheap to thread through the evaluator's (outcome, env', ctx') return
// shape.
package environment

import "github.com/ivarvong/pyex-sub003/pkgs/invariant"

// Scope is a single binding frame: a name -> value map plus the set of
// names declared `global`/`nonlocal` within it.
type Scope struct {
	vars     map[string]interface{}
	globals  map[string]bool
	nonlocal map[string]bool
}

func newScope() *Scope {
	return &Scope{
		vars:     make(map[string]interface{}),
		globals:  make(map[string]bool),
		nonlocal: make(map[string]bool),
	}
}

func (s *Scope) clone() *Scope {
	c := newScope()
	for k, v := range s.vars {
		c.vars[k] = v
	}
	for k := range s.globals {
		c.globals[k] = true
	}
	for k := range s.nonlocal {
		c.nonlocal[k] = true
	}
	return c
}

// Environment is an immutable-by-convention stack of scopes. Index 0 is
// always the module/global scope; the last element is the innermost scope.
// Every mutating method returns a new Environment value rather than
// mutating the receiver in place.
type Environment struct {
	scopes []*Scope
}

// New creates a fresh Environment containing a single global scope, as
// required by the invariant that the bottom scope is always
// the module scope.
func New() Environment {
	return Environment{scopes: []*Scope{newScope()}}
}

func (e Environment) clone() Environment {
	scopes := make([]*Scope, len(e.scopes))
	for i, s := range e.scopes {
		scopes[i] = s.clone()
	}
	return Environment{scopes: scopes}
}

// Depth reports the number of scopes on the stack.
func (e Environment) Depth() int { return len(e.scopes) }

func (e Environment) top() *Scope {
	invariant.Precondition(len(e.scopes) > 0, "environment must always have at least one scope")
	return e.scopes[len(e.scopes)-1]
}

// Get resolves name by walking the scope stack from innermost to the
// global scope, respecting `global`/`nonlocal` redirection markers left by
// DeclareGlobal/DeclareNonlocal in the current scope.
func (e Environment) Get(name string) (interface{}, bool) {
	top := e.top()
	if top.globals[name] {
		return e.getGlobal(name)
	}
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if v, ok := e.scopes[i].vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (e Environment) getGlobal(name string) (interface{}, bool) {
	v, ok := e.scopes[0].vars[name]
	return v, ok
}

// Put binds name in the innermost scope only, the ordinary Python
// assignment behaviour absent a `global`/`nonlocal` declaration.
func (e Environment) Put(name string, value interface{}) Environment {
	ne := e.clone()
	ne.top().vars[name] = value
	return ne
}

// SmartPut implements the assignment rule: if name was declared
// `global` or `nonlocal` in the current scope, write through to that
// target scope instead of shadowing in the innermost scope.
func (e Environment) SmartPut(name string, value interface{}) Environment {
	ne := e.clone()
	top := ne.top()
	switch {
	case top.globals[name]:
		ne.scopes[0].vars[name] = value
	case top.nonlocal[name]:
		for i := len(ne.scopes) - 2; i >= 1; i-- {
			if _, ok := ne.scopes[i].vars[name]; ok {
				ne.scopes[i].vars[name] = value
				return ne
			}
		}
		// No enclosing binding found yet; create one in the immediate
		// enclosing scope, matching CPython's lenient nonlocal creation
		// at first write when the compiler already validated the name.
		if len(ne.scopes) >= 2 {
			ne.scopes[len(ne.scopes)-2].vars[name] = value
		} else {
			top.vars[name] = value
		}
	default:
		top.vars[name] = value
	}
	return ne
}

// PutGlobal writes directly to the module scope, regardless of current
// scope depth.
func (e Environment) PutGlobal(name string, value interface{}) Environment {
	ne := e.clone()
	ne.scopes[0].vars[name] = value
	return ne
}

// PutEnclosing writes to the nearest enclosing (non-global, non-current)
// scope that already binds name, used by closures capturing by reference.
func (e Environment) PutEnclosing(name string, value interface{}) Environment {
	ne := e.clone()
	for i := len(ne.scopes) - 2; i >= 1; i-- {
		if _, ok := ne.scopes[i].vars[name]; ok {
			ne.scopes[i].vars[name] = value
			return ne
		}
	}
	ne.top().vars[name] = value
	return ne
}

// DeclareGlobal marks name as redirecting to the module scope within the
// current scope, per a `global name` statement.
func (e Environment) DeclareGlobal(name string) Environment {
	ne := e.clone()
	ne.top().globals[name] = true
	return ne
}

// DeclareNonlocal marks name as redirecting to the nearest enclosing
// function scope, per a `nonlocal name` statement.
func (e Environment) DeclareNonlocal(name string) Environment {
	ne := e.clone()
	ne.top().nonlocal[name] = true
	return ne
}

// PushScope pushes a new, empty scope (ordinary block scoping is not
// Python's model; this is used for function-call frames and comprehension
// scopes .
func (e Environment) PushScope() Environment {
	ne := e.clone()
	ne.scopes = append(ne.scopes, newScope())
	return ne
}

// PushScopeWith pushes a new scope pre-populated with the given bindings
// (used for function-call argument binding and exception-handler `as`
// targets).
func (e Environment) PushScopeWith(bindings map[string]interface{}) Environment {
	ne := e.clone()
	s := newScope()
	for k, v := range bindings {
		s.vars[k] = v
	}
	ne.scopes = append(ne.scopes, s)
	return ne
}

// DropTopScope pops the innermost scope, returning to the caller's frame.
func (e Environment) DropTopScope() Environment {
	invariant.Precondition(len(e.scopes) > 1, "cannot drop the module scope")
	ne := e.clone()
	ne.scopes = ne.scopes[:len(ne.scopes)-1]
	return ne
}

// PutAtSource writes name at the scope where it is already bound (if any),
// otherwise in the innermost scope — the semantics used for ordinary
// (non-global, non-nonlocal) reassignment of a name introduced by an outer
// comprehension or walrus expression.
func (e Environment) PutAtSource(name string, value interface{}) Environment {
	ne := e.clone()
	for i := len(ne.scopes) - 1; i >= 0; i-- {
		if _, ok := ne.scopes[i].vars[name]; ok {
			ne.scopes[i].vars[name] = value
			return ne
		}
	}
	ne.top().vars[name] = value
	return ne
}

// Snapshot captures the free variables a closure needs at definition time,
// by flattening every currently visible binding into one map, innermost
// scope winning ties. Rather than threading opaque scope-chain pointers
// through captured functions, judged brittle under replay, a closure
// captures an explicit, named snapshot of its free variables.
func (e Environment) Snapshot() map[string]interface{} {
	out := make(map[string]interface{})
	for _, s := range e.scopes {
		for k, v := range s.vars {
			out[k] = v
		}
	}
	return out
}

// MergeClosureScopes rebuilds a call environment for a closure invocation:
// a fresh global-rooted environment whose middle scope is the closure's
// captured free-variable snapshot and whose top scope is the fresh
// call-frame bindings. This keeps closures replay-stable — capture is by
// value at definition time, not by live reference into a scope chain that
// may not exist identically on replay.
func MergeClosureScopes(global Environment, captured map[string]interface{}, frame map[string]interface{}) Environment {
	invariant.Precondition(len(global.scopes) > 0, "global environment must have a module scope")
	globalScope := global.scopes[0].clone()

	closureScope := newScope()
	for k, v := range captured {
		closureScope.vars[k] = v
	}

	frameScope := newScope()
	for k, v := range frame {
		frameScope.vars[k] = v
	}

	return Environment{scopes: []*Scope{globalScope, closureScope, frameScope}}
}

// GlobalBindings returns a copy of the module scope's bindings, used to
// publish a call frame's `global`-declared writes back to the program's
// live module namespace once the call returns.
func (e Environment) GlobalBindings() map[string]interface{} {
	s := e.scopes[0]
	out := make(map[string]interface{}, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// WithGlobalBindings returns e with its module scope's bindings replaced
// by b, preserving every other scope untouched.
func (e Environment) WithGlobalBindings(b map[string]interface{}) Environment {
	ne := e.clone()
	s := newScope()
	for k, v := range b {
		s.vars[k] = v
	}
	ne.scopes[0] = s
	return ne
}

// Names returns every name bound anywhere in the visible scope chain,
// innermost first. Used by dir()-style introspection and debugging.
func (e Environment) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for i := len(e.scopes) - 1; i >= 0; i-- {
		for k := range e.scopes[i].vars {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
