package evaluator

import (
	"github.com/ivarvong/pyex-sub003/pkgs/modules"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// loadModule resolves an import statement's module name against the
// standard-library registry, bound to this run's execution context so
// random/time modules can honour the context's deterministic seed/frozen
// clock for replay fidelity.
func (e *Eval) loadModule(name string) (value.Value, error) {
	return modules.Load(name, e.Ctx)
}
