// Package evaluator implements the tree-walking evaluator at the heart of
// the interpreter: statement and expression dispatch, control flow,
// function/class semantics, exceptions, and generators, grounded on the
// teacher's runtime/execution/evaluator.go (a large statement/expression
// type-switch driven by an embedded execution context that is cloned and
// threaded through each step) but generalised from shell-command-chain
// evaluation to full Python statement/expression semantics.
package evaluator

import (
	"github.com/ivarvong/pyex-sub003/pkgs/ast"
	"github.com/ivarvong/pyex-sub003/pkgs/dispatch"
	"github.com/ivarvong/pyex-sub003/pkgs/environment"
	"github.com/ivarvong/pyex-sub003/pkgs/invariant"
	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// signalKind distinguishes ordinary fall-through statement execution from
// a non-local control transfer (return/break/continue/an in-flight
// exception), mirroring a prior CommandResult-as-control-signal
// idiom generalised to Python's control-flow vocabulary.
type signalKind int

const (
	sigNone signalKind = iota
	sigReturn
	sigBreak
	sigContinue
	sigRaise
	sigYield
	sigSuspend
)

// signal carries a non-local control transfer up the statement-execution
// call stack.
type signal struct {
	kind  signalKind
	value value.Value      // return value, or the yielded value
	exc   *perrors.PyError // in-flight exception for sigRaise
}

// Eval is the bound evaluator for one program run: it carries the module
// namespace's captured classes for method-resolution purposes and a
// reference to the execution context's capability configuration. Grounded
// on a prior pattern of a long-lived evaluator struct wrapping
// stateless dispatch functions (runtime/execution/evaluator.go's Evaluator
// type).
type Eval struct {
	Ctx *pycontext.Context

	// Global is the program's live module namespace, kept in sync with
	// the top-level environment as RunModule executes. Function calls
	// build their closure environment on top of this rather than a
	// fresh empty namespace, so a function can see globals defined
	// anywhere in the module (not only those visible at its own def
	// site) and `global`-declared writes made inside a call are
	// published back here once the call returns.
	Global environment.Environment

	// FS backs the open() builtin's filesystem capability; nil disables
	// the pre-existence check open() performs for read modes (AllocFile
	// still records the handle either way, so a nil FS behaves like an
	// in-memory filesystem that always has the requested path).
	FS fsBackend

	// builtins is the free-function builtin table, built lazily on first
	// lookup since it closes over this Eval.
	builtins map[string]value.Value
}

// fsBackend is the subset of fsbackend.Backend the evaluator calls
// directly, declared locally to avoid an import cycle risk between
// evaluator and fsbackend (fsbackend has no reason to import evaluator,
// but keeping the dependency one-directional via a local interface keeps
// the two packages decoupled).
type fsBackend interface {
	Exists(path string) bool
}

// New creates an Eval bound to ctx.
func New(ctx *pycontext.Context) *Eval {
	e := &Eval{Ctx: ctx, Global: environment.New()}
	dispatch.CallKeyFunc = func(fn, arg value.Value) (value.Value, error) {
		return e.callValue(fn, []value.Value{arg}, nil, e.Global)
	}
	return e
}

// RunModule executes every top-level statement of m in env in order,
// returning the final environment. A top-level exception aborts execution
// and is returned as an error.
func (e *Eval) RunModule(m *ast.Module, env environment.Environment) (environment.Environment, error) {
	e.Global = env
	var sig signal
	for _, stmt := range m.Stmts {
		env, sig = e.execStmt(stmt, env)
		e.Global = env
		if sig.kind == sigRaise {
			return env, sig.exc
		}
		if sig.kind == sigSuspend {
			return env, errSuspended
		}
		if e.Ctx.Budget.Exceeded() {
			return env, perrors.New(perrors.KindTimeout, perrors.TimeoutError, "compute budget exceeded")
		}
	}
	return env, nil
}

// execBlock executes a list of statements in sequence, short-circuiting on
// the first non-sigNone signal.
func (e *Eval) execBlock(stmts []ast.Stmt, env environment.Environment) (environment.Environment, signal) {
	for _, s := range stmts {
		var sig signal
		env, sig = e.execStmt(s, env)
		if sig.kind != sigNone {
			return env, sig
		}
		if e.Ctx.Budget.Exceeded() {
			return env, signal{kind: sigRaise, exc: perrors.New(perrors.KindTimeout, perrors.TimeoutError, "compute budget exceeded").(*perrors.PyError)}
		}
	}
	return env, signal{}
}

func (e *Eval) execStmt(s ast.Stmt, env environment.Environment) (environment.Environment, signal) {
	e.Ctx.Budget.Tick()
	switch n := s.(type) {
	case *ast.ExprStmt:
		_, env, err := e.evalExpr(n.X, env)
		if err != nil {
			return env, raiseSignal(err)
		}
		return env, signal{}

	case *ast.Assign:
		return e.execAssign(n, env)

	case *ast.MultiAssign:
		return e.execMultiAssign(n, env)

	case *ast.AugAssign:
		return e.execAugAssign(n, env)

	case *ast.AnnotatedAssign:
		if n.Value == nil {
			return env, signal{}
		}
		v, env2, err := e.evalExpr(n.Value, env)
		if err != nil {
			return env2, raiseSignal(err)
		}
		env3, err := e.assignTo(n.Target, v, env2)
		if err != nil {
			return env3, raiseSignal(err)
		}
		return env3, signal{}

	case *ast.Def:
		params := convertParams(n.Params)
		for i, p := range n.Params {
			if p.Default == nil {
				continue
			}
			dv, envD, err := e.evalExpr(p.Default, env)
			if err != nil {
				return envD, raiseSignal(err)
			}
			env = envD
			params[i].Default = dv
		}
		fn := value.Function{
			Name:        n.Name,
			Params:      params,
			Body:        n.Body,
			Captured:    env.Snapshot(),
			IsGenerator: n.IsGenerator,
		}
		var fnVal value.Value = fn
		var env2 environment.Environment = env
		for i := len(n.Decorators) - 1; i >= 0; i-- {
			var dec value.Value
			var err error
			dec, env2, err = e.evalExpr(n.Decorators[i], env2)
			if err != nil {
				return env2, raiseSignal(err)
			}
			fnVal, err = e.callValue(dec, []value.Value{fnVal}, nil, env2)
			if err != nil {
				return env2, raiseSignal(err)
			}
		}
		return env2.Put(n.Name, fnVal), signal{}

	case *ast.ClassDef:
		return e.execClassDef(n, env)

	case *ast.If:
		for _, clause := range n.Clauses {
			cond, env2, err := e.evalExpr(clause.Cond, env)
			if err != nil {
				return env2, raiseSignal(err)
			}
			env = env2
			ok, err := e.truthy(cond)
			if err != nil {
				return env, raiseSignal(err)
			}
			if ok {
				return e.execBlock(clause.Body, env)
			}
		}
		return e.execBlock(n.Else, env)

	case *ast.While:
		return e.execWhile(n, env)

	case *ast.For:
		return e.execFor(n, env)

	case *ast.Try:
		return e.execTry(n, env)

	case *ast.Raise:
		return e.execRaise(n, env)

	case *ast.Return:
		if n.Value == nil {
			return env, signal{kind: sigReturn, value: value.None}
		}
		v, env2, err := e.evalExpr(n.Value, env)
		if err != nil {
			return env2, raiseSignal(err)
		}
		return env2, signal{kind: sigReturn, value: v}

	case *ast.Import:
		return e.execImport(n, env)

	case *ast.FromImport:
		return e.execFromImport(n, env)

	case *ast.With:
		return e.execWith(n, env)

	case *ast.Match:
		return e.execMatch(n, env)

	case *ast.Del:
		return e.execDel(n, env)

	case *ast.Assert:
		cond, env2, err := e.evalExpr(n.Cond, env)
		if err != nil {
			return env2, raiseSignal(err)
		}
		env = env2
		assertOK, err := e.truthy(cond)
		if err != nil {
			return env, raiseSignal(err)
		}
		if !assertOK {
			msg := ""
			if n.Msg != nil {
				var mv value.Value
				mv, env, err = e.evalExpr(n.Msg, env)
				if err != nil {
					return env, raiseSignal(err)
				}
				msg = value.ToStr(mv)
			}
			return env, raiseSignal(perrors.New(perrors.KindRuntime, perrors.AssertionError, msg))
		}
		return env, signal{}

	case *ast.Global:
		for _, name := range n.Names {
			env = env.DeclareGlobal(name)
		}
		return env, signal{}

	case *ast.Nonlocal:
		for _, name := range n.Names {
			env = env.DeclareNonlocal(name)
		}
		return env, signal{}

	case *ast.Pass:
		return env, signal{}

	case *ast.Break:
		return env, signal{kind: sigBreak}

	case *ast.Continue:
		return env, signal{kind: sigContinue}

	case *ast.Yield:
		v := value.Value(value.None)
		var err error
		if n.Value != nil {
			v, env, err = e.evalExpr(n.Value, env)
			if err != nil {
				return env, raiseSignal(err)
			}
		}
		return env, signal{kind: sigYield, value: v}

	default:
		invariant.Invariant(false, "unhandled statement type")
		return env, signal{}
	}
}

func raiseSignal(err error) signal {
	if isSuspended(err) {
		return signal{kind: sigSuspend}
	}
	pe, ok := err.(*perrors.PyError)
	if !ok {
		pe = perrors.Wrap(perrors.KindRuntime, perrors.TypeError, err.Error(), err)
	}
	return signal{kind: sigRaise, exc: pe}
}

func convertParams(params []ast.Param) []value.Param {
	out := make([]value.Param, len(params))
	for i, p := range params {
		out[i] = value.Param{Name: p.Name, IsStar: p.IsStar, IsDouble: p.IsDouble}
	}
	return out
}

func (e *Eval) execWhile(n *ast.While, env environment.Environment) (environment.Environment, signal) {
	for {
		cond, env2, err := e.evalExpr(n.Cond, env)
		if err != nil {
			return env2, raiseSignal(err)
		}
		env = env2
		ok, err := e.truthy(cond)
		if err != nil {
			return env, raiseSignal(err)
		}
		if !ok {
			env, sig := e.execBlock(n.Else, env)
			return env, dropLoopSignal(sig)
		}
		var sig signal
		env, sig = e.execBlock(n.Body, env)
		switch sig.kind {
		case sigBreak:
			return env, signal{}
		case sigContinue, sigNone:
			// fall through to re-check condition
		default:
			return env, sig
		}
		if e.Ctx.Budget.Exceeded() {
			return env, raiseSignal(perrors.New(perrors.KindTimeout, perrors.TimeoutError, "compute budget exceeded"))
		}
	}
}

func dropLoopSignal(sig signal) signal {
	if sig.kind == sigBreak || sig.kind == sigContinue {
		return signal{}
	}
	return sig
}
