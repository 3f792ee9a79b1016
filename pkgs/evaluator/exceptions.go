package evaluator

import (
	"github.com/ivarvong/pyex-sub003/pkgs/ast"
	"github.com/ivarvong/pyex-sub003/pkgs/environment"
	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func (e *Eval) execTry(n *ast.Try, env environment.Environment) (environment.Environment, signal) {
	env2, sig := e.execBlock(n.Body, env)
	env = env2
	if sig.kind == sigRaise {
		e.Ctx.LastException = sig.exc
		for _, h := range n.Handlers {
			if !exceptionMatches(h.Type, sig.exc, env, e) {
				continue
			}
			handlerEnv := env
			if h.As != "" {
				handlerEnv = handlerEnv.Put(h.As, *sig.exc)
			}
			env3, hsig := e.execBlock(h.Body, handlerEnv)
			return e.finally(n.Finally, env3, hsig)
		}
		return e.finally(n.Finally, env, sig)
	}
	if sig.kind == sigNone {
		env4, esig := e.execBlock(n.Else, env)
		return e.finally(n.Finally, env4, esig)
	}
	return e.finally(n.Finally, env, sig)
}

func (e *Eval) finally(stmts []ast.Stmt, env environment.Environment, sig signal) (environment.Environment, signal) {
	if len(stmts) == 0 {
		return env, sig
	}
	env2, fsig := e.execBlock(stmts, env)
	if fsig.kind != sigNone {
		return env2, fsig
	}
	return env2, sig
}

// exceptionMatches implements the except-clause matching rule:
// a bare except matches anything; otherwise the raised exception's class
// name (or any ancestor in its user-defined MRO) must equal the evaluated
// except-type expression's name.
func exceptionMatches(typeExpr ast.Expr, exc *perrors.PyError, env environment.Environment, e *Eval) bool {
	if typeExpr == nil {
		return true
	}
	if tup, ok := typeExpr.(*ast.TupleExpr); ok {
		for _, t := range tup.Elems {
			if exceptionMatches(t, exc, env, e) {
				return true
			}
		}
		return false
	}
	v, _, err := e.evalExpr(typeExpr, env)
	if err != nil {
		return false
	}
	switch t := v.(type) {
	case *value.Class:
		if exc.Class == t.Name {
			return true
		}
		var raised interface{}
		if v, ok := env.Get(exc.Class); ok {
			raised = v
		} else if v, ok := e.lookupBuiltin(exc.Class); ok {
			raised = v
		}
		if rc, ok := raised.(*value.Class); ok {
			for _, c := range rc.MRO {
				if c.Name == t.Name {
					return true
				}
			}
		}
		return exc.Matches(t.Name)
	case value.Str:
		return exc.Matches(string(t))
	default:
		return false
	}
}

func (e *Eval) execRaise(n *ast.Raise, env environment.Environment) (environment.Environment, signal) {
	if n.Exc == nil {
		if e.Ctx.LastException != nil {
			return env, signal{kind: sigRaise, exc: e.Ctx.LastException}
		}
		return env, raiseSignal(perrors.New(perrors.KindRuntime, perrors.TypeError, "no active exception to re-raise"))
	}
	v, env2, err := e.evalExpr(n.Exc, env)
	if err != nil {
		return env2, raiseSignal(err)
	}
	env = env2
	switch x := v.(type) {
	case value.Instance:
		msg := ""
		if mv, ok := (*x.Dict)["args"]; ok {
			if t, ok := mv.(value.Tuple); ok && len(t.Items) > 0 {
				msg = value.ToStr(t.Items[0])
			}
		}
		return env, signal{kind: sigRaise, exc: perrors.NewUserException(x.Class.Name, msg)}
	case *value.Class:
		return env, signal{kind: sigRaise, exc: perrors.NewUserException(x.Name, "")}
	case value.Str:
		return env, signal{kind: sigRaise, exc: perrors.NewUserException("Exception", string(x))}
	default:
		return env, signal{kind: sigRaise, exc: perrors.New(perrors.KindRuntime, perrors.TypeError, "exceptions must derive from BaseException")}
	}
}
