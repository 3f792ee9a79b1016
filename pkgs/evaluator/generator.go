package evaluator

import (
	"github.com/ivarvong/pyex-sub003/pkgs/ast"
	"github.com/ivarvong/pyex-sub003/pkgs/environment"
	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// genItem is one message sent from a generator's driving goroutine to its
// consumer: either a yielded value, or a terminal signal (normal
// completion or an escaped exception).
type genItem struct {
	val  value.Value
	err  *perrors.PyError
	done bool
}

// genChannels is the communication channel between a generator's
// goroutine and whatever is pulling values from it (a for-loop, list(),
// or next()). An unbuffered channel rendezvous stands in for this
// interpreter's suspend/resume boundary: a send blocks until the consumer
// is ready for the next value, at which point the generator's goroutine
// naturally resumes executing until the following yield. This is the
// idiomatic-Go rendering of the continuation-frame model: a real
// OS-scheduled stack plays the role a hand-rolled `cont_stmts` frame
// stack would, without the interpreter hand-rolling it.
type genChannels struct {
	items chan genItem
}

// genEval is a clone of Eval bound to the channel of the generator
// goroutine currently executing; execStmt/evalExpr consult it via the gen
// field to route `yield`/`yield from` into the channel instead of
// treating them as an ordinary control-flow signal.
type genEval struct {
	*Eval
	gen *genChannels
}

func (e *Eval) startGenerator(fn value.Function, callEnv environment.Environment) *genChannels {
	gc := &genChannels{items: make(chan genItem)}
	ge := &genEval{Eval: e, gen: gc}
	go func() {
		stmts, _ := fn.Body.([]ast.Stmt)
		_, sig := ge.execBlockGen(stmts, callEnv)
		switch sig.kind {
		case sigRaise:
			gc.items <- genItem{err: sig.exc, done: true}
		default:
			gc.items <- genItem{done: true}
		}
		close(gc.items)
	}()
	return gc
}

// execBlockGen mirrors execBlock but is invoked from within a generator's
// goroutine, so any *ast.Yield statement it reaches routes through the
// bound genEval rather than evaluator.go's plain Eval.
func (ge *genEval) execBlockGen(stmts []ast.Stmt, env environment.Environment) (environment.Environment, signal) {
	for _, s := range stmts {
		env2, sig := ge.execStmtGen(s, env)
		env = env2
		if sig.kind != sigNone {
			return env, sig
		}
	}
	return env, signal{}
}

// execStmtGen re-dispatches every statement kind that can contain a
// (possibly deeply nested) yield back through the generator-aware path,
// and defers everything else to the ordinary evaluator.
func (ge *genEval) execStmtGen(s ast.Stmt, env environment.Environment) (environment.Environment, signal) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		if y, ok := n.X.(*ast.Yield); ok {
			_, env2, sig := ge.evalYield(y, env)
			return env2, sig
		}
		return ge.Eval.execStmt(s, env)

	case *ast.If:
		for _, clause := range n.Clauses {
			cond, env2, err := ge.Eval.evalExpr(clause.Cond, env)
			if err != nil {
				return env2, raiseSignal(err)
			}
			env = env2
			ok, terr := ge.Eval.truthy(cond)
			if terr != nil {
				return env, raiseSignal(terr)
			}
			if ok {
				return ge.execBlockGen(clause.Body, env)
			}
		}
		return ge.execBlockGen(n.Else, env)

	case *ast.While:
		for {
			cond, env2, err := ge.Eval.evalExpr(n.Cond, env)
			if err != nil {
				return env2, raiseSignal(err)
			}
			env = env2
			ok, terr := ge.Eval.truthy(cond)
			if terr != nil {
				return env, raiseSignal(terr)
			}
			if !ok {
				env3, sig := ge.execBlockGen(n.Else, env)
				return env3, dropLoopSignal(sig)
			}
			env4, sig := ge.execBlockGen(n.Body, env)
			env = env4
			switch sig.kind {
			case sigBreak:
				return env, signal{}
			case sigContinue, sigNone:
			default:
				return env, sig
			}
		}

	case *ast.For:
		iterVal, env2, err := ge.Eval.evalExpr(n.Iter, env)
		if err != nil {
			return env2, raiseSignal(err)
		}
		env = env2
		items, err := ge.Eval.iterableToSlice(iterVal)
		if err != nil {
			return env, raiseSignal(err)
		}
		for _, item := range items {
			var aerr error
			env, aerr = ge.Eval.assignTo(n.Target, item, env)
			if aerr != nil {
				return env, raiseSignal(aerr)
			}
			env3, sig := ge.execBlockGen(n.Body, env)
			env = env3
			switch sig.kind {
			case sigBreak:
				return env, signal{}
			case sigContinue, sigNone:
			default:
				return env, sig
			}
		}
		return ge.execBlockGen(n.Else, env)

	case *ast.Try:
		return ge.execTryGen(n, env)

	default:
		return ge.Eval.execStmt(s, env)
	}
}

func (ge *genEval) execTryGen(n *ast.Try, env environment.Environment) (environment.Environment, signal) {
	env2, sig := ge.execBlockGen(n.Body, env)
	env = env2
	if sig.kind == sigRaise {
		for _, h := range n.Handlers {
			if !exceptionMatches(h.Type, sig.exc, env, ge.Eval) {
				continue
			}
			handlerEnv := env
			if h.As != "" {
				handlerEnv = handlerEnv.Put(h.As, *sig.exc)
			}
			env3, hsig := ge.execBlockGen(h.Body, handlerEnv)
			return ge.finallyGen(n.Finally, env3, hsig)
		}
		return ge.finallyGen(n.Finally, env, sig)
	}
	if sig.kind == sigNone {
		env4, esig := ge.execBlockGen(n.Else, env)
		return ge.finallyGen(n.Finally, env4, esig)
	}
	return ge.finallyGen(n.Finally, env, sig)
}

func (ge *genEval) finallyGen(stmts []ast.Stmt, env environment.Environment, sig signal) (environment.Environment, signal) {
	if len(stmts) == 0 {
		return env, sig
	}
	env2, fsig := ge.execBlockGen(stmts, env)
	if fsig.kind != sigNone {
		return env2, fsig
	}
	return env2, sig
}

// evalYield is the generator-aware evaluation of a `yield`/`yield from`
// expression: it sends on the channel (blocking until the consumer is
// ready) and returns None; generators have no .send().
func (ge *genEval) evalYield(n *ast.Yield, env environment.Environment) (value.Value, environment.Environment, signal) {
	if n.From {
		src, env2, err := ge.Eval.evalExpr(n.Value, env)
		if err != nil {
			return nil, env2, raiseSignal(err)
		}
		env = env2
		items, err := ge.Eval.iterableToSlice(src)
		if err != nil {
			return nil, env, raiseSignal(err)
		}
		for _, item := range items {
			ge.gen.items <- genItem{val: item}
		}
		return value.None, env, signal{}
	}
	v := value.Value(value.None)
	if n.Value != nil {
		var err error
		var env2 environment.Environment
		v, env2, err = ge.Eval.evalExpr(n.Value, env)
		if err != nil {
			return nil, env2, raiseSignal(err)
		}
		env = env2
	}
	ge.gen.items <- genItem{val: v}
	return value.None, env, signal{}
}

// drainGenerator fully materialises a generator's output, used wherever a
// generator is consumed eagerly (list(), for-loops over a freshly called
// generator function, tuple()/set() construction).
func drainGenerator(gc *genChannels) ([]value.Value, error) {
	var out []value.Value
	for item := range gc.items {
		if item.done {
			if item.err != nil {
				return out, item.err
			}
			return out, nil
		}
		out = append(out, item.val)
	}
	return out, nil
}
