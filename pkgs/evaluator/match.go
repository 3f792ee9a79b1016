package evaluator

import (
	"github.com/ivarvong/pyex-sub003/pkgs/ast"
	"github.com/ivarvong/pyex-sub003/pkgs/environment"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// execMatch implements the match/case statement : the
// subject is matched against each case's pattern in order, the first
// structural match whose guard (if any) is truthy runs its body.
func (e *Eval) execMatch(n *ast.Match, env environment.Environment) (environment.Environment, signal) {
	subject, env2, err := e.evalExpr(n.Subject, env)
	if err != nil {
		return env2, raiseSignal(err)
	}
	env = env2

	for _, c := range n.Cases {
		matchEnv, ok, err := e.matchPattern(c.Pattern, subject, env)
		if err != nil {
			return matchEnv, raiseSignal(err)
		}
		if !ok {
			continue
		}
		env = matchEnv
		if c.Guard != nil {
			cond, env3, err := e.evalExpr(c.Guard, env)
			if err != nil {
				return env3, raiseSignal(err)
			}
			env = env3
			ok, terr := e.truthy(cond)
			if terr != nil {
				return env, raiseSignal(terr)
			}
			if !ok {
				continue
			}
		}
		return e.execBlock(c.Body, env)
	}
	return env, signal{}
}

// matchPattern reports whether subject structurally matches pat, binding
// any capture names into env along the way.
func (e *Eval) matchPattern(pat ast.Pattern, subject value.Value, env environment.Environment) (environment.Environment, bool, error) {
	switch p := pat.(type) {
	case ast.WildcardPattern:
		return env, true, nil

	case ast.CapturePattern:
		return env.SmartPut(p.Name, subject), true, nil

	case ast.LiteralPattern:
		lv, env2, err := e.evalExpr(p.Value, env)
		if err != nil {
			return env2, false, err
		}
		return env2, e.eq(lv, subject), nil

	case ast.OrPattern:
		for _, opt := range p.Options {
			env2, ok, err := e.matchPattern(opt, subject, env)
			if err != nil {
				return env2, false, err
			}
			if ok {
				return env2, true, nil
			}
		}
		return env, false, nil

	case ast.SequencePattern:
		items, err := e.iterableToSlice(subject)
		if err != nil {
			return env, false, nil
		}
		if p.Star < 0 {
			if len(items) != len(p.Elems) {
				return env, false, nil
			}
			for i, sub := range p.Elems {
				var ok bool
				var err error
				env, ok, err = e.matchPattern(sub, items[i], env)
				if err != nil || !ok {
					return env, false, err
				}
			}
			return env, true, nil
		}
		before := p.Star
		after := len(p.Elems) - p.Star - 1
		if len(items) < before+after {
			return env, false, nil
		}
		for i := 0; i < before; i++ {
			var ok bool
			var err error
			env, ok, err = e.matchPattern(p.Elems[i], items[i], env)
			if err != nil || !ok {
				return env, false, err
			}
		}
		mid := items[before : len(items)-after]
		if p.StarAs != "" {
			env = env.SmartPut(p.StarAs, value.NewList(append([]value.Value{}, mid...)))
		}
		for i := 0; i < after; i++ {
			var ok bool
			var err error
			env, ok, err = e.matchPattern(p.Elems[p.Star+1+i], items[len(items)-after+i], env)
			if err != nil || !ok {
				return env, false, err
			}
		}
		return env, true, nil

	case ast.MappingPattern:
		d, ok := subject.(value.Dict)
		if !ok {
			return env, false, nil
		}
		for i, kExpr := range p.Keys {
			kv, env2, err := e.evalExpr(kExpr, env)
			if err != nil {
				return env2, false, err
			}
			env = env2
			v, found := d.Get(kv)
			if !found {
				return env, false, nil
			}
			var matched bool
			var err2 error
			env, matched, err2 = e.matchPattern(p.Values[i], v, env)
			if err2 != nil || !matched {
				return env, false, err2
			}
		}
		return env, true, nil

	case ast.ClassPattern:
		clsVal, env2, err := e.evalExpr(p.Class, env)
		if err != nil {
			return env2, false, err
		}
		env = env2
		cls, ok := clsVal.(*value.Class)
		if !ok {
			return env, false, nil
		}
		inst, ok := subject.(value.Instance)
		if !ok || !classMatches(inst.Class, cls) {
			return env, false, nil
		}
		for i, sub := range p.Positional {
			attr, ok := (*inst.Dict)[positionalPatternAttr(cls, i)]
			if !ok {
				return env, false, nil
			}
			var matched bool
			var err error
			env, matched, err = e.matchPattern(sub, attr, env)
			if err != nil || !matched {
				return env, false, err
			}
		}
		for name, sub := range p.Keyword {
			attr, ok := (*inst.Dict)[name]
			if !ok {
				return env, false, nil
			}
			var matched bool
			var err error
			env, matched, err = e.matchPattern(sub, attr, env)
			if err != nil || !matched {
				return env, false, err
			}
		}
		return env, true, nil

	default:
		return env, false, nil
	}
}

func classMatches(inst *value.Class, want *value.Class) bool {
	for _, c := range inst.MRO {
		if c == want {
			return true
		}
	}
	return false
}

// positionalPatternAttr resolves the i'th positional sub-pattern of a
// class pattern to an attribute name via the class's __match_args__
// tuple, falling back to no match when absent.
func positionalPatternAttr(cls *value.Class, i int) string {
	if v, ok := cls.Dict["__match_args__"]; ok {
		if t, ok := v.(value.Tuple); ok && i < len(t.Items) {
			if s, ok := t.Items[i].(value.Str); ok {
				return string(s)
			}
		}
	}
	return ""
}
