package evaluator

import "github.com/ivarvong/pyex-sub003/pkgs/value"

// exceptionClassSpec describes one built-in exception class: its name and
// its direct base, mirroring the slice of CPython's exception hierarchy
// this interpreter's runtime actually raises (pkgs/perrors.PyException).
type exceptionClassSpec struct {
	name string
	base string // "" for BaseException itself
}

// builtinExceptionSpecs mirrors the subset of CPython's exception tree this
// interpreter's runtime actually raises, per pkgs/perrors.PyException.
var builtinExceptionSpecs = []exceptionClassSpec{
	{"BaseException", ""},
	{"Exception", "BaseException"},
	{"ArithmeticError", "Exception"},
	{"ZeroDivisionError", "ArithmeticError"},
	{"AssertionError", "Exception"},
	{"AttributeError", "Exception"},
	{"ImportError", "Exception"},
	{"LookupError", "Exception"},
	{"IndexError", "LookupError"},
	{"KeyError", "LookupError"},
	{"NameError", "Exception"},
	{"OSError", "Exception"},
	{"IOError", "OSError"},
	{"FileNotFoundError", "OSError"},
	{"PermissionError", "OSError"},
	{"RuntimeError", "Exception"},
	{"RecursionError", "RuntimeError"},
	{"StopIteration", "Exception"},
	{"SyntaxError", "Exception"},
	{"TimeoutError", "OSError"},
	{"TypeError", "Exception"},
	{"ValueError", "Exception"},
}

// newBuiltinExceptionClasses builds the *value.Class for every name in
// builtinExceptionSpecs, wired so `raise ValueError("bad")` and
// `except LookupError:` both resolve against real class values rather than
// bare strings: exceptionMatches (pkgs/evaluator/exceptions.go) already
// walks a *value.Class's MRO, it just had nothing to walk before this.
func newBuiltinExceptionClasses() map[string]*value.Class {
	classes := make(map[string]*value.Class, len(builtinExceptionSpecs))
	for _, spec := range builtinExceptionSpecs {
		cls := &value.Class{Name: spec.name, Dict: map[string]value.Value{}, IsException: true}
		cls.MRO = []*value.Class{cls}
		if spec.base != "" {
			base := classes[spec.base]
			cls.Bases = []*value.Class{base}
			cls.MRO = append(cls.MRO, base.MRO...)
		}
		classes[spec.name] = cls
	}
	return classes
}
