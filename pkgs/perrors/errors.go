// Package perrors provides a structured, typed error used throughout the
// interpreter, modeled on pkgs/errors.DevCmdError
// (Type/Message/Cause/Context, New/Wrap/WithContext) but generalised from
// devcmd's fixed error-type constants to Python's exception taxonomy.
package perrors

import "fmt"

// Kind is the top-level category surfaced by the Core API.
type Kind string

const (
	KindSyntax     Kind = "syntax"
	KindRuntime    Kind = "runtime"
	KindTimeout    Kind = "timeout"
	KindIO         Kind = "io"
	KindNetwork    Kind = "network"
	KindPermission Kind = "permission"
	KindImport     Kind = "import"
	KindValidation Kind = "validation"
	KindRoute      Kind = "route_not_found"
)

// PyException is the Python exception-class-name taxonomy.
type PyException string

const (
	SyntaxError      PyException = "SyntaxError"
	NameError        PyException = "NameError"
	TypeError        PyException = "TypeError"
	ValueError       PyException = "ValueError"
	IndexError       PyException = "IndexError"
	KeyError         PyException = "KeyError"
	AttributeError   PyException = "AttributeError"
	ZeroDivisionError PyException = "ZeroDivisionError"
	ImportError      PyException = "ImportError"
	RecursionError   PyException = "RecursionError"
	TimeoutError     PyException = "TimeoutError"
	IOError          PyException = "IOError"
	FileNotFoundError PyException = "FileNotFoundError"
	PermissionError  PyException = "PermissionError"
	AssertionError   PyException = "AssertionError"
	StopIteration    PyException = "StopIteration"
)

// PyError is a structured, wrapped, contextual error — the generalisation
// of a prior DevCmdError{Type, Message, Cause, Context}.
type PyError struct {
	Kind      Kind
	Exception PyException // "" for user-defined subclasses; Class carries the name then
	Class     string      // exception class name, parsed from the message prefix
	Message   string
	Cause     error
	Context   map[string]interface{}
}

func (e *PyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Class, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

func (e *PyError) Unwrap() error { return e.Cause }

// WithContext adds context information to the error, a fluent
// WithContext(key, value) builder.
func (e *PyError) WithContext(key string, value interface{}) *PyError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a PyError for a built-in Python exception class.
func New(kind Kind, class PyException, message string) *PyError {
	return &PyError{Kind: kind, Exception: class, Class: string(class), Message: message}
}

// NewUserException creates a PyError for a user-defined exception subclass,
// which inherits its name from the user class.
func NewUserException(className, message string) *PyError {
	return &PyError{Kind: KindRuntime, Class: className, Message: message}
}

// Wrap creates a PyError wrapping a lower-level Go error (e.g. a filesystem
// backend failure).
func Wrap(kind Kind, class PyException, message string, cause error) *PyError {
	return &PyError{Kind: kind, Exception: class, Class: string(class), Message: message, Cause: cause}
}

// Matches implements the class-name-prefix matching rule: "TypeError: x"
// matches `except TypeError`; `except Exception` matches everything.
func (e *PyError) Matches(exceptName string) bool {
	if exceptName == "" || exceptName == "Exception" || exceptName == "BaseException" {
		return true
	}
	return e.Class == exceptName
}

// IsKind reports whether err is a *PyError of the given Kind.
func IsKind(err error, k Kind) bool {
	if pe, ok := err.(*PyError); ok {
		return pe.Kind == k
	}
	return false
}

// IsException reports whether err is a *PyError whose class matches name.
func IsException(err error, name string) bool {
	if pe, ok := err.(*PyError); ok {
		return pe.Matches(name)
	}
	return false
}
