// Package api is the embedding surface for the sandboxed interpreter: a
// small Compile/Run pair that hides the lexer/parser/evaluator pipeline
// behind a single entry point, modeled on the CLI's lex -> parse -> plan
// -> execute staging, with a single normalized error path back to the
// caller, generalised from shell-command plans to Python module execution.
package api

import (
	"context"

	"github.com/ivarvong/pyex-sub003/pkgs/ast"
	"github.com/ivarvong/pyex-sub003/pkgs/environment"
	"github.com/ivarvong/pyex-sub003/pkgs/evaluator"
	"github.com/ivarvong/pyex-sub003/pkgs/parser"
	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// Program is a parsed, not-yet-executed module, kept separate from
// source text so a caller can compile once and run many times (e.g.
// once live, then again in replay mode against the recorded event log).
type Program struct {
	source string
	mod    *ast.Module
}

// Compile lexes and parses source into a Program. A syntax error is
// returned as a *perrors.PyError with Kind perrors.KindSyntax.
func Compile(source string) (*Program, error) {
	mod, err := parser.Parse(source)
	if err != nil {
		if _, ok := err.(*perrors.PyError); ok {
			return nil, err
		}
		return nil, perrors.Wrap(perrors.KindSyntax, perrors.SyntaxError, err.Error(), err)
	}
	return &Program{source: source, mod: mod}, nil
}

// RunOptions configures one execution of a compiled Program.
type RunOptions struct {
	Context      context.Context
	Capabilities pycontext.CapabilityConfig
	MaxSteps     int64
	MaxCallDepth int
	FS           fsExists

	// ReplayEvents, when non-nil, puts the run in replay mode: capability
	// operations consume these events instead of performing effects.
	ReplayEvents []pycontext.Event
}

// fsExists is the minimal filesystem capability api.Run needs to thread
// through to the evaluator's open() builtin.
type fsExists interface {
	Exists(path string) bool
}

// Result is the outcome of one Program execution.
type Result struct {
	// Events is the recorded event log (live mode) or the consumed replay
	// log's echo (replay mode), suitable for persisting and feeding back
	// into a later replay run.
	Events []pycontext.Event

	// Err is the unhandled top-level exception, if any. When the program
	// called suspend(), Err is nil and Suspended is true.
	Err error

	// Suspended reports whether the run stopped via a suspend() call
	// rather than running to completion or raising an exception. This
	// interpreter does not reconstruct a resumable continuation from a
	// suspended run — the recorded event log up to the suspend point is
	// still available in Events for a host to inspect or replay.
	Suspended bool

	// Globals is the final module-level environment, exposed so a host
	// embedding the interpreter can inspect top-level bindings after run.
	Globals environment.Environment
}

// Run executes p to completion (or until its compute budget/an unhandled
// exception stops it) under the given options.
func Run(p *Program, opts RunOptions) Result {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var pc *pycontext.Context
	if opts.ReplayEvents != nil {
		pc = pycontext.NewReplay(ctx, opts.ReplayEvents, opts.MaxCallDepth)
	} else {
		pc = pycontext.New(ctx, opts.Capabilities, opts.MaxSteps, opts.MaxCallDepth)
	}

	ev := evaluator.New(pc)
	if opts.FS != nil {
		ev.FS = opts.FS
	}

	env := environment.New()
	finalEnv, err := ev.RunModule(p.mod, env)

	if evaluator.IsSuspended(err) {
		return Result{Events: pc.Events, Suspended: true, Globals: finalEnv}
	}

	return Result{
		Events:  pc.Events,
		Err:     err,
		Globals: finalEnv,
	}
}

// ExtractOutput returns the combined stdout captured via print() events in
// result.Events, joined in recorded order — the byte-identical stream a
// live run and a replay run against the same program must agree on.
func ExtractOutput(events []pycontext.Event) string {
	var out string
	for _, e := range events {
		if e.Kind != "output" {
			continue
		}
		if text, ok := e.Payload["text"].(string); ok {
			out += text
		}
	}
	return out
}

// ValueRepr renders a Value the way the REPL/CLI would display an
// expression result, delegating to value.Repr.
func ValueRepr(v value.Value) string {
	return value.Repr(v)
}
