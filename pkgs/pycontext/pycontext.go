// Package pycontext implements the interpreter's execution context: the
// capability-gated, mode-switched, event-logging companion to
// pkgs/environment.Environment, modeled on runtime/execution/context.Ctx
// (an embedded context.Context plus frozen environment/system snapshots
// and IO streams, JSON-tagged for transport), generalised from devcmd's
// plan/execute dichotomy to this interpreter's live/replay/noop modes,
// and on runtime/validation.RecursionError for call-depth enforcement.
package pycontext

import (
	"context"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
)

// Mode selects how the context records and consumes events.
type Mode string

const (
	ModeLive   Mode = "live"   // execute normally, append to the event log
	ModeReplay Mode = "replay" // consume a pre-recorded event log instead of performing effects
	ModeNoop   Mode = "noop"   // execute without recording or replaying (used for pure evaluation, e.g. REPL expression preview)
)

// GeneratorMode selects how a generator function's body is driven.
type GeneratorMode string

const (
	GenNone        GeneratorMode = "none"
	GenAccumulate  GeneratorMode = "accumulate"
	GenDefer       GeneratorMode = "defer"
	GenDeferInner  GeneratorMode = "defer_inner"
)

// Event is one entry in the context's event log: a capability-touching
// effect (print, file read/write, randomness draw, time read, network
// call) recorded in live mode and replayed in replay mode so that replay
// produces byte-identical output without re-performing the effect.
type Event struct {
	Seq     int                    `json:"seq"`
	Kind    string                 `json:"kind"`
	Payload map[string]interface{} `json:"payload"`
}

// NetworkPolicy controls outbound network capability.
type NetworkPolicy struct {
	Allowed    bool
	AllowHosts []string
}

// CapabilityConfig is the sandboxed capability configuration provided at
// context construction: which effects are enabled and how they're backed.
type CapabilityConfig struct {
	FilesystemEnabled bool
	NetworkEnabled    bool
	Network           NetworkPolicy
	EnvWhitelist      []string
	RandomSeed        int64
	ClockFrozenAt     int64 // unix seconds; 0 means use wall clock
}

// ComputeBudget tracks the context's compute accounting as a count of
// evaluator steps against MaxSteps. Paused and ElapsedNs are not consulted
// by Exceeded; no wall-clock budget is enforced.
type ComputeBudget struct {
	MaxSteps   int64
	Steps      int64
	Paused     bool
	pausedAt   int64
	ElapsedNs  int64
}

// Exceeded reports whether the step budget has been spent.
func (b *ComputeBudget) Exceeded() bool {
	return b.MaxSteps > 0 && b.Steps >= b.MaxSteps
}

// Tick advances the step counter by one, used by the evaluator once per
// statement executed.
func (b *ComputeBudget) Tick() { b.Steps++ }

// Context is the interpreter's execution context: the capability-gated,
// event-logging companion threaded alongside environment.Environment
// through the evaluator's (outcome, env', ctx') return shape.
type Context struct {
	context.Context

	Mode Mode

	// IO streams, mirroring a prior Ctx.Stdout/Stderr/Stdin fields.
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	// Event log: appended to in live mode, consumed in replay mode.
	Events    []Event
	replayPos int

	// Compute accounting.
	Budget ComputeBudget

	// Capability configuration.
	Capabilities CapabilityConfig

	// Call-depth tracking for RecursionError enforcement.
	CallDepth    int
	MaxCallDepth int

	// Generator driving mode for the call currently being evaluated.
	GenMode        GeneratorMode
	GenAccumulator []interface{}

	// Open file handles, keyed by handle ID.
	Files     map[int]FileState
	nextFile  int

	// Live iterators, keyed by ID so next() can find an iterator's state.
	Iterators    map[int]interface{}
	nextIterator int

	// LastException holds the exception currently being handled, exposed
	// to bare `raise` for re-raise semantics.
	LastException *perrors.PyError

	// Profile counters, incremented by the evaluator for diagnostics.
	Profile map[string]int64
}

// FileState is the open-file bookkeeping backing a value.FileHandle.
type FileState struct {
	Path   string
	Mode   string
	Closed bool
}

// New constructs a fresh live-mode Context with the given capability
// configuration and compute budget.
func New(ctx context.Context, caps CapabilityConfig, maxSteps int64, maxCallDepth int) *Context {
	return &Context{
		Context:      ctx,
		Mode:         ModeLive,
		Capabilities: caps,
		Budget:       ComputeBudget{MaxSteps: maxSteps},
		MaxCallDepth: maxCallDepth,
		Files:        make(map[int]FileState),
		Iterators:    make(map[int]interface{}),
		Profile:      make(map[string]int64),
	}
}

// NewReplay constructs a replay-mode Context seeded with a previously
// recorded event log; capability-touching evaluator operations consume
// events from it instead of performing effects.
func NewReplay(ctx context.Context, events []Event, maxCallDepth int) *Context {
	c := New(ctx, CapabilityConfig{}, 0, maxCallDepth)
	c.Mode = ModeReplay
	c.Events = events
	return c
}

// RecordEvent appends an event to the log in live mode; a no-op in
// replay/noop mode.
func (c *Context) RecordEvent(kind string, payload map[string]interface{}) {
	if c.Mode != ModeLive {
		return
	}
	c.Events = append(c.Events, Event{Seq: len(c.Events), Kind: kind, Payload: payload})
}

// EventLog is the CBOR-serializable form of a recorded event log, the
// binary analogue of core/planfmt's plan-file persistence, generalised
// from a command plan to a replayable effect log.
type EventLog struct {
	Events []Event `cbor:"events"`
}

// MarshalEvents encodes events to CBOR for on-disk persistence between a
// live run and a later replay run.
func MarshalEvents(events []Event) ([]byte, error) {
	return cbor.Marshal(EventLog{Events: events})
}

// UnmarshalEvents decodes a CBOR-encoded event log previously produced by
// MarshalEvents.
func UnmarshalEvents(data []byte) ([]Event, error) {
	var log EventLog
	if err := cbor.Unmarshal(data, &log); err != nil {
		return nil, err
	}
	return log.Events, nil
}

// NextReplayEvent returns the next event in a replay-mode log, advancing
// the replay cursor, or ok=false once exhausted.
func (c *Context) NextReplayEvent() (Event, bool) {
	if c.replayPos >= len(c.Events) {
		return Event{}, false
	}
	e := c.Events[c.replayPos]
	c.replayPos++
	return e, true
}

// PauseCompute stops the compute budget clock, used around blocking
// capability operations (e.g. network I/O) that should not be charged
// against CPU-bound compute budget.
func (c *Context) PauseCompute() { c.Budget.Paused = true }

// ResumeCompute resumes the compute budget clock.
func (c *Context) ResumeCompute() { c.Budget.Paused = false }

// EnterCall increments the call-depth counter and returns a RecursionError
// if the configured maximum has been exceeded, modeled on
// validation.RecursionError{Command, Cycle, Message}.
func (c *Context) EnterCall() error {
	c.CallDepth++
	if c.MaxCallDepth > 0 && c.CallDepth > c.MaxCallDepth {
		return perrors.New(perrors.KindRuntime, perrors.RecursionError, "maximum recursion depth exceeded")
	}
	return nil
}

// ExitCall decrements the call-depth counter on return from a call frame.
func (c *Context) ExitCall() {
	if c.CallDepth > 0 {
		c.CallDepth--
	}
}

// AllocFile registers a new open file handle and returns its ID.
func (c *Context) AllocFile(path, mode string) int {
	c.nextFile++
	c.Files[c.nextFile] = FileState{Path: path, Mode: mode}
	return c.nextFile
}

// CloseFile marks a file handle closed.
func (c *Context) CloseFile(id int) {
	if f, ok := c.Files[id]; ok {
		f.Closed = true
		c.Files[id] = f
	}
}

// AllocIterator registers a live iterator and returns its token ID.
func (c *Context) AllocIterator(it interface{}) int {
	c.nextIterator++
	c.Iterators[c.nextIterator] = it
	return c.nextIterator
}

// EnvAllowed reports whether name is visible to os.Getenv lookups under
// the context's capability configuration.
func (c *Context) EnvAllowed(name string) bool {
	for _, n := range c.Capabilities.EnvWhitelist {
		if n == name {
			return true
		}
	}
	return false
}

// Bump increments a named profile counter by delta.
func (c *Context) Bump(name string, delta int64) {
	c.Profile[name] += delta
}
