package pycontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordEventOnlyAppendsInLiveMode(t *testing.T) {
	t.Parallel()
	c := New(context.Background(), CapabilityConfig{}, 0, 0)

	c.RecordEvent("output", map[string]interface{}{"text": "hi"})
	assert.Len(t, c.Events, 1)
	assert.Equal(t, 0, c.Events[0].Seq)

	c.Mode = ModeNoop
	c.RecordEvent("output", map[string]interface{}{"text": "ignored"})
	assert.Len(t, c.Events, 1, "noop mode must not record events")
}

func TestReplayModeConsumesSeededEvents(t *testing.T) {
	t.Parallel()
	events := []Event{
		{Seq: 0, Kind: "output", Payload: map[string]interface{}{"text": "a"}},
		{Seq: 1, Kind: "output", Payload: map[string]interface{}{"text": "b"}},
	}
	c := NewReplay(context.Background(), events, 0)
	assert.Equal(t, ModeReplay, c.Mode)

	first, ok := c.NextReplayEvent()
	assert.True(t, ok)
	assert.Equal(t, "a", first.Payload["text"])

	second, ok := c.NextReplayEvent()
	assert.True(t, ok)
	assert.Equal(t, "b", second.Payload["text"])

	_, ok = c.NextReplayEvent()
	assert.False(t, ok, "replay cursor must report exhaustion")
}

func TestComputeBudgetExceeded(t *testing.T) {
	t.Parallel()
	b := ComputeBudget{MaxSteps: 3}
	for i := 0; i < 3; i++ {
		assert.False(t, b.Exceeded(), "budget should not be exceeded before MaxSteps ticks")
		b.Tick()
	}
	assert.True(t, b.Exceeded())
}

func TestComputeBudgetUnboundedWhenMaxStepsZero(t *testing.T) {
	t.Parallel()
	b := ComputeBudget{MaxSteps: 0}
	for i := 0; i < 1000; i++ {
		b.Tick()
	}
	assert.False(t, b.Exceeded(), "a zero MaxSteps budget must never be exceeded")
}

func TestEnterCallEnforcesMaxCallDepth(t *testing.T) {
	t.Parallel()
	c := New(context.Background(), CapabilityConfig{}, 0, 2)

	assert.NoError(t, c.EnterCall())
	assert.NoError(t, c.EnterCall())
	err := c.EnterCall()
	assert.Error(t, err)

	c.ExitCall()
	c.ExitCall()
	assert.Equal(t, 1, c.CallDepth)
}

func TestAllocFileAndCloseFile(t *testing.T) {
	t.Parallel()
	c := New(context.Background(), CapabilityConfig{}, 0, 0)

	id := c.AllocFile("/tmp/x", "r")
	assert.Equal(t, 1, id)
	assert.False(t, c.Files[id].Closed)

	c.CloseFile(id)
	assert.True(t, c.Files[id].Closed)
}

func TestEnvAllowedChecksWhitelist(t *testing.T) {
	t.Parallel()
	c := New(context.Background(), CapabilityConfig{EnvWhitelist: []string{"HOME"}}, 0, 0)

	assert.True(t, c.EnvAllowed("HOME"))
	assert.False(t, c.EnvAllowed("SECRET"))
}

func TestMarshalUnmarshalEventsRoundTrip(t *testing.T) {
	t.Parallel()
	events := []Event{
		{Seq: 0, Kind: "output", Payload: map[string]interface{}{"text": "hello"}},
		{Seq: 1, Kind: "side_effect", Payload: map[string]interface{}{"source": "random.random"}},
	}

	data, err := MarshalEvents(events)
	assert.NoError(t, err)

	got, err := UnmarshalEvents(data)
	assert.NoError(t, err)
	assert.Len(t, got, len(events))
	assert.Equal(t, events[0].Kind, got[0].Kind)
	assert.Equal(t, events[1].Kind, got[1].Kind)
}

func TestBumpAccumulatesProfileCounters(t *testing.T) {
	t.Parallel()
	c := New(context.Background(), CapabilityConfig{}, 0, 0)
	c.Bump("alloc", 3)
	c.Bump("alloc", 4)
	assert.Equal(t, int64(7), c.Profile["alloc"])
}
