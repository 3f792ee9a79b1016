package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivarvong/pyex-sub003/pkgs/api"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func TestCompileRejectsSyntaxErrorAsPyError(t *testing.T) {
	t.Parallel()
	_, err := api.Compile("def f(:\n    pass\n")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "SyntaxError")
	}
}

func TestCompileAndRunProducesOutput(t *testing.T) {
	t.Parallel()
	prog, err := api.Compile("print('hi')\n")
	assert.NoError(t, err)

	result := api.Run(prog, api.RunOptions{})
	assert.NoError(t, result.Err)
	assert.False(t, result.Suspended)
	assert.Equal(t, "hi\n", api.ExtractOutput(result.Events))
}

func TestRunSameProgramTwiceIsIndependent(t *testing.T) {
	t.Parallel()
	prog, err := api.Compile("x = 1\nx += 1\nprint(x)\n")
	assert.NoError(t, err)

	first := api.Run(prog, api.RunOptions{})
	second := api.Run(prog, api.RunOptions{})
	assert.Equal(t, "2\n", api.ExtractOutput(first.Events))
	assert.Equal(t, "2\n", api.ExtractOutput(second.Events), "re-running a compiled Program must not carry over mutated state")
}

func TestRunReplaysRecordedEventsDeterministically(t *testing.T) {
	t.Parallel()
	prog, err := api.Compile("import random\nprint(random.random())\n")
	assert.NoError(t, err)

	live := api.Run(prog, api.RunOptions{Capabilities: pycontext.CapabilityConfig{RandomSeed: 99}})
	assert.NoError(t, live.Err)

	replay := api.Run(prog, api.RunOptions{ReplayEvents: live.Events})
	assert.NoError(t, replay.Err)
	assert.Equal(t, api.ExtractOutput(live.Events), api.ExtractOutput(replay.Events))
}

func TestRunReportsSuspendedOnSuspendCall(t *testing.T) {
	t.Parallel()
	prog, err := api.Compile("print('a')\nsuspend()\nprint('b')\n")
	assert.NoError(t, err)

	result := api.Run(prog, api.RunOptions{})
	assert.True(t, result.Suspended)
	assert.Equal(t, "a\n", api.ExtractOutput(result.Events))
}

func TestValueReprDelegatesToValuePackage(t *testing.T) {
	t.Parallel()
	prog, err := api.Compile("x = [1, 2, 3]\n")
	assert.NoError(t, err)

	result := api.Run(prog, api.RunOptions{})
	assert.NoError(t, result.Err)
	v, ok := result.Globals.Get("x")
	assert.True(t, ok)
	assert.Equal(t, "[1, 2, 3]", api.ValueRepr(v.(value.Value)))
}

func TestLoadCapabilityConfigParsesValidDocument(t *testing.T) {
	t.Parallel()
	raw := []byte(`{"filesystem_enabled": true, "random_seed": 5, "env_whitelist": ["PATH"]}`)
	cfg, err := api.LoadCapabilityConfig(raw)
	assert.NoError(t, err)
	assert.True(t, cfg.FilesystemEnabled)
	assert.EqualValues(t, 5, cfg.RandomSeed)
	assert.Equal(t, []string{"PATH"}, cfg.EnvWhitelist)
}

func TestLoadCapabilityConfigRejectsUnknownField(t *testing.T) {
	t.Parallel()
	raw := []byte(`{"not_a_real_field": true}`)
	_, err := api.LoadCapabilityConfig(raw)
	assert.Error(t, err)
}

func TestLoadCapabilityConfigRejectsInvalidJSON(t *testing.T) {
	t.Parallel()
	_, err := api.LoadCapabilityConfig([]byte(`{not json`))
	assert.Error(t, err)
}
