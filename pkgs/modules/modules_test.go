package modules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivarvong/pyex-sub003/pkgs/api"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
)

func runSource(t *testing.T, src string) (string, *api.Result) {
	t.Helper()
	prog, err := api.Compile(src)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	result := api.Run(prog, api.RunOptions{Capabilities: pycontext.CapabilityConfig{RandomSeed: 1}})
	return api.ExtractOutput(result.Events), &result
}

func TestMathModuleConstantsAndFunctions(t *testing.T) {
	t.Parallel()
	src := `
import math
print(math.sqrt(16))
print(math.floor(3.7))
print(math.ceil(3.2))
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "4.0\n3.0\n4.0\n", out)
}

func TestJSONDumpsAndLoadsRoundTrip(t *testing.T) {
	t.Parallel()
	src := `
import json
s = json.dumps({"a": 1, "b": [1, 2, 3]})
print(s)
d = json.loads(s)
print(d["a"], d["b"])
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "{\"a\":1,\"b\":[1,2,3]}\n1.0 [1.0, 2.0, 3.0]\n", out)
}

func TestReFindallAndSub(t *testing.T) {
	t.Parallel()
	src := `
import re
print(re.findall(r"\d+", "a1 b22 c333"))
print(re.sub(r"\d+", "#", "a1 b22 c333"))
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "['1', '22', '333']\na# b# c#\n", out)
}

func TestReMatchReturnsNoneWhenNotFound(t *testing.T) {
	t.Parallel()
	src := `
import re
m = re.match(r"\d+", "abc")
print(m)
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "None\n", out)
}

func TestCollectionsCounterCountsOccurrences(t *testing.T) {
	t.Parallel()
	src := `
import collections
c = collections.Counter(["a", "b", "a", "c", "a"])
print(c["a"])
print(c["b"])
print(c["c"])
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "3\n1\n1\n", out)
}

func TestItertoolsChainAndProduct(t *testing.T) {
	t.Parallel()
	src := `
import itertools
print(list(itertools.chain([1, 2], [3, 4])))
print(list(itertools.product([1, 2], [3, 4])))
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "[1, 2, 3, 4]\n[(1, 3), (1, 4), (2, 3), (2, 4)]\n", out)
}

func TestHashlibSha256MatchesKnownDigest(t *testing.T) {
	t.Parallel()
	src := `
import hashlib
print(hashlib.sha256_hexdigest("abc"))
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad\n", out)
}

func TestBase64EncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	src := `
import base64
encoded = base64.b64encode("hello world")
print(encoded)
print(base64.b64decode(encoded))
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "aGVsbG8gd29ybGQ=\nhello world\n", out)
}

func TestImportingUnavailableModuleRaisesImportError(t *testing.T) {
	t.Parallel()
	_, res := runSource(t, "import pandas\n")
	if assert.Error(t, res.Err) {
		assert.Contains(t, res.Err.Error(), "ImportError")
	}
}

func TestImportingUnknownModuleRaisesImportError(t *testing.T) {
	t.Parallel()
	_, res := runSource(t, "import totally_not_a_module\n")
	if assert.Error(t, res.Err) {
		assert.Contains(t, res.Err.Error(), "ImportError")
	}
}
