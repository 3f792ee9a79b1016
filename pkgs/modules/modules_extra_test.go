package modules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCSVReaderParsesRowsAndWriterTextRoundTrips(t *testing.T) {
	t.Parallel()
	src := `
import csv
rows = csv.reader("a,b\nc,d\n")
print(rows)
text = csv.writer_text([["x", "y"], ["1", "2"]])
print(text, end="")
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "[['a', 'b'], ['c', 'd']]\nx,y\n1,2\n", out)
}

func TestHTMLEscapeAndUnescapeRoundTrip(t *testing.T) {
	t.Parallel()
	src := `
import html
escaped = html.escape("<a href='x'>&</a>")
print(escaped)
print(html.unescape(escaped))
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "&lt;a href=&#39;x&#39;&gt;&amp;&lt;/a&gt;\n<a href='x'>&</a>\n", out)
}

func TestYAMLDumpAndSafeLoadRoundTrip(t *testing.T) {
	t.Parallel()
	src := `
import yaml
doc = yaml.dump({"a": 1, "b": [1, 2]})
print(doc, end="")
loaded = yaml.safe_load(doc)
print(loaded["a"], loaded["b"])
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "a: 1\nb:\n    - 1\n    - 2\n1 [1, 2]\n", out)
}

func TestStructPackAndUnpackFloat32RoundTrip(t *testing.T) {
	t.Parallel()
	src := `
import struct
hexed = struct.pack_f32_hex(1.5)
print(hexed)
print(struct.unpack_f32_hex(hexed))
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "3fc00000\n1.5\n", out)
}

func TestStructUnpackRejectsWrongLengthHex(t *testing.T) {
	t.Parallel()
	_, res := runSource(t, "import struct\nstruct.unpack_f32_hex('ab')\n")
	if assert.Error(t, res.Err) {
		assert.Contains(t, res.Err.Error(), "ValueError")
	}
}

func TestHmacNewSha256HexdigestMatchesKnownVector(t *testing.T) {
	t.Parallel()
	src := `
import hmac
print(hmac.new_sha256_hexdigest("key", "msg"))
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "2d93cbc1be167bcb1637a4a23cbff01a7878f0c50ee833954ea5221bb1b8c628\n", out)
}

func TestHmacCompareDigest(t *testing.T) {
	t.Parallel()
	src := `
import hmac
print(hmac.compare_digest("abc", "abc"))
print(hmac.compare_digest("abc", "abd"))
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "True\nFalse\n", out)
}

func TestTimeSleepIsNoOpAndTimeReturnsFloat(t *testing.T) {
	t.Parallel()
	src := `
import time
time.sleep(5)
t = time.time()
print(type(t))
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "float\n", out)
}

func TestDatetimeNowIsoformatReturnsRFC3339String(t *testing.T) {
	t.Parallel()
	src := `
import datetime
s = datetime.now_isoformat()
print(type(s))
print(len(s) > 0)
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "str\nTrue\n", out)
}

func TestSecretsTokenHexReturnsRequestedLength(t *testing.T) {
	t.Parallel()
	src := `
import secrets
token = secrets.token_hex(8)
print(len(token))
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "16\n", out)
}

func TestSecretsChoiceRejectsEmptySequence(t *testing.T) {
	t.Parallel()
	_, res := runSource(t, "import secrets\nsecrets.choice([])\n")
	if assert.Error(t, res.Err) {
		assert.Contains(t, res.Err.Error(), "IndexError")
	}
}

func TestUUID4ProducesVersion4FormattedString(t *testing.T) {
	t.Parallel()
	src := `
import uuid
u = uuid.uuid4()
parts = u.split("-")
print(len(parts))
print(len(u))
print(parts[2][0])
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "5\n36\n4\n", out)
}
