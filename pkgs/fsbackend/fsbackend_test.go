package fsbackend

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalWriteReadRoundTrip(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	l := NewLocal(root)

	err := l.Write("a/b.txt", []byte("hello"), false)
	assert.NoError(t, err)
	assert.True(t, l.Exists("a/b.txt"))

	data, err := l.Read("a/b.txt")
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestLocalWriteAppendMode(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	l := NewLocal(root)

	assert.NoError(t, l.Write("log.txt", []byte("a"), false))
	assert.NoError(t, l.Write("log.txt", []byte("b"), true))

	data, err := l.Read("log.txt")
	assert.NoError(t, err)
	assert.Equal(t, "ab", string(data))
}

func TestLocalReadMissingReturnsErrNotFound(t *testing.T) {
	t.Parallel()
	l := NewLocal(t.TempDir())
	_, err := l.Read("missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalRejectsPathTraversalOutsideRoot(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	l := NewLocal(root)

	_, err := l.Read(filepath.Join("..", "escaped.txt"))
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestLocalListDirIsSortedAndDelete(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	l := NewLocal(root)

	assert.NoError(t, l.Write("b.txt", []byte("x"), false))
	assert.NoError(t, l.Write("a.txt", []byte("y"), false))

	names, err := l.ListDir(".")
	assert.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)

	assert.NoError(t, l.Delete("a.txt"))
	assert.False(t, l.Exists("a.txt"))
	assert.ErrorIs(t, l.Delete("a.txt"), ErrNotFound)
}

func TestMemoryWriteReadExistsDelete(t *testing.T) {
	t.Parallel()
	m := NewMemory()

	assert.False(t, m.Exists("x.txt"))
	assert.NoError(t, m.Write("x.txt", []byte("v1"), false))
	assert.True(t, m.Exists("x.txt"))

	data, err := m.Read("x.txt")
	assert.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	assert.NoError(t, m.Write("x.txt", []byte("v2"), true))
	data, _ = m.Read("x.txt")
	assert.Equal(t, "v1v2", string(data))

	assert.NoError(t, m.Delete("x.txt"))
	assert.ErrorIs(t, m.Delete("x.txt"), ErrNotFound)
}

func TestMemoryListDirByPrefix(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	m.Write("dir/a.txt", []byte("1"), false)
	m.Write("dir/b.txt", []byte("2"), false)
	m.Write("dir/sub/c.txt", []byte("3"), false)
	m.Write("other.txt", []byte("4"), false)

	names, err := m.ListDir("dir")
	assert.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "sub"}, names)
}

func TestMemoryReadReturnsACopyNotTheBackingSlice(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	m.Write("x.txt", []byte("hello"), false)

	data, _ := m.Read("x.txt")
	data[0] = 'X'

	fresh, _ := m.Read("x.txt")
	assert.Equal(t, "hello", string(fresh), "mutating a Read result must not corrupt backend state")
}
