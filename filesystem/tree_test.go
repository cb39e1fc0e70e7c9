package filesystem

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTree links a directory /a holding /a/f and /a/sub/g, plus a sibling file /ab.
func buildTree(t *testing.T) *Tree {
	t.Helper()
	tr := newTree("test")
	root := tr.Root()

	a := newDirNode("/a", DefaultPermission, DefaultUser)
	tr.Put("/a", a)
	root.addChild("/a", KindDirectory)

	tr.Put("/a/f", newFileNode("/a/f", DefaultPermission, DefaultUser))
	a.addChild("/a/f", KindFile)

	sub := newDirNode("/a/sub", DefaultPermission, DefaultUser)
	tr.Put("/a/sub", sub)
	a.addChild("/a/sub", KindDirectory)

	tr.Put("/a/sub/g", newFileNode("/a/sub/g", DefaultPermission, DefaultUser))
	sub.addChild("/a/sub/g", KindFile)

	tr.Put("/ab", newFileNode("/ab", DefaultPermission, DefaultUser))
	root.addChild("/ab", KindFile)
	return tr
}

func TestNewTree(t *testing.T) {
	t.Parallel()

	tr := newTree("memory")

	assert.Equal(t, "memory", tr.Identity())
	assert.Equal(t, 1, tr.Len())
	assert.Equal(t, []string{RootPath}, tr.Paths())
	require.NotNil(t, tr.Root())
	assert.Equal(t, RootPath, tr.Root().Path())
	assert.True(t, tr.Root().IsEmpty())
}

func TestTree_PutGetRemove(t *testing.T) {
	t.Parallel()

	tr := newTree("memory")
	n := newFileNode("/x", DefaultPermission, DefaultUser)

	tr.Put("/x", n)
	got, ok := tr.Get("/x")
	require.True(t, ok)
	assert.Same(t, n, got)
	assert.True(t, tr.Contains("/x"))

	removed, ok := tr.Remove("/x")
	require.True(t, ok)
	assert.Same(t, n, removed)
	assert.False(t, tr.Contains("/x"))

	_, ok = tr.Remove("/x")
	assert.False(t, ok)
}

func TestTree_Move(t *testing.T) {
	t.Parallel()

	tr := buildTree(t)

	require.NoError(t, tr.Move("/a", "/c"))

	assert.Equal(t, []string{"/", "/ab", "/c", "/c/f", "/c/sub", "/c/sub/g"}, tr.Paths())

	for _, p := range []string{"/c", "/c/f", "/c/sub", "/c/sub/g"} {
		n, ok := tr.Get(p)
		require.True(t, ok, p)
		assert.Equal(t, p, n.Path(), "node path must follow its key")
	}

	c, ok := tr.dir("/c")
	require.True(t, ok)
	assert.Equal(t, []string{"/c/f"}, c.Files())
	assert.Equal(t, []string{"/c/sub"}, c.Dirs())

	sub, ok := tr.dir("/c/sub")
	require.True(t, ok)
	assert.Equal(t, []string{"/c/sub/g"}, sub.Files())
}

func TestTree_Move_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		dst     string
		wantErr error
	}{
		{"MissingSource", "/missing", "/z", ErrNotFound},
		{"ExistingDestination", "/a/f", "/ab", ErrAlreadyExists},
		{"Root", "/", "/z", ErrInvalidArgument},
		{"IntoItself", "/a", "/a/sub/deeper", ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr := buildTree(t)
			before := tr.Paths()

			err := tr.Move(tt.src, tt.dst)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, tr.Paths(), "failed move must not touch the tree")
		})
	}
}

func TestTree_ConcurrentPut(t *testing.T) {
	t.Parallel()

	tr := newTree("memory")
	const n = 50

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := "/f" + string(rune('a'+i%26)) + string(rune('a'+i/26))
			tr.Put(p, newFileNode(p, DefaultPermission, DefaultUser))
		}()
	}
	wg.Wait()

	assert.Equal(t, n+1, tr.Len())
}
