package mount

import (
	"context"
	"fmt"
	"syscall"
	"testing"

	"github.com/brettbedarf/memfs"
	"github.com/brettbedarf/memfs/filesystem"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededFS(t *testing.T) *filesystem.FileSystem {
	t.Helper()
	fsys := memfs.New(filesystem.NewRegistry())
	require.NoError(t, memfs.CreateFile(fsys, "/docs/readme.md", "# memfs"))
	require.NoError(t, fsys.Mkdirs("/docs/img", filesystem.WithPermission(0o755)))
	return fsys
}

func TestToErrno(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want syscall.Errno
	}{
		{nil, fs.OK},
		{filesystem.ErrNotFound, syscall.ENOENT},
		{filesystem.ErrPermissionDenied, syscall.EACCES},
		{filesystem.ErrNotAFile, syscall.EISDIR},
		{filesystem.ErrNotADirectory, syscall.ENOTDIR},
		{filesystem.ErrInvalidArgument, syscall.EINVAL},
		{filesystem.ErrResourceBusy, syscall.EBUSY},
		{filesystem.ErrNotEmpty, syscall.EIO},
		{fmt.Errorf("wrapped: %w", filesystem.ErrNotFound), syscall.ENOENT},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.err), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, toErrno(tt.err))
		})
	}
}

func TestFillAttr(t *testing.T) {
	t.Parallel()

	var out fuse.Attr
	fillAttr(filesystem.FileStatus{Path: "/f", Length: 42, Permission: 0o640}, &out)
	assert.Equal(t, uint32(fuse.S_IFREG|0o640), out.Mode)
	assert.Equal(t, uint64(42), out.Size)
	assert.Equal(t, uint32(1), out.Nlink)

	fillAttr(filesystem.FileStatus{Path: "/d", IsDir: true, Permission: 0o755}, &out)
	assert.Equal(t, uint32(fuse.S_IFDIR|0o755), out.Mode)
	assert.Zero(t, out.Size)
}

func TestDirNode_Getattr(t *testing.T) {
	t.Parallel()

	fsys := newSeededFS(t)
	ctx := context.Background()

	var out fuse.AttrOut
	d := &dirNode{fsys: fsys, path: "/docs"}
	require.Equal(t, fs.OK, d.Getattr(ctx, nil, &out))
	assert.Equal(t, uint32(fuse.S_IFDIR|0o777), out.Mode)

	missing := &dirNode{fsys: fsys, path: "/gone"}
	assert.Equal(t, syscall.ENOENT, missing.Getattr(ctx, nil, &out))
}

func TestDirNode_Readdir(t *testing.T) {
	t.Parallel()

	fsys := newSeededFS(t)
	d := &dirNode{fsys: fsys, path: "/docs"}

	stream, errno := d.Readdir(context.Background())
	require.Equal(t, fs.OK, errno)
	defer stream.Close()

	var names []string
	var modes []uint32
	for stream.HasNext() {
		e, errno := stream.Next()
		require.Equal(t, fs.OK, errno)
		names = append(names, e.Name)
		modes = append(modes, e.Mode)
	}
	assert.Equal(t, []string{"img", "readme.md"}, names)
	assert.Equal(t, []uint32{fuse.S_IFDIR | 0o755, fuse.S_IFREG | 0o777}, modes)
}

func TestFileNode_OpenRead(t *testing.T) {
	t.Parallel()

	fsys := newSeededFS(t)
	ctx := context.Background()
	f := &fileNode{fsys: fsys, path: "/docs/readme.md"}

	var out fuse.AttrOut
	require.Equal(t, fs.OK, f.Getattr(ctx, nil, &out))
	assert.Equal(t, uint64(len("# memfs")), out.Size)

	fh, _, errno := f.Open(ctx, syscall.O_RDONLY)
	require.Equal(t, fs.OK, errno)
	h := fh.(*fileHandle)

	dest := make([]byte, 16)
	res, errno := h.Read(ctx, dest, 2)
	require.Equal(t, fs.OK, errno)
	b, status := res.Bytes(make([]byte, 16))
	require.Equal(t, fuse.OK, status)
	assert.Equal(t, "memfs", string(b))

	assert.Equal(t, fs.OK, h.Release(ctx))
	assert.Equal(t, syscall.EIO, h.Release(ctx), "double release reports the closed handle")

	_, _, errno = f.Open(ctx, syscall.O_WRONLY)
	assert.Equal(t, syscall.EROFS, errno)

	locked := memfs.New(fsys.Registry(), filesystem.WithUser("carol", "others"))
	require.NoError(t, fsys.Mkdirs("/private"))
	w, err := fsys.Create("/private/key", filesystem.WithPermission(0o600))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	_, _, errno = (&fileNode{fsys: locked, path: "/private/key"}).Open(ctx, syscall.O_RDONLY)
	assert.Equal(t, syscall.EACCES, errno)
}
