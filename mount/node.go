package mount

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"syscall"

	"github.com/brettbedarf/memfs/filesystem"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// dirNode exposes a directory of the tree. Children are looked up on every
// call so changes made through the FileSystem show up in the mount.
type dirNode struct {
	fs.Inode
	fsys *filesystem.FileSystem
	path string
}

var (
	_ = (fs.NodeGetattrer)((*dirNode)(nil))
	_ = (fs.NodeLookuper)((*dirNode)(nil))
	_ = (fs.NodeReaddirer)((*dirNode)(nil))
)

func (d *dirNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	st, err := d.fsys.GetFileStatus(d.path)
	if err != nil {
		return toErrno(err)
	}
	fillAttr(st, &out.Attr)
	return fs.OK
}

func (d *dirNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	p := path.Join(d.path, name)
	st, err := d.fsys.GetFileStatus(p)
	if err != nil {
		return nil, toErrno(err)
	}
	fillAttr(st, &out.Attr)

	if st.IsDir {
		child := &dirNode{fsys: d.fsys, path: p}
		return d.NewInode(ctx, child, fs.StableAttr{Mode: fuse.S_IFDIR}), fs.OK
	}
	child := &fileNode{fsys: d.fsys, path: p}
	return d.NewInode(ctx, child, fs.StableAttr{Mode: fuse.S_IFREG}), fs.OK
}

func (d *dirNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	sts, err := d.fsys.ListStatus(d.path)
	if err != nil {
		return nil, toErrno(err)
	}
	entries := make([]fuse.DirEntry, 0, len(sts))
	for _, st := range sts {
		entries = append(entries, fuse.DirEntry{
			Name: st.Name(),
			Mode: modeOf(st),
		})
	}
	return fs.NewListDirStream(entries), fs.OK
}

// fileNode exposes a file of the tree.
type fileNode struct {
	fs.Inode
	fsys *filesystem.FileSystem
	path string
}

var (
	_ = (fs.NodeGetattrer)((*fileNode)(nil))
	_ = (fs.NodeOpener)((*fileNode)(nil))
)

func (f *fileNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	st, err := f.fsys.GetFileStatus(f.path)
	if err != nil {
		return toErrno(err)
	}
	fillAttr(st, &out.Attr)
	return fs.OK
}

// Open snapshots the file content; the mount is read only.
func (f *fileNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&syscall.O_ACCMODE != syscall.O_RDONLY {
		return nil, 0, syscall.EROFS
	}
	r, err := f.fsys.Open(f.path)
	if err != nil {
		return nil, 0, toErrno(err)
	}
	return &fileHandle{r: r}, 0, fs.OK
}

type fileHandle struct {
	r *filesystem.Reader
}

var (
	_ = (fs.FileReader)((*fileHandle)(nil))
	_ = (fs.FileReleaser)((*fileHandle)(nil))
)

func (h *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := h.r.ReadAt(dest, off)
	// ReadAt reports io.EOF for short reads at the end of the snapshot
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, toErrno(err)
	}
	return fuse.ReadResultData(dest[:n]), fs.OK
}

func (h *fileHandle) Release(ctx context.Context) syscall.Errno {
	if err := h.r.Close(); err != nil {
		return toErrno(err)
	}
	return fs.OK
}

func modeOf(st filesystem.FileStatus) uint32 {
	if st.IsDir {
		return fuse.S_IFDIR | uint32(st.Permission)
	}
	return fuse.S_IFREG | uint32(st.Permission)
}

// fillAttr copies st into out. Owner names have no numeric IDs, so every
// node is reported as owned by the mounting process.
func fillAttr(st filesystem.FileStatus, out *fuse.Attr) {
	out.Mode = modeOf(st)
	out.Size = uint64(st.Length)
	out.Nlink = 1
	out.Owner = fuse.Owner{Uid: uint32(os.Getuid()), Gid: uint32(os.Getgid())}
}

func toErrno(err error) syscall.Errno {
	switch {
	case err == nil:
		return fs.OK
	case errors.Is(err, filesystem.ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, filesystem.ErrPermissionDenied):
		return syscall.EACCES
	case errors.Is(err, filesystem.ErrNotAFile):
		return syscall.EISDIR
	case errors.Is(err, filesystem.ErrNotADirectory):
		return syscall.ENOTDIR
	case errors.Is(err, filesystem.ErrInvalidArgument):
		return syscall.EINVAL
	case errors.Is(err, filesystem.ErrResourceBusy):
		return syscall.EBUSY
	default:
		return syscall.EIO
	}
}
