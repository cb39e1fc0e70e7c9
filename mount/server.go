// Package mount serves a FileSystem as a read-only FUSE mount.
package mount

import (
	"time"

	"github.com/brettbedarf/memfs/config"
	"github.com/brettbedarf/memfs/filesystem"
	"github.com/brettbedarf/memfs/internal/errors"
	"github.com/brettbedarf/memfs/internal/util"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Server wraps the underlying fuse.Server.
type Server struct {
	server     *fuse.Server
	mountPoint string
}

// Mount mounts fsys at mountPoint and returns once the mount is ready.
// Entry and attribute caching is disabled so the mount follows the tree.
func Mount(fsys *filesystem.FileSystem, mountPoint string, opts config.MountOptions, lvl util.LogLevel) (*Server, error) {
	logger := util.GetLogger("Mount")

	root := &dirNode{fsys: fsys, path: filesystem.RootPath}
	noCache := time.Duration(0)
	fuseOpts := &fs.Options{
		MountOptions: fuse.MountOptions{
			FsName: opts.FsName,
			Name:   opts.Name,
			Debug:  opts.Debug,
			Logger: util.NewLogLogger("FuseServer", lvl),
		},
		EntryTimeout:    &noCache,
		AttrTimeout:     &noCache,
		NegativeTimeout: &noCache,
	}

	srv, err := fs.Mount(mountPoint, root, fuseOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to mount %s at %s", fsys.URI(), mountPoint)
	}
	logger.Info().Str("uri", fsys.URI()).Str("mount_point", mountPoint).Msg("Mounted")
	return &Server{server: srv, mountPoint: mountPoint}, nil
}

func (s *Server) MountPoint() string { return s.mountPoint }

// Wait blocks until the file system is unmounted.
func (s *Server) Wait() {
	s.server.Wait()
}

// Unmount cleanly unmounts the filesystem.
func (s *Server) Unmount() error {
	logger := util.GetLogger("Mount")
	logger.Info().Str("mount_point", s.mountPoint).Msg("Unmounting")
	return s.server.Unmount()
}
