// Package memfs provides an in-memory, POSIX-like file store for tests.
//
// Trees live in a [filesystem.Registry] keyed by identity, so any number of
// [filesystem.FileSystem] values bound to the same identity share one tree.
package memfs

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/brettbedarf/memfs/filesystem"
	"github.com/brettbedarf/memfs/internal/errors"
	"github.com/brettbedarf/memfs/internal/util"
	"golang.org/x/sync/errgroup"
)

const (
	Scheme      = filesystem.DefaultScheme
	LocalScheme = "file"

	// Name is the root URI of the default tree.
	Name = Scheme + ":///"
)

// copyReaders bounds how many source files Copy snapshots at once.
const copyReaders = 8

// New returns a FileSystem bound to the default "memory" tree of reg.
func New(reg *filesystem.Registry, opts ...filesystem.Option) *filesystem.FileSystem {
	return filesystem.New(reg, Scheme, opts...)
}

// NewLocal returns a FileSystem bound to the "file" tree of reg, standing in
// for the local disk of a process under test.
func NewLocal(reg *filesystem.Registry, opts ...filesystem.Option) *filesystem.FileSystem {
	return filesystem.New(reg, LocalScheme, opts...)
}

// CreateFile creates or overwrites the file at p with contents.
func CreateFile(fsys *filesystem.FileSystem, p string, contents string) error {
	return writeAll(fsys, p, []byte(contents))
}

// Copy copies the file or directory tree at srcPath of src into the
// directory dstParent of dst, keeping its base name. Source files are
// snapshotted concurrently before anything is written to dst.
func Copy(ctx context.Context, src *filesystem.FileSystem, srcPath string, dst *filesystem.FileSystem, dstParent string) error {
	logger := util.GetLogger("Copy")

	top, err := src.GetFileStatus(srcPath)
	if err != nil {
		return err
	}
	var entries []filesystem.FileStatus
	err = src.Walk(top.Path, func(st filesystem.FileStatus, err error) error {
		if err != nil {
			return err
		}
		entries = append(entries, st)
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "failed to list %s", top.Path)
	}

	contents := make([][]byte, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(copyReaders)
	for i, st := range entries {
		if st.IsDir {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := src.Open(st.Path)
			if err != nil {
				return err
			}
			defer r.Close()
			contents[i], err = io.ReadAll(r)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrapf(err, "failed to read %s", top.Path)
	}

	base := path.Join(dstParent, top.Name())
	if err := dst.Mkdirs(dstParent); err != nil {
		return err
	}
	for i, st := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := path.Join(base, strings.TrimPrefix(st.Path, top.Path))
		if st.IsDir {
			if err := dst.Mkdirs(target); err != nil {
				return err
			}
			continue
		}
		if err := writeAll(dst, target, contents[i]); err != nil {
			return err
		}
		logger.Debug().
			Str("src", src.URI()+strings.TrimPrefix(st.Path, filesystem.RootPath)).
			Str("dst", dst.URI()+strings.TrimPrefix(target, filesystem.RootPath)).
			Int("bytes", len(contents[i])).
			Msg("Copied file")
	}
	return nil
}

func writeAll(fsys *filesystem.FileSystem, p string, b []byte) (err error) {
	w, err := fsys.Create(p)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = w.Write(b)
	return err
}
