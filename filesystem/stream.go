package filesystem

import (
	"bytes"
	"sync/atomic"

	"github.com/brettbedarf/memfs/internal/util"
	"github.com/google/uuid"
)

// Reader is a read handle over the content a file had when it was opened.
type Reader struct {
	path   string
	r      *bytes.Reader
	closed atomic.Bool
}

func newReader(p string, content []byte) *Reader {
	return &Reader{path: p, r: bytes.NewReader(content)}
}

func (r *Reader) Path() string { return r.path }

func (r *Reader) Read(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, pathErr("read", r.path, ErrClosed)
	}
	return r.r.Read(p)
}

func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if r.closed.Load() {
		return 0, pathErr("read", r.path, ErrClosed)
	}
	return r.r.ReadAt(p, off)
}

func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if r.closed.Load() {
		return 0, pathErr("seek", r.path, ErrClosed)
	}
	return r.r.Seek(offset, whence)
}

// Size returns the length of the snapshot.
func (r *Reader) Size() int64 { return r.r.Size() }

func (r *Reader) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return pathErr("close", r.path, ErrClosed)
	}
	return nil
}

// Statistics counts the bytes and write calls made through one handle.
type Statistics struct {
	scheme       string
	bytesWritten atomic.Int64
	writeOps     atomic.Int64
}

func newStatistics(scheme string) *Statistics {
	return &Statistics{scheme: scheme}
}

func (s *Statistics) Scheme() string      { return s.scheme }
func (s *Statistics) BytesWritten() int64 { return s.bytesWritten.Load() }
func (s *Statistics) WriteOps() int64     { return s.writeOps.Load() }

func (s *Statistics) recordWrite(n int) {
	s.bytesWritten.Add(int64(n))
	s.writeOps.Add(1)
}

// Writer appends to a file's content in place. The file counts as open, and
// therefore cannot be deleted, until Close is called.
type Writer struct {
	id     uuid.UUID
	path   string
	node   *FileNode
	stats  *Statistics
	closed atomic.Bool
}

func newWriter(node *FileNode, stats *Statistics) *Writer {
	node.acquireWriter()
	w := &Writer{
		id:    uuid.New(),
		path:  node.Path(),
		node:  node,
		stats: stats,
	}
	logger := util.GetLogger("Writer")
	logger.Trace().Str("handle", w.id.String()).Str("path", w.path).Msg("Opened write handle")
	return w
}

// ID identifies the handle in logs.
func (w *Writer) ID() uuid.UUID { return w.id }

// Path returns the path the file had when the handle was opened.
func (w *Writer) Path() string { return w.path }

// Statistics returns the byte counter of this handle.
func (w *Writer) Statistics() *Statistics { return w.stats }

func (w *Writer) Write(p []byte) (int, error) {
	if w.closed.Load() {
		return 0, pathErr("write", w.path, ErrClosed)
	}
	n := w.node.write(p)
	w.stats.recordWrite(n)
	return n, nil
}

func (w *Writer) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Close releases the handle. Closing twice returns ErrClosed.
func (w *Writer) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return pathErr("close", w.path, ErrClosed)
	}
	w.node.releaseWriter()

	logger := util.GetLogger("Writer")
	logger.Trace().
		Str("handle", w.id.String()).
		Str("path", w.path).
		Int64("bytes", w.stats.BytesWritten()).
		Msg("Closed write handle")
	return nil
}
