package filesystem

import (
	"bytes"
	"sync"
	"sync/atomic"
)

// FileNode is a regular file holding its content in memory.
type FileNode struct {
	nodeAttrs
	dataMu  sync.RWMutex // Protects content
	content []byte
	writers atomic.Int32 // Outstanding write handles
}

func newFileNode(p string, perm Permission, owner string) *FileNode {
	n := &FileNode{}
	n.init(p, perm, owner)
	return n
}

func (n *FileNode) Kind() Kind { return KindFile }

// Len returns the content size in bytes.
func (n *FileNode) Len() int64 {
	n.dataMu.RLock()
	defer n.dataMu.RUnlock()
	return int64(len(n.content))
}

// Bytes returns a copy of the current content.
func (n *FileNode) Bytes() []byte {
	n.dataMu.RLock()
	defer n.dataMu.RUnlock()
	return bytes.Clone(n.content)
}

// IsOpen reports whether a write handle is outstanding.
func (n *FileNode) IsOpen() bool {
	return n.writers.Load() > 0
}

// OpenWriters returns the number of outstanding write handles.
func (n *FileNode) OpenWriters() int {
	return int(n.writers.Load())
}

func (n *FileNode) write(p []byte) int {
	n.dataMu.Lock()
	defer n.dataMu.Unlock()
	n.content = append(n.content, p...)
	return len(p)
}

func (n *FileNode) acquireWriter() { n.writers.Add(1) }

func (n *FileNode) releaseWriter() { n.writers.Add(-1) }
