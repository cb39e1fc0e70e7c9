package filesystem

import "sync"

// Kind distinguishes the two node variants.
type Kind uint8

const (
	KindFile Kind = iota + 1
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "dir"
	default:
		return "unknown"
	}
}

// Node is an entry of a [Tree]. The concrete type is either *FileNode or
// *DirNode; callers type switch to reach the variant specific state.
type Node interface {
	Path() string
	Kind() Kind
	Permission() Permission
	Owner() string
	Group() string

	attrs() *nodeAttrs
}

var (
	_ Node = (*FileNode)(nil)
	_ Node = (*DirNode)(nil)
)

// nodeAttrs holds the fields common to every node variant.
type nodeAttrs struct {
	mu    sync.RWMutex // Protects the fields below
	path  string       // Absolute path; rewritten when the node is moved
	perm  Permission
	owner string
	group string
}

func (a *nodeAttrs) init(p string, perm Permission, owner string) {
	a.path = p
	a.perm = perm
	a.owner = owner
	a.group = DefaultGroup
}

func (a *nodeAttrs) attrs() *nodeAttrs { return a }

func (a *nodeAttrs) Path() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.path
}

func (a *nodeAttrs) setPath(p string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.path = p
}

func (a *nodeAttrs) Permission() Permission {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.perm
}

func (a *nodeAttrs) Owner() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.owner
}

func (a *nodeAttrs) Group() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.group
}

// setOwner updates owner and group; an empty value leaves that field unchanged.
func (a *nodeAttrs) setOwner(owner, group string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if owner != "" {
		a.owner = owner
	}
	if group != "" {
		a.group = group
	}
}
