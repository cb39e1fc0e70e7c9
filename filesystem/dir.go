package filesystem

import (
	"slices"

	"github.com/puzpuzpuz/xsync/v4"
)

// DirNode is a directory. It records the absolute paths of its immediate
// children; every recorded path must also be present in the owning [Tree].
type DirNode struct {
	nodeAttrs
	files *xsync.Map[string, struct{}]
	dirs  *xsync.Map[string, struct{}]
}

func newDirNode(p string, perm Permission, owner string) *DirNode {
	n := &DirNode{
		files: xsync.NewMap[string, struct{}](),
		dirs:  xsync.NewMap[string, struct{}](),
	}
	n.init(p, perm, owner)
	return n
}

func (n *DirNode) Kind() Kind { return KindDirectory }

// Files returns the paths of the child files in lexical order.
func (n *DirNode) Files() []string {
	return sortedKeys(n.files)
}

// Dirs returns the paths of the child directories in lexical order.
func (n *DirNode) Dirs() []string {
	return sortedKeys(n.dirs)
}

// IsEmpty reports whether the directory has no children at all.
func (n *DirNode) IsEmpty() bool {
	return n.files.Size() == 0 && n.dirs.Size() == 0
}

func (n *DirNode) addChild(p string, kind Kind) {
	switch kind {
	case KindFile:
		n.files.Store(p, struct{}{})
	case KindDirectory:
		n.dirs.Store(p, struct{}{})
	}
}

func (n *DirNode) removeChild(p string) {
	n.files.Delete(p)
	n.dirs.Delete(p)
}

// rebaseChildren rewrites every recorded child path from below from to below to.
func (n *DirNode) rebaseChildren(from, to string) {
	for _, set := range []*xsync.Map[string, struct{}]{n.files, n.dirs} {
		for _, p := range sortedKeys(set) {
			set.Delete(p)
			set.Store(rebase(p, from, to), struct{}{})
		}
	}
}

func sortedKeys(m *xsync.Map[string, struct{}]) []string {
	keys := make([]string, 0, m.Size())
	m.Range(func(k string, _ struct{}) bool {
		keys = append(keys, k)
		return true
	})
	slices.Sort(keys)
	return keys
}
