package filesystem

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
)

// Tree maps absolute paths to the nodes of one file system identity.
//
// Individual map operations are safe for concurrent use, but compound
// mutations made by [FileSystem] (linking a child into its parent, moving a
// subtree, recursive deletes) are not serialized against each other. Callers
// sharing a directory across goroutines must coordinate themselves.
type Tree struct {
	identity   string
	generation uuid.UUID               // Distinguishes this tree from earlier ones dropped by a reset
	nodes      *xsync.Map[string, Node] // Absolute path to node
}

func newTree(identity string) *Tree {
	t := &Tree{
		identity:   identity,
		generation: uuid.New(),
		nodes:      xsync.NewMap[string, Node](),
	}
	t.nodes.Store(RootPath, newDirNode(RootPath, DefaultPermission, DefaultUser))
	return t
}

// Identity returns the key this tree was created for.
func (t *Tree) Identity() string { return t.identity }

// Generation returns the ID assigned when the tree was created.
func (t *Tree) Generation() uuid.UUID { return t.generation }

// Root returns the root directory.
func (t *Tree) Root() *DirNode {
	d, _ := t.dir(RootPath)
	return d
}

func (t *Tree) Get(p string) (Node, bool) {
	return t.nodes.Load(p)
}

func (t *Tree) Put(p string, n Node) {
	t.nodes.Store(p, n)
}

func (t *Tree) Contains(p string) bool {
	_, ok := t.nodes.Load(p)
	return ok
}

// Remove drops the entry for p and returns the removed node.
func (t *Tree) Remove(p string) (Node, bool) {
	return t.nodes.LoadAndDelete(p)
}

// Len returns the number of entries, the root included.
func (t *Tree) Len() int {
	return t.nodes.Size()
}

// Paths returns every mapped path in lexical order.
func (t *Tree) Paths() []string {
	paths := make([]string, 0, t.nodes.Size())
	t.nodes.Range(func(p string, _ Node) bool {
		paths = append(paths, p)
		return true
	})
	slices.Sort(paths)
	return paths
}

// Move re-keys the node at src, and every node below it, under dst. Each
// moved node has its path rewritten and moved directories have their child
// sets rebased. Parent linkage of src and dst is left to the caller.
func (t *Tree) Move(src, dst string) error {
	n, ok := t.nodes.Load(src)
	if !ok {
		return ErrNotFound
	}
	if t.Contains(dst) {
		return ErrAlreadyExists
	}
	if src == RootPath || IsWithin(dst, src) {
		return ErrInvalidArgument
	}

	moved := map[string]Node{src: n}
	prefix := src + Separator
	t.nodes.Range(func(p string, node Node) bool {
		if strings.HasPrefix(p, prefix) {
			moved[p] = node
		}
		return true
	})

	for p := range moved {
		t.nodes.Delete(p)
	}
	for p, node := range moved {
		np := rebase(p, src, dst)
		node.attrs().setPath(np)
		if d, isDir := node.(*DirNode); isDir {
			d.rebaseChildren(src, dst)
		}
		t.nodes.Store(np, node)
	}
	return nil
}

func (t *Tree) dir(p string) (*DirNode, bool) {
	n, ok := t.nodes.Load(p)
	if !ok {
		return nil, false
	}
	d, isDir := n.(*DirNode)
	return d, isDir
}
