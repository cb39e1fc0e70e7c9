package filesystem

import (
	"maps"
	"slices"
	"sync"

	"github.com/brettbedarf/memfs/internal/util"
)

// Registry owns one [Tree] per identity. Trees are created lazily with an
// empty root directory on first access. Lookup, creation and reset are
// serialized by a single lock so two callers can never create divergent trees
// for the same identity.
type Registry struct {
	mu    sync.Mutex
	trees map[string]*Tree
}

func NewRegistry() *Registry {
	return &Registry{trees: make(map[string]*Tree)}
}

// Tree returns the tree for identity, creating it on first access.
func (r *Registry) Tree(identity string) *Tree {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.trees[identity]; ok {
		return t
	}
	t := newTree(identity)
	r.trees[identity] = t

	logger := util.GetLogger("Registry")
	logger.Debug().Str("identity", identity).Str("generation", t.generation.String()).Msg("Created tree")
	return t
}

// Lookup returns the tree for identity without creating it.
func (r *Registry) Lookup(identity string) (*Tree, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trees[identity]
	return t, ok
}

// Reset drops the tree for identity. Handles opened on it keep working
// against the detached nodes. Reports whether a tree was dropped.
func (r *Registry) Reset(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.trees[identity]
	delete(r.trees, identity)
	if ok {
		logger := util.GetLogger("Registry")
		logger.Info().Str("identity", identity).Msg("Reset tree")
	}
	return ok
}

// ResetAll drops every tree and returns how many were dropped.
func (r *Registry) ResetAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.trees)
	r.trees = make(map[string]*Tree)

	logger := util.GetLogger("Registry")
	logger.Info().Int("trees", n).Msg("Reset all trees")
	return n
}

// Identities returns the identities with a live tree in lexical order.
func (r *Registry) Identities() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.trees))
}
