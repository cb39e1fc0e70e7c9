// Package adapters binds file system implementations to the string settings
// a host framework uses to pick its default and local file systems.
package adapters

import (
	"maps"
	"slices"
	"sync"

	"github.com/brettbedarf/memfs/config"
	"github.com/brettbedarf/memfs/filesystem"
	"github.com/brettbedarf/memfs/internal/errors"
)

// Factory builds a FileSystem over reg.
type Factory func(reg *filesystem.Registry, opts ...filesystem.Option) *filesystem.FileSystem

// ImplRegistry maps implementation names, as stored under "fs.<scheme>.impl"
// settings keys, to their factories.
type ImplRegistry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewImplRegistry() *ImplRegistry {
	return &ImplRegistry{factories: make(map[string]Factory)}
}

// Register ties a factory to an implementation name. The first registration
// of a name wins; later ones are ignored.
func (r *ImplRegistry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return
	}
	r.factories[name] = f
}

// Factory returns the factory registered for name.
func (r *ImplRegistry) Factory(name string) (Factory, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("no file system implementation registered for %q", name)
	}
	return f, nil
}

// Names returns the registered implementation names in lexical order.
func (r *ImplRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// FromSettings builds the default file system named by the DefaultNameKey
// setting, using the implementation configured for its scheme.
func (r *ImplRegistry) FromSettings(reg *filesystem.Registry, s config.Settings, opts ...filesystem.Option) (*filesystem.FileSystem, error) {
	if s == nil {
		return nil, errors.Wrap(filesystem.ErrInvalidArgument, "settings must not be nil")
	}
	name := s.Get(DefaultNameKey)
	if name == "" {
		return nil, errors.Wrapf(filesystem.ErrInvalidArgument, "%s is not set", DefaultNameKey)
	}
	return r.ForURI(reg, s, name, opts...)
}

// ForURI builds the file system serving uri, using the implementation
// configured for its scheme.
func (r *ImplRegistry) ForURI(reg *filesystem.Registry, s config.Settings, uri string, opts ...filesystem.Option) (*filesystem.FileSystem, error) {
	if s == nil {
		return nil, errors.Wrap(filesystem.ErrInvalidArgument, "settings must not be nil")
	}
	scheme, _ := filesystem.SplitScheme(uri)
	if scheme == "" {
		return nil, errors.Wrapf(filesystem.ErrInvalidArgument, "%q has no scheme", uri)
	}
	impl := s.Get(ImplKey(scheme))
	if impl == "" {
		return nil, errors.Wrapf(filesystem.ErrWrongFileSystem, "%s is not set", ImplKey(scheme))
	}
	f, err := r.Factory(impl)
	if err != nil {
		return nil, err
	}
	return f(reg, opts...), nil
}

// Local builds the file system configured for the "file" scheme.
func (r *ImplRegistry) Local(reg *filesystem.Registry, s config.Settings, opts ...filesystem.Option) (*filesystem.FileSystem, error) {
	return r.ForURI(reg, s, LocalScheme+":///", opts...)
}

// Get installs the in-memory file system as the default in s and returns an
// instance of it.
func (r *ImplRegistry) Get(reg *filesystem.Registry, s config.Settings, opts ...filesystem.Option) (*filesystem.FileSystem, error) {
	if err := Configure(s); err != nil {
		return nil, err
	}
	return r.FromSettings(reg, s, opts...)
}
