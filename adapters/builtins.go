package adapters

import (
	"github.com/brettbedarf/memfs"
	"github.com/brettbedarf/memfs/config"
	"github.com/brettbedarf/memfs/filesystem"
	"github.com/brettbedarf/memfs/internal/errors"
	"github.com/brettbedarf/memfs/internal/util"
)

// Settings keys and implementation names understood by the host framework.
const (
	DefaultNameKey = "fs.default.name"

	InMemoryImpl      = "memfs.InMemoryFileSystem"
	LocalInMemoryImpl = "memfs.LocalInMemoryFileSystem"

	LocalScheme = memfs.LocalScheme
)

// ImplKey returns the settings key naming the implementation for scheme.
func ImplKey(scheme string) string {
	return "fs." + scheme + ".impl"
}

// RegisterBuiltins registers all built-in implementations by default or only
// the named ones.
func RegisterBuiltins(r *ImplRegistry, names ...string) {
	if len(names) == 0 {
		names = []string{InMemoryImpl, LocalInMemoryImpl}
	}
	for _, name := range names {
		switch name {
		case InMemoryImpl:
			r.Register(name, memfs.New)
		case LocalInMemoryImpl:
			r.Register(name, memfs.NewLocal)
		}
	}
}

// NewBuiltinRegistry returns a registry holding every built-in implementation.
func NewBuiltinRegistry() *ImplRegistry {
	r := NewImplRegistry()
	RegisterBuiltins(r)
	return r
}

// Configure makes the in-memory file system the default of s.
func Configure(s config.Settings) error {
	if s == nil {
		return errors.Wrap(filesystem.ErrInvalidArgument, "settings must not be nil")
	}
	s.Set(DefaultNameKey, memfs.Name)
	s.Set(ImplKey(memfs.Scheme), InMemoryImpl)
	return nil
}

// ConfigureLocal makes the in-memory file system stand in for the local disk
// of s.
func ConfigureLocal(s config.Settings) error {
	if s == nil {
		return errors.Wrap(filesystem.ErrInvalidArgument, "settings must not be nil")
	}
	s.Set(ImplKey(LocalScheme), LocalInMemoryImpl)
	return nil
}

// ResetSettings drops the tree of the default file system named by s. It
// reports whether a tree was dropped.
func ResetSettings(reg *filesystem.Registry, s config.Settings) (bool, error) {
	if s == nil {
		return false, errors.Wrap(filesystem.ErrInvalidArgument, "settings must not be nil")
	}
	scheme, _ := filesystem.SplitScheme(s.Get(DefaultNameKey))
	if scheme == "" {
		scheme = memfs.Scheme
	}
	dropped := reg.Reset(scheme)

	logger := util.GetLogger("ResetSettings")
	logger.Debug().Str("identity", scheme).Bool("dropped", dropped).Msg("Reset default file system")
	return dropped, nil
}
