package adapters

import (
	"fmt"
	"sync"
	"testing"

	"github.com/brettbedarf/memfs"
	"github.com/brettbedarf/memfs/config"
	"github.com/brettbedarf/memfs/filesystem"
	"github.com/brettbedarf/memfs/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegister_DuplicateKeepsFirst(t *testing.T) {
	t.Parallel()

	r := NewImplRegistry()
	r.Register("impl", memfs.New)
	r.Register("impl", memfs.NewLocal)

	f, err := r.Factory("impl")
	require.NoError(t, err)
	assert.Equal(t, memfs.Scheme, f(filesystem.NewRegistry()).Identity())
}

func TestFactory_Unknown(t *testing.T) {
	t.Parallel()

	_, err := NewImplRegistry().Factory("nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `no file system implementation registered for "nope"`)
}

func TestRegister_Concurrent(t *testing.T) {
	t.Parallel()
	var wg sync.WaitGroup
	r := NewImplRegistry()

	for i := range 100 {
		wg.Go(func() {
			name := fmt.Sprintf("impl%d", i)
			r.Register(name, memfs.New)
			_, err := r.Factory(name)
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	assert.Len(t, r.Names(), 100)
}

func TestRegisterBuiltins(t *testing.T) {
	t.Parallel()

	all := NewBuiltinRegistry()
	assert.Equal(t, []string{InMemoryImpl, LocalInMemoryImpl}, all.Names())

	only := NewImplRegistry()
	RegisterBuiltins(only, LocalInMemoryImpl, "unknown")
	assert.Equal(t, []string{LocalInMemoryImpl}, only.Names())
}

func TestConfigure(t *testing.T) {
	t.Parallel()

	s := config.NewMapSettings(nil)

	require.NoError(t, Configure(s))
	require.NoError(t, ConfigureLocal(s))

	assert.Equal(t, "memory:///", s.Get("fs.default.name"))
	assert.Equal(t, InMemoryImpl, s.Get("fs.memory.impl"))
	assert.Equal(t, LocalInMemoryImpl, s.Get("fs.file.impl"))

	assert.ErrorIs(t, Configure(nil), filesystem.ErrInvalidArgument)
	assert.ErrorIs(t, ConfigureLocal(nil), filesystem.ErrInvalidArgument)
}

func TestConfigure_SetsBothKeys(t *testing.T) {
	t.Parallel()

	s := &mocks.MockSettings{}
	s.On("Set", DefaultNameKey, memfs.Name).Once()
	s.On("Set", "fs.memory.impl", InMemoryImpl).Once()

	require.NoError(t, Configure(s))

	s.AssertExpectations(t)
}

func TestFromSettings(t *testing.T) {
	t.Parallel()

	r := NewBuiltinRegistry()
	reg := filesystem.NewRegistry()
	s := config.NewMapSettings(nil)
	require.NoError(t, Configure(s))

	fsys, err := r.FromSettings(reg, s, filesystem.WithUser("bob", "eng"))
	require.NoError(t, err)
	assert.Equal(t, memfs.Scheme, fsys.Identity())
	assert.Equal(t, "bob", fsys.User())
	assert.Same(t, reg, fsys.Registry())

	_, err = r.Local(reg, s)
	assert.ErrorIs(t, err, filesystem.ErrWrongFileSystem, "local impl not configured yet")

	require.NoError(t, ConfigureLocal(s))
	local, err := r.Local(reg, s)
	require.NoError(t, err)
	assert.Equal(t, LocalScheme, local.Identity())
}

func TestFromSettings_Errors(t *testing.T) {
	t.Parallel()

	r := NewBuiltinRegistry()
	reg := filesystem.NewRegistry()

	t.Run("NilSettings", func(t *testing.T) {
		t.Parallel()
		_, err := r.FromSettings(reg, nil)
		assert.ErrorIs(t, err, filesystem.ErrInvalidArgument)
	})

	t.Run("NoDefaultName", func(t *testing.T) {
		t.Parallel()
		s := &mocks.MockSettings{}
		s.On("Get", DefaultNameKey).Return("")

		_, err := r.FromSettings(reg, s)

		assert.ErrorIs(t, err, filesystem.ErrInvalidArgument)
		s.AssertExpectations(t)
	})

	t.Run("NoScheme", func(t *testing.T) {
		t.Parallel()
		s := config.NewMapSettings(map[string]string{DefaultNameKey: "/just/a/path"})
		_, err := r.FromSettings(reg, s)
		assert.ErrorIs(t, err, filesystem.ErrInvalidArgument)
	})

	t.Run("UnknownImpl", func(t *testing.T) {
		t.Parallel()
		s := &mocks.MockSettings{}
		s.On("Get", DefaultNameKey).Return("memory:///")
		s.On("Get", "fs.memory.impl").Return("some.OtherFileSystem")

		_, err := r.FromSettings(reg, s)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "some.OtherFileSystem")
		s.AssertExpectations(t)
	})
}

func TestGet(t *testing.T) {
	t.Parallel()

	s := &mocks.MockSettings{}
	s.On("Set", mock.Anything, mock.Anything)
	s.On("Get", DefaultNameKey).Return(memfs.Name)
	s.On("Get", "fs.memory.impl").Return(InMemoryImpl)

	fsys, err := NewBuiltinRegistry().Get(filesystem.NewRegistry(), s)

	require.NoError(t, err)
	assert.Equal(t, memfs.Name, fsys.URI())
	s.AssertNumberOfCalls(t, "Set", 2)
}

func TestResetSettings(t *testing.T) {
	t.Parallel()

	reg := filesystem.NewRegistry()
	s := config.NewMapSettings(nil)
	require.NoError(t, Configure(s))

	fsys, err := NewBuiltinRegistry().FromSettings(reg, s)
	require.NoError(t, err)
	require.NoError(t, memfs.CreateFile(fsys, "/x.txt", "x"))
	require.NoError(t, memfs.CreateFile(memfs.NewLocal(reg), "/local.txt", "l"))

	dropped, err := ResetSettings(reg, s)
	require.NoError(t, err)
	assert.True(t, dropped)
	assert.False(t, fsys.Exists("/x.txt"))
	assert.True(t, memfs.NewLocal(reg).Exists("/local.txt"), "only the default identity is reset")

	_, err = ResetSettings(reg, nil)
	assert.ErrorIs(t, err, filesystem.ErrInvalidArgument)
}
