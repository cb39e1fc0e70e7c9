package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/brettbedarf/memfs/internal/util"
)

const (
	DefaultScheme = "memory"
	DefaultUser   = "root"
	DefaultGroup  = "test"
)

// SkipDir is returned by a [WalkFunc] to skip the contents of a directory.
var SkipDir = fs.SkipDir

// FileSystem is the operation surface over the [Tree] of one identity. It
// holds no nodes itself; the tree is fetched from the [Registry] on every
// call, so a reset is observed by the next operation.
type FileSystem struct {
	reg      *Registry
	identity string

	mu     sync.RWMutex // Protects the fields below
	user   string
	groups []string
	wd     string
}

type Option func(*FileSystem)

// WithUser sets the acting user and, when given, its groups.
func WithUser(user string, groups ...string) Option {
	return func(f *FileSystem) {
		f.user = user
		if len(groups) > 0 {
			f.groups = slices.Clone(groups)
		}
	}
}

// New binds a FileSystem to the tree of identity in reg.
func New(reg *Registry, identity string, opts ...Option) *FileSystem {
	f := &FileSystem{
		reg:      reg,
		identity: identity,
		user:     DefaultUser,
		groups:   []string{DefaultGroup},
		wd:       RootPath,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type createOptions struct {
	perm      Permission
	overwrite bool
}

// CreateOption tunes [FileSystem.Create] and [FileSystem.Mkdirs].
type CreateOption func(*createOptions)

// WithPermission sets the permission of the created node and of any missing
// parent directories created along the way.
func WithPermission(p Permission) CreateOption {
	return func(o *createOptions) { o.perm = p }
}

// WithOverwrite controls whether Create may replace an existing file.
// Overwriting is allowed by default.
func WithOverwrite(overwrite bool) CreateOption {
	return func(o *createOptions) { o.overwrite = overwrite }
}

func newCreateOptions(opts []CreateOption) createOptions {
	o := createOptions{perm: DefaultPermission, overwrite: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (f *FileSystem) Identity() string { return f.identity }

// URI returns the root URI of this file system, i.e. "memory:///".
func (f *FileSystem) URI() string { return f.identity + ":///" }

// Registry returns the registry the file system is bound to.
func (f *FileSystem) Registry() *Registry { return f.reg }

func (f *FileSystem) tree() *Tree { return f.reg.Tree(f.identity) }

func (f *FileSystem) User() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.user
}

func (f *FileSystem) Groups() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.groups)
}

func (f *FileSystem) caller() (string, []string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.user, f.groups
}

// SetUser changes the identity used for subsequent permission checks. The
// group set is replaced only when at least one group is given.
func (f *FileSystem) SetUser(user string, groups ...string) error {
	if strings.TrimSpace(user) == "" {
		return pathErr("setuser", user, ErrInvalidArgument)
	}
	for _, g := range groups {
		if strings.TrimSpace(g) == "" {
			return pathErr("setuser", user, fmt.Errorf("%w: blank group name", ErrInvalidArgument))
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = user
	if len(groups) > 0 {
		f.groups = slices.Clone(groups)
	}
	return nil
}

func (f *FileSystem) WorkingDirectory() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.wd
}

// SetWorkingDirectory makes name, which must be an existing directory, the
// base for relative paths.
func (f *FileSystem) SetWorkingDirectory(name string) error {
	p, err := f.resolve("chdir", name)
	if err != nil {
		return err
	}
	n, ok := f.tree().Get(p)
	if !ok {
		return pathErr("chdir", p, fmt.Errorf("%w: %w", ErrInvalidArgument, ErrNotFound))
	}
	if n.Kind() != KindDirectory {
		return pathErr("chdir", p, fmt.Errorf("%w: %w", ErrInvalidArgument, ErrNotADirectory))
	}

	f.mu.Lock()
	f.wd = p
	f.mu.Unlock()
	return nil
}

// resolve turns name into a cleaned absolute path. A scheme prefix is dropped.
func (f *FileSystem) resolve(op, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", pathErr(op, name, ErrInvalidArgument)
	}
	_, p := SplitScheme(name)
	if !path.IsAbs(p) {
		p = path.Join(f.WorkingDirectory(), p)
	}
	return path.Clean(p), nil
}

func (f *FileSystem) check(op, p string, n Node, action Action) error {
	user, groups := f.caller()
	if CheckPermission(n, action, user, groups) {
		return nil
	}
	logger := util.GetLogger("FileSystem")
	logger.Debug().
		Str("op", op).
		Str("path", p).
		Str("user", user).
		Str("action", action.String()).
		Str("perm", n.Permission().String()).
		Msg("Permission denied")
	return pathErr(op, p, ErrPermissionDenied)
}

// ancestorDir returns the nearest existing node at or above p.
func (f *FileSystem) ancestorDir(t *Tree, op, p string) (*DirNode, error) {
	for cur := p; cur != ""; cur = Parent(cur) {
		n, ok := t.Get(cur)
		if !ok {
			continue
		}
		d, isDir := n.(*DirNode)
		if !isDir {
			return nil, pathErr(op, cur, ErrNotADirectory)
		}
		return d, nil
	}
	// The root always exists
	return t.Root(), nil
}

// checkAncestor requires WRITE on the nearest existing ancestor of p.
func (f *FileSystem) checkAncestor(t *Tree, op, p string) error {
	d, err := f.ancestorDir(t, op, Parent(p))
	if err != nil {
		return err
	}
	return f.check(op, d.Path(), d, ActionWrite)
}

// makeDirs creates every missing directory from the root down to p and links
// each one into its parent.
func (f *FileSystem) makeDirs(t *Tree, op, p string, perm Permission) (*DirNode, error) {
	var missing []string
	cur := p
	for ; cur != ""; cur = Parent(cur) {
		n, ok := t.Get(cur)
		if !ok {
			missing = append(missing, cur)
			continue
		}
		if _, isDir := n.(*DirNode); !isDir {
			return nil, pathErr(op, cur, ErrNotADirectory)
		}
		break
	}

	parent, _ := t.dir(cur)
	user, _ := f.caller()
	logger := util.GetLogger("FileSystem.Mkdirs")
	for i := len(missing) - 1; i >= 0; i-- {
		d := newDirNode(missing[i], perm, user)
		t.Put(missing[i], d)
		parent.addChild(missing[i], KindDirectory)
		parent = d
		logger.Debug().Str("path", missing[i]).Str("perm", perm.String()).Msg("Created directory")
	}
	return parent, nil
}

// Open returns a read handle over the current content of the file at name.
func (f *FileSystem) Open(name string) (*Reader, error) {
	p, err := f.resolve("open", name)
	if err != nil {
		return nil, err
	}
	n, ok := f.tree().Get(p)
	if !ok {
		return nil, pathErr("open", p, ErrNotFound)
	}
	file, isFile := n.(*FileNode)
	if !isFile {
		return nil, pathErr("open", p, ErrNotAFile)
	}
	if err := f.check("open", p, n, ActionRead); err != nil {
		return nil, err
	}
	return newReader(p, file.Bytes()), nil
}

// Create makes a file at name and returns a write handle over its empty
// content. Missing parents are created with the same permission as the file.
// Overwriting registers a fresh node owned by the caller; handles still open
// on the old node are detached from the tree.
func (f *FileSystem) Create(name string, opts ...CreateOption) (*Writer, error) {
	if scheme, _ := SplitScheme(name); scheme != "" && scheme != f.identity {
		return nil, pathErr("create", name, fmt.Errorf("%w: %q, expected %q", ErrWrongFileSystem, scheme, f.identity))
	}
	p, err := f.resolve("create", name)
	if err != nil {
		return nil, err
	}
	if p == RootPath {
		return nil, pathErr("create", p, ErrNotAFile)
	}
	o := newCreateOptions(opts)
	t := f.tree()

	if err := f.checkAncestor(t, "create", p); err != nil {
		return nil, err
	}
	if n, ok := t.Get(p); ok {
		file, isFile := n.(*FileNode)
		if !isFile {
			return nil, pathErr("create", p, fmt.Errorf("%w: can't overwrite a directory with a file", ErrNotAFile))
		}
		if !o.overwrite {
			return nil, pathErr("create", p, ErrAlreadyExists)
		}
		user, _ := f.caller()
		replaced := newFileNode(p, o.perm, user)
		t.Put(p, replaced)

		logger := util.GetLogger("FileSystem.Create")
		logger.Debug().Str("path", p).Str("perm", o.perm.String()).Str("owner", user).
			Int("detached_writers", file.OpenWriters()).Msg("Overwrote file")
		return newWriter(replaced, newStatistics(f.identity)), nil
	}

	parent, err := f.makeDirs(t, "create", Parent(p), o.perm)
	if err != nil {
		return nil, err
	}
	user, _ := f.caller()
	file := newFileNode(p, o.perm, user)
	t.Put(p, file)
	parent.addChild(p, KindFile)

	logger := util.GetLogger("FileSystem.Create")
	logger.Debug().Str("path", p).Str("perm", o.perm.String()).Str("owner", user).Msg("Created file")
	return newWriter(file, newStatistics(f.identity)), nil
}

// Append returns a write handle that adds to the end of the file at name.
func (f *FileSystem) Append(name string) (*Writer, error) {
	p, err := f.resolve("append", name)
	if err != nil {
		return nil, err
	}
	n, ok := f.tree().Get(p)
	if !ok {
		return nil, pathErr("append", p, ErrNotFound)
	}
	file, isFile := n.(*FileNode)
	if !isFile {
		return nil, pathErr("append", p, ErrNotAFile)
	}
	if err := f.check("append", p, n, ActionWrite); err != nil {
		return nil, err
	}
	return newWriter(file, newStatistics(f.identity)), nil
}

// Rename moves the node at src, with everything below it, to dst.
func (f *FileSystem) Rename(src, dst string) error {
	sp, err := f.resolve("rename", src)
	if err != nil {
		return err
	}
	dp, err := f.resolve("rename", dst)
	if err != nil {
		return err
	}
	t := f.tree()

	if t.Contains(dp) {
		return pathErr("rename", dp, ErrAlreadyExists)
	}
	n, ok := t.Get(sp)
	if !ok {
		return pathErr("rename", sp, ErrNotFound)
	}
	if err := f.check("rename", sp, n, ActionWrite); err != nil {
		return err
	}
	if sp == RootPath || IsWithin(dp, sp) {
		return pathErr("rename", dp, fmt.Errorf("%w: cannot move %s below itself", ErrInvalidArgument, sp))
	}
	if err := f.checkAncestor(t, "rename", dp); err != nil {
		return err
	}

	newParent, err := f.makeDirs(t, "rename", Parent(dp), DefaultPermission)
	if err != nil {
		return err
	}
	if err := t.Move(sp, dp); err != nil {
		return pathErr("rename", sp, err)
	}
	if oldParent, ok := t.dir(Parent(sp)); ok {
		oldParent.removeChild(sp)
	}
	newParent.addChild(dp, n.Kind())

	logger := util.GetLogger("FileSystem.Rename")
	logger.Debug().Str("src", sp).Str("dst", dp).Msg("Renamed")
	return nil
}

// Delete removes the node at name. A directory with children requires
// recursive. A recursive delete stops at the first file that is open for
// writing and leaves whatever it already removed deleted.
func (f *FileSystem) Delete(name string, recursive bool) error {
	p, err := f.resolve("delete", name)
	if err != nil {
		return err
	}
	t := f.tree()
	n, ok := t.Get(p)
	if !ok {
		return pathErr("delete", p, ErrNotFound)
	}
	if err := f.check("delete", p, n, ActionWrite); err != nil {
		return err
	}

	switch n := n.(type) {
	case *FileNode:
		if n.IsOpen() {
			return pathErr("delete", p, ErrResourceBusy)
		}
	case *DirNode:
		if !n.IsEmpty() {
			// Any child, file or directory, blocks a non-recursive delete.
			if !recursive {
				return pathErr("delete", p, ErrNotEmpty)
			}
			if err := f.deleteContents(t, n); err != nil {
				logger := util.GetLogger("FileSystem.Delete")
				logger.Warn().Err(err).Str("path", p).Msg("Recursive delete stopped part way")
				return err
			}
		}
		if p == RootPath {
			return nil
		}
	}

	f.unlink(t, p)
	logger := util.GetLogger("FileSystem.Delete")
	logger.Debug().Str("path", p).Bool("recursive", recursive).Msg("Deleted")
	return nil
}

// deleteContents removes subdirectories depth first, then files. There is no
// rollback on failure.
func (f *FileSystem) deleteContents(t *Tree, d *DirNode) error {
	for _, sub := range d.Dirs() {
		n, ok := t.Get(sub)
		if !ok {
			d.removeChild(sub)
			continue
		}
		if err := f.check("delete", sub, n, ActionWrite); err != nil {
			return err
		}
		if sd, isDir := n.(*DirNode); isDir {
			if err := f.deleteContents(t, sd); err != nil {
				return err
			}
		}
		f.unlink(t, sub)
	}
	for _, p := range d.Files() {
		n, ok := t.Get(p)
		if !ok {
			d.removeChild(p)
			continue
		}
		if file, isFile := n.(*FileNode); isFile && file.IsOpen() {
			return pathErr("delete", p, ErrResourceBusy)
		}
		f.unlink(t, p)
	}
	return nil
}

func (f *FileSystem) unlink(t *Tree, p string) {
	t.Remove(p)
	if parent, ok := t.dir(Parent(p)); ok {
		parent.removeChild(p)
	}
}

// Mkdirs creates the directory at name along with any missing parents. It
// succeeds without change when the directory already exists.
func (f *FileSystem) Mkdirs(name string, opts ...CreateOption) error {
	p, err := f.resolve("mkdir", name)
	if err != nil {
		return err
	}
	t := f.tree()
	if n, ok := t.Get(p); ok {
		if n.Kind() != KindDirectory {
			return pathErr("mkdir", p, ErrNotADirectory)
		}
		return nil
	}
	if err := f.checkAncestor(t, "mkdir", p); err != nil {
		return err
	}
	_, err = f.makeDirs(t, "mkdir", p, newCreateOptions(opts).perm)
	return err
}

// ListStatus returns the status of the file at name, or of every immediate
// child of the directory at name, directories first.
func (f *FileSystem) ListStatus(name string) ([]FileStatus, error) {
	p, err := f.resolve("list", name)
	if err != nil {
		return nil, err
	}
	t := f.tree()
	n, ok := t.Get(p)
	if !ok {
		return nil, pathErr("list", p, ErrNotFound)
	}
	if err := f.check("list", p, n, ActionRead); err != nil {
		return nil, err
	}

	d, isDir := n.(*DirNode)
	if !isDir {
		return []FileStatus{statusOf(p, n)}, nil
	}
	children := append(d.Dirs(), d.Files()...)
	statuses := make([]FileStatus, 0, len(children))
	for _, c := range children {
		if cn, ok := t.Get(c); ok {
			statuses = append(statuses, statusOf(c, cn))
		}
	}
	return statuses, nil
}

// GetFileStatus returns the metadata of the node at name.
func (f *FileSystem) GetFileStatus(name string) (FileStatus, error) {
	p, err := f.resolve("stat", name)
	if err != nil {
		return FileStatus{}, err
	}
	n, ok := f.tree().Get(p)
	if !ok {
		return FileStatus{}, pathErr("stat", p, ErrNotFound)
	}
	return statusOf(p, n), nil
}

// Exists reports whether name maps to a node.
func (f *FileSystem) Exists(name string) bool {
	p, err := f.resolve("stat", name)
	if err != nil {
		return false
	}
	return f.tree().Contains(p)
}

// SetOwner changes the owner and group of the node at name. An empty user or
// group leaves that attribute unchanged.
func (f *FileSystem) SetOwner(name, user, group string) error {
	p, err := f.resolve("chown", name)
	if err != nil {
		return err
	}
	n, ok := f.tree().Get(p)
	if !ok {
		return pathErr("chown", p, ErrNotFound)
	}
	n.attrs().setOwner(user, group)

	logger := util.GetLogger("FileSystem.SetOwner")
	logger.Debug().Str("path", p).Str("owner", n.Owner()).Str("group", n.Group()).Msg("Changed owner")
	return nil
}

// Access reports whether the acting user may perform action on name.
func (f *FileSystem) Access(name string, action Action) error {
	p, err := f.resolve("access", name)
	if err != nil {
		return err
	}
	n, ok := f.tree().Get(p)
	if !ok {
		return pathErr("access", p, ErrNotFound)
	}
	return f.check("access", p, n, action)
}

// WalkFunc is called for every node visited by [FileSystem.Walk]. Returning
// SkipDir from a directory skips its contents.
type WalkFunc func(st FileStatus, err error) error

// Walk visits root and everything below it depth first, directories before
// files, each group in lexical order. Nodes are visited regardless of
// permission.
func (f *FileSystem) Walk(name string, fn WalkFunc) error {
	p, err := f.resolve("walk", name)
	if err != nil {
		return fn(FileStatus{Path: name}, err)
	}
	t := f.tree()
	n, ok := t.Get(p)
	if !ok {
		return fn(FileStatus{Path: p}, pathErr("walk", p, ErrNotFound))
	}
	err = f.walk(t, p, n, fn)
	if errors.Is(err, SkipDir) {
		return nil
	}
	return err
}

func (f *FileSystem) walk(t *Tree, p string, n Node, fn WalkFunc) error {
	if err := fn(statusOf(p, n), nil); err != nil {
		return err
	}
	d, isDir := n.(*DirNode)
	if !isDir {
		return nil
	}
	for _, c := range append(d.Dirs(), d.Files()...) {
		cn, ok := t.Get(c)
		if !ok {
			continue
		}
		err := f.walk(t, c, cn, fn)
		if err != nil && !(errors.Is(err, SkipDir) && cn.Kind() == KindDirectory) {
			return err
		}
	}
	return nil
}
