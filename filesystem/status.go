package filesystem

import (
	"io/fs"
)

// FileStatus is a point in time snapshot of a node's metadata.
type FileStatus struct {
	Path       string
	Length     int64 // Content size; 0 for directories
	IsDir      bool
	Permission Permission
	Owner      string
	Group      string
}

// Name returns the last element of the path.
func (s FileStatus) Name() string {
	return Base(s.Path)
}

// Mode returns the io/fs mode, including the directory bit.
func (s FileStatus) Mode() fs.FileMode {
	mode := s.Permission.FileMode()
	if s.IsDir {
		mode |= fs.ModeDir
	}
	return mode
}

func statusOf(p string, n Node) FileStatus {
	st := FileStatus{
		Path:       p,
		Permission: n.Permission(),
		Owner:      n.Owner(),
		Group:      n.Group(),
	}
	switch n := n.(type) {
	case *FileNode:
		st.Length = n.Len()
	case *DirNode:
		st.IsDir = true
	}
	return st
}
