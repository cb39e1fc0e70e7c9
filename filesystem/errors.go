package filesystem

import (
	"errors"
	"io/fs"
)

// Error kinds reported by [FileSystem] operations. Every failure is returned
// as an *fs.PathError whose Err matches one of these with errors.Is.
var (
	ErrInvalidArgument  = fs.ErrInvalid
	ErrNotFound         = fs.ErrNotExist
	ErrAlreadyExists    = fs.ErrExist
	ErrPermissionDenied = fs.ErrPermission
	ErrClosed           = fs.ErrClosed

	ErrNotAFile        = errors.New("not a file")
	ErrNotADirectory   = errors.New("not a directory")
	ErrNotEmpty        = errors.New("directory not empty")
	ErrResourceBusy    = errors.New("resource is in use")
	ErrWrongFileSystem = errors.New("wrong file system")
)

func pathErr(op, path string, err error) error {
	return &fs.PathError{Op: op, Path: path, Err: err}
}
