package errors

import (
	"github.com/pkg/errors"
)

var (
	As        = errors.As
	Cause     = errors.Cause
	Errorf    = errors.Errorf
	Is        = errors.Is
	New       = errors.New
	WithStack = errors.WithStack
	Wrap      = errors.Wrap
	Wrapf     = errors.Wrapf
)
