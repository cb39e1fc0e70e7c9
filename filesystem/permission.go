package filesystem

import (
	"io/fs"
	"slices"
)

// Action is a set of rwx bits for one permission class.
type Action uint8

const (
	ActionNone    Action = 0
	ActionExecute Action = 1
	ActionWrite   Action = 2
	ActionRead    Action = 4
	ActionAll            = ActionRead | ActionWrite | ActionExecute
)

// Implies reports whether every bit of other is also set in a.
func (a Action) Implies(other Action) bool {
	return a&other == other
}

// String renders the action in ls style, i.e. "r-x".
func (a Action) String() string {
	b := []byte("---")
	if a&ActionRead != 0 {
		b[0] = 'r'
	}
	if a&ActionWrite != 0 {
		b[1] = 'w'
	}
	if a&ActionExecute != 0 {
		b[2] = 'x'
	}
	return string(b)
}

// Permission holds the 9 owner/group/other permission bits of a node.
type Permission uint16

// DefaultPermission is applied whenever no permission is supplied.
const DefaultPermission Permission = 0o777

// NewPermission assembles a Permission from its three classes.
func NewPermission(owner, group, other Action) Permission {
	return Permission(owner&ActionAll)<<6 | Permission(group&ActionAll)<<3 | Permission(other&ActionAll)
}

func (p Permission) Owner() Action { return Action(p>>6) & ActionAll }
func (p Permission) Group() Action { return Action(p>>3) & ActionAll }
func (p Permission) Other() Action { return Action(p) & ActionAll }

// FileMode converts the permission into io/fs permission bits.
func (p Permission) FileMode() fs.FileMode {
	return fs.FileMode(p) & fs.ModePerm
}

// String renders the permission in ls style, i.e. "rwxr-x---".
func (p Permission) String() string {
	return p.Owner().String() + p.Group().String() + p.Other().String()
}

// CheckPermission reports whether a caller may perform action on n.
//
// Classes are consulted world first: "other" grants regardless of who the
// caller is, then "group" when the caller belongs to the node's group, then
// "owner" when the caller owns the node. A node whose other bits grant write
// is therefore writable by anyone even if its owner bits do not.
func CheckPermission(n Node, action Action, user string, groups []string) bool {
	perm := n.Permission()
	if perm.Other().Implies(action) {
		return true
	}
	if perm.Group().Implies(action) && slices.Contains(groups, n.Group()) {
		return true
	}
	return perm.Owner().Implies(action) && n.Owner() == user
}
