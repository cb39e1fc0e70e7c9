package filesystem

import (
	"path"
	"strings"
)

const (
	Separator = "/"
	RootPath  = "/"
)

// SplitScheme separates an optional URI scheme from p. The authority of a
// "scheme://authority/path" form is dropped, so "memory:///a/b" yields
// ("memory", "/a/b"). Paths without a scheme are returned unchanged.
func SplitScheme(p string) (scheme, rest string) {
	idx := strings.IndexByte(p, ':')
	if idx <= 0 {
		return "", p
	}
	for i := 0; i < idx; i++ {
		if !isSchemeChar(p[i], i == 0) {
			return "", p
		}
	}
	scheme, rest = p[:idx], p[idx+1:]
	if after, ok := strings.CutPrefix(rest, "//"); ok {
		slash := strings.IndexByte(after, '/')
		if slash < 0 {
			return scheme, RootPath
		}
		rest = after[slash:]
	}
	if rest == "" {
		rest = RootPath
	}
	return scheme, rest
}

func isSchemeChar(c byte, first bool) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		return true
	case first:
		return false
	case '0' <= c && c <= '9', c == '+', c == '-', c == '.':
		return true
	}
	return false
}

// Parent returns the parent directory of the absolute path p, or "" for the root.
func Parent(p string) string {
	if p == RootPath || p == "" {
		return ""
	}
	return path.Dir(p)
}

// Base returns the last element of p.
func Base(p string) string {
	return path.Base(p)
}

// IsWithin reports whether p equals dir or lies below it.
func IsWithin(p, dir string) bool {
	if dir == RootPath {
		return strings.HasPrefix(p, RootPath)
	}
	return p == dir || strings.HasPrefix(p, dir+Separator)
}

// rebase moves p from below from to below to. p must satisfy IsWithin(p, from).
func rebase(p, from, to string) string {
	return to + strings.TrimPrefix(p, from)
}
