// Package seed loads node fixtures from YAML or JSON and applies them to a
// file system.
package seed

import (
	"cmp"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/brettbedarf/memfs/config"
	"github.com/brettbedarf/memfs/filesystem"
	"github.com/brettbedarf/memfs/internal/errors"
	"github.com/brettbedarf/memfs/internal/util"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Format selects the fixture decoder.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// Node is a fixture entry with defaults applied.
type Node struct {
	ID      uuid.UUID
	Type    NodeType
	Path    string
	Content []byte
	Perm    filesystem.Permission
	Owner   string // Empty keeps the acting user
	Group   string // Empty keeps the default group
}

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	default:
		return "", errors.Errorf("unknown seed file extension: %s", path)
	}
}

// Parse decodes a fixture. Entries without perms get defaultPerm.
func Parse(data []byte, format Format, defaultPerm filesystem.Permission) ([]Node, error) {
	var dto FixtureDTO
	switch format {
	case YAML:
		if err := yaml.Unmarshal(data, &dto); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal seed file")
		}
	case JSON:
		if err := json.Unmarshal(data, &dto); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal seed file")
		}
	default:
		return nil, errors.Errorf("unknown seed format %q", format)
	}

	nodes := make([]Node, 0, len(dto.Nodes))
	for i, d := range dto.Nodes {
		n, err := convertNodeDTO(d, defaultPerm)
		if err != nil {
			return nil, errors.Wrapf(err, "seed node %d", i)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// LoadFile reads and parses the fixture at path, picking the format from
// its extension.
func LoadFile(path string, defaultPerm filesystem.Permission) ([]Node, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, format, defaultPerm)
}

func convertNodeDTO(d NodeDTO, defaultPerm filesystem.Permission) (Node, error) {
	n := Node{
		Type: d.Type,
		Path: d.Path,
		Perm: defaultPerm,
	}
	switch d.Type {
	case FileType, DirType:
	default:
		return Node{}, errors.Errorf("unknown node type %q", d.Type)
	}
	if strings.TrimSpace(d.Path) == "" {
		return Node{}, errors.Wrap(filesystem.ErrInvalidArgument, "path must not be blank")
	}

	if d.UUID != nil {
		id, err := uuid.Parse(*d.UUID)
		if err != nil {
			return Node{}, errors.Wrapf(err, "invalid uuid %q", *d.UUID)
		}
		n.ID = id
	} else {
		n.ID = uuid.New()
	}
	if d.Content != nil {
		if d.Type == DirType {
			return Node{}, errors.Errorf("directory %s cannot have content", d.Path)
		}
		n.Content = []byte(*d.Content)
	}
	if d.Perms != nil {
		perm, err := config.ParsePermission(*d.Perms)
		if err != nil {
			return Node{}, err
		}
		n.Perm = filesystem.Permission(perm)
	}
	if d.Owner != nil {
		n.Owner = *d.Owner
	}
	if d.Group != nil {
		n.Group = *d.Group
	}
	return n, nil
}

// Apply creates nodes on fsys: directories first, shallowest first, then
// files in fixture order. Existing files are overwritten. A directory's
// permission must let the acting user write the files listed below it.
func Apply(fsys *filesystem.FileSystem, nodes []Node) error {
	logger := util.GetLogger("Seed")

	dirs := slices.DeleteFunc(slices.Clone(nodes), func(n Node) bool { return n.Type != DirType })
	slices.SortStableFunc(dirs, func(a, b Node) int {
		return cmp.Compare(strings.Count(a.Path, "/"), strings.Count(b.Path, "/"))
	})
	for _, n := range dirs {
		if err := fsys.Mkdirs(n.Path, filesystem.WithPermission(n.Perm)); err != nil {
			return err
		}
		if err := chown(fsys, n); err != nil {
			return err
		}
		logger.Debug().Str("id", n.ID.String()).Str("path", n.Path).Msg("Seeded directory")
	}

	for _, n := range nodes {
		if n.Type != FileType {
			continue
		}
		if err := writeFile(fsys, n); err != nil {
			return err
		}
		if err := chown(fsys, n); err != nil {
			return err
		}
		logger.Debug().Str("id", n.ID.String()).Str("path", n.Path).Int("bytes", len(n.Content)).Msg("Seeded file")
	}
	return nil
}

func writeFile(fsys *filesystem.FileSystem, n Node) (err error) {
	w, err := fsys.Create(n.Path, filesystem.WithPermission(n.Perm))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = w.Write(n.Content)
	return err
}

func chown(fsys *filesystem.FileSystem, n Node) error {
	if n.Owner == "" && n.Group == "" {
		return nil
	}
	return fsys.SetOwner(n.Path, n.Owner, n.Group)
}
