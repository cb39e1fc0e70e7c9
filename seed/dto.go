package seed

// NodeType names the kind of node a fixture entry creates.
type NodeType string

const (
	FileType NodeType = "file"
	DirType  NodeType = "dir"
)

// FixtureDTO is the file representation of a list of nodes to create.
type FixtureDTO struct {
	Nodes []NodeDTO `yaml:"nodes" json:"nodes"`
}

// NodeDTO is the file representation of [Node].
type NodeDTO struct {
	Type    NodeType `yaml:"type" json:"type"`
	Path    string   `yaml:"path" json:"path"`
	UUID    *string  `yaml:"uuid,omitempty" json:"uuid,omitempty"`       // Optional ID to correlate log lines (Default random)
	Content *string  `yaml:"content,omitempty" json:"content,omitempty"` // Files only
	Perms   *string  `yaml:"perms,omitempty" json:"perms,omitempty"`     // octal string i.e. "755"
	Owner   *string  `yaml:"owner,omitempty" json:"owner,omitempty"`     // (Default acting user)
	Group   *string  `yaml:"group,omitempty" json:"group,omitempty"`
}
