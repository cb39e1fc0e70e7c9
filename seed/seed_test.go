package seed

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/brettbedarf/memfs"
	"github.com/brettbedarf/memfs/filesystem"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlFixture = `
nodes:
  - type: file
    path: /data/deep/report.txt
    content: "quarterly"
    perms: "640"
    owner: alice
    group: finance
  - type: dir
    path: /data/deep
    perms: "750"
  - type: dir
    path: /data
  - type: file
    path: /empty.txt
    uuid: 6f1c2a4e-8a43-4c8e-9d1c-0b1b6c4f5a10
`

const jsonFixture = `{"nodes": [
  {"type": "dir", "path": "/logs", "perms": "0o700"},
  {"type": "file", "path": "/logs/app.log", "content": "started\n"}
]}`

func TestParse_YAML(t *testing.T) {
	t.Parallel()

	nodes, err := Parse([]byte(yamlFixture), YAML, filesystem.DefaultPermission)
	require.NoError(t, err)
	require.Len(t, nodes, 4)

	report := nodes[0]
	assert.Equal(t, FileType, report.Type)
	assert.Equal(t, "/data/deep/report.txt", report.Path)
	assert.Equal(t, []byte("quarterly"), report.Content)
	assert.Equal(t, filesystem.Permission(0o640), report.Perm)
	assert.Equal(t, "alice", report.Owner)
	assert.Equal(t, "finance", report.Group)
	assert.NotEqual(t, uuid.Nil, report.ID, "missing uuid gets a random one")

	assert.Equal(t, filesystem.DefaultPermission, nodes[2].Perm)
	assert.Equal(t, "6f1c2a4e-8a43-4c8e-9d1c-0b1b6c4f5a10", nodes[3].ID.String())
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		msg  string
	}{
		{"UnknownType", `{"nodes":[{"type":"link","path":"/x"}]}`, `unknown node type "link"`},
		{"BlankPath", `{"nodes":[{"type":"file","path":" "}]}`, "path must not be blank"},
		{"BadPerms", `{"nodes":[{"type":"file","path":"/x","perms":"rwx"}]}`, "invalid permission"},
		{"BadUUID", `{"nodes":[{"type":"file","path":"/x","uuid":"nope"}]}`, "invalid uuid"},
		{"DirContent", `{"nodes":[{"type":"dir","path":"/x","content":"x"}]}`, "cannot have content"},
		{"Malformed", `{"nodes":`, "failed to unmarshal seed file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.data), JSON, filesystem.DefaultPermission)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	_, err := Parse([]byte("{}"), Format("toml"), filesystem.DefaultPermission)
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	t.Parallel()

	nodes, err := Parse([]byte(yamlFixture), YAML, filesystem.DefaultPermission)
	require.NoError(t, err)
	fsys := memfs.New(filesystem.NewRegistry())

	require.NoError(t, Apply(fsys, nodes))

	deep, err := fsys.GetFileStatus("/data/deep")
	require.NoError(t, err)
	assert.True(t, deep.IsDir)
	assert.Equal(t, filesystem.Permission(0o750), deep.Permission)

	report, err := fsys.GetFileStatus("/data/deep/report.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(len("quarterly")), report.Length)
	assert.Equal(t, filesystem.Permission(0o640), report.Permission)
	assert.Equal(t, "alice", report.Owner)
	assert.Equal(t, "finance", report.Group)

	empty, err := fsys.GetFileStatus("/empty.txt")
	require.NoError(t, err)
	assert.Zero(t, empty.Length)
	assert.Equal(t, filesystem.DefaultUser, empty.Owner)
}

func TestApply_ReseedExistingFile(t *testing.T) {
	t.Parallel()

	fsys := memfs.New(filesystem.NewRegistry())
	require.NoError(t, memfs.CreateFile(fsys, "/conf.ini", "old"))

	nodes, err := Parse([]byte("nodes:\n  - type: file\n    path: /conf.ini\n    content: new\n    perms: \"600\"\n"), YAML, filesystem.DefaultPermission)
	require.NoError(t, err)
	require.NoError(t, Apply(fsys, nodes))

	st, err := fsys.GetFileStatus("/conf.ini")
	require.NoError(t, err)
	assert.Equal(t, filesystem.Permission(0o600), st.Permission)
	assert.Equal(t, int64(len("new")), st.Length)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(jsonFixture), 0o600))

	nodes, err := LoadFile(path, 0o755)
	require.NoError(t, err)
	fsys := memfs.New(filesystem.NewRegistry())
	require.NoError(t, Apply(fsys, nodes))

	r, err := fsys.Open("/logs/app.log")
	require.NoError(t, err)
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "started\n", string(b))

	st, err := fsys.GetFileStatus("/logs/app.log")
	require.NoError(t, err)
	assert.Equal(t, filesystem.Permission(0o755), st.Permission, "default permission applies without perms")

	_, err = LoadFile(filepath.Join(dir, "seed.txt"), 0o755)
	assert.ErrorContains(t, err, "unknown seed file extension")

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"), 0o755)
	assert.True(t, os.IsNotExist(err))
}
