package cgroupscan

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Desperationis/penguin/pkg/containerid"
)

const otherID = "feed5678feed5678feed5678feed5678feed5678feed5678feed5678feed5678"

func writeGroup(t *testing.T, fs afero.Fs, root, group, procs string) {
	t.Helper()
	dir := filepath.Join(root, group)
	require.NoError(t, fs.MkdirAll(dir, 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, procsFile), []byte(procs), 0o644))
}

func newCgroupFixture(t *testing.T) (afero.Fs, string) {
	t.Helper()
	fs := afero.NewMemMapFs()
	root := "/sys/fs/cgroup"
	require.NoError(t, fs.MkdirAll(root, 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(root, controllersFile), []byte("cpu memory pids\n"), 0o644))
	return fs, root
}

func TestTreeWalker(t *testing.T) {
	fs, root := newCgroupFixture(t)
	writeGroup(t, fs, root, "init.scope", "1\n")
	writeGroup(t, fs, root, "system.slice", "")
	writeGroup(t, fs, root, "system.slice/docker-"+testID+".scope", "100\n101\n102\n")
	writeGroup(t, fs, root, "system.slice/docker-"+otherID+".scope", "")

	walker := NewTreeWalker(fs, root, 2)
	tree, err := walker.Walk(context.Background())
	require.NoError(t, err)
	assert.True(t, tree.Complete)

	group, ok := tree.Find("/system.slice/docker-" + testID + ".scope")
	require.True(t, ok)
	assert.True(t, group.Read)
	assert.True(t, group.Leaf())
	assert.Equal(t, []int{100, 101, 102}, group.PIDs)

	assert.Equal(t, []int{100, 101, 102}, tree.PidsUnder("/system.slice"))
	assert.Nil(t, tree.PidsUnder("/no/such/group"))
}

func TestTreeWalkerNestedScopes(t *testing.T) {
	fs, root := newCgroupFixture(t)
	// systemd cgroup driver nests init/payload scopes under the container scope
	base := "system.slice/docker-" + testID + ".scope"
	writeGroup(t, fs, root, base, "")
	writeGroup(t, fs, root, base+"/init.scope", "100\n")
	writeGroup(t, fs, root, base+"/payload", "101\n102\n")

	walker := NewTreeWalker(fs, root, 2)
	tree, err := walker.Walk(context.Background())
	require.NoError(t, err)

	groups := tree.ContainerGroups(containerid.NewDefaultMatcher())
	require.Len(t, groups, 1)
	cg := groups[testID]
	assert.Equal(t, "/"+base, cg.Path)
	assert.True(t, cg.Complete)
	assert.Equal(t, []int{100, 101, 102}, cg.PIDs)
}

func TestTreeWalkerEmptyContainerGroup(t *testing.T) {
	fs, root := newCgroupFixture(t)
	writeGroup(t, fs, root, "system.slice/docker-"+otherID+".scope", "")

	walker := NewTreeWalker(fs, root, 2)
	tree, err := walker.Walk(context.Background())
	require.NoError(t, err)

	groups := tree.ContainerGroups(containerid.NewDefaultMatcher())
	require.Len(t, groups, 1)
	cg := groups[otherID]
	assert.True(t, cg.Complete)
	assert.Empty(t, cg.PIDs)
}

func TestTreeWalkerCancelled(t *testing.T) {
	fs, root := newCgroupFixture(t)
	writeGroup(t, fs, root, "system.slice/docker-"+testID+".scope", "100\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	walker := NewTreeWalker(fs, root, 2)
	tree, err := walker.Walk(ctx)
	require.NoError(t, err)
	assert.False(t, tree.Complete)
}

func TestTreeWalkerBadRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/sys/fs/cgroup", 0o755))
	// no cgroup.controllers file: not a v2 unified mount

	walker := NewTreeWalker(fs, "/sys/fs/cgroup", 2)
	assert.Error(t, walker.VerifyRoot())
	_, err := walker.Walk(context.Background())
	assert.Error(t, err)
}

func TestContainerGroupsPartialSubtree(t *testing.T) {
	// a walk cut short leaves some groups unread; their PIDs must not leak
	// into the aggregation and the container is marked incomplete
	read := &Group{Path: "/system.slice/docker-" + testID + ".scope", PIDs: []int{100}, Read: true}
	unread := &Group{Path: read.Path + "/payload"}
	read.Children = []*Group{unread}
	root := &Group{Path: "/", Read: true, Children: []*Group{read}}
	tree := &Tree{Root: root, Complete: false}

	groups := tree.ContainerGroups(containerid.NewDefaultMatcher())
	require.Len(t, groups, 1)
	cg := groups[testID]
	assert.False(t, cg.Complete)
	assert.Equal(t, []int{100}, cg.PIDs)
}
