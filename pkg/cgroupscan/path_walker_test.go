package cgroupscan

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Desperationis/penguin/pkg/containerid"
)

const testID = "abcd1234abcd1234abcd1234abcd1234abcd1234abcd1234abcd1234abcd1234"

func writeCgroupFile(t *testing.T, root string, pid int, content string) {
	t.Helper()
	dir := filepath.Join(root, strconv.Itoa(pid))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cgroup"), []byte(content), 0o644))
}

func TestPathWalker(t *testing.T) {
	root := t.TempDir()
	writeCgroupFile(t, root, 100, "0::/system.slice/docker-"+testID+".scope\n")
	writeCgroupFile(t, root, 101, "0::/system.slice/docker-"+testID+".scope\n")
	writeCgroupFile(t, root, 1, "0::/init.scope\n")
	// hybrid layout: v1 lines plus the unified one
	writeCgroupFile(t, root, 200, "2:cpu:/legacy\n0::/docker/"+testID+"\n")
	// v1-only process exposes no unified path
	writeCgroupFile(t, root, 300, "2:cpu:/legacy\n")
	// a process directory with no cgroup file, it exited mid-walk
	require.NoError(t, os.MkdirAll(filepath.Join(root, "999"), 0o755))

	walker := NewPathWalker(root, containerid.NewDefaultMatcher())
	memberships, complete, err := walker.Walk(context.Background())
	require.NoError(t, err)
	assert.True(t, complete)

	byPID := make(map[int]Membership)
	for _, m := range memberships {
		byPID[m.PID] = m
	}

	require.Len(t, byPID, 4)
	assert.Equal(t, testID, byPID[100].ContainerID)
	assert.Equal(t, testID, byPID[101].ContainerID)
	assert.Equal(t, "/system.slice/docker-"+testID+".scope", byPID[100].Path)
	assert.Equal(t, testID, byPID[200].ContainerID)
	// host-level path carries no container ID
	assert.Equal(t, "", byPID[1].ContainerID)
	assert.Equal(t, "/init.scope", byPID[1].Path)
	_, sawV1Only := byPID[300]
	assert.False(t, sawV1Only)
	_, sawVanished := byPID[999]
	assert.False(t, sawVanished)
}

func TestPathWalkerCancelled(t *testing.T) {
	root := t.TempDir()
	writeCgroupFile(t, root, 100, "0::/system.slice/docker-"+testID+".scope\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	walker := NewPathWalker(root, containerid.NewDefaultMatcher())
	memberships, complete, err := walker.Walk(ctx)
	require.NoError(t, err)
	assert.False(t, complete)
	assert.Empty(t, memberships)
}

func TestPathWalkerMissingRoot(t *testing.T) {
	walker := NewPathWalker(filepath.Join(t.TempDir(), "missing"), containerid.NewDefaultMatcher())
	_, _, err := walker.Walk(context.Background())
	assert.Error(t, err)
}
