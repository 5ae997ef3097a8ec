package cgroupscan

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/panjf2000/ants/v2"
	"github.com/spf13/afero"
)

const (
	controllersFile = "cgroup.controllers"
	procsFile       = "cgroup.procs"

	defaultWorkers = 8
)

// TreeWalker walks the cgroup v2 hierarchy directly, independent of the
// process table, and reads each group's attached-process list. This is the
// ground-truth source of PID membership: a container's processes can
// reparent inside the cgroup tree while staying under the same top-level
// container group.
type TreeWalker struct {
	fs      afero.Fs
	root    string
	workers int
}

func NewTreeWalker(fs afero.Fs, root string, workers int) *TreeWalker {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &TreeWalker{fs: fs, root: root, workers: workers}
}

// VerifyRoot checks that the configured root is a cgroup v2 unified mount.
// A missing mount is a fatal configuration error, retrying cannot fix it.
func (w *TreeWalker) VerifyRoot() error {
	ok, err := afero.Exists(w.fs, filepath.Join(w.root, controllersFile))
	if err != nil {
		return fmt.Errorf("failed to probe cgroup root %q: %w", w.root, err)
	}
	if !ok {
		return fmt.Errorf("cgroup root %q is not a cgroup v2 unified mount", w.root)
	}
	return nil
}

// Walk enumerates every group directory under the root and then reads each
// group's cgroup.procs exactly once, fanning the reads out over a bounded
// worker pool. When the context is cancelled mid-walk, groups not yet read
// stay unread and the tree is returned with Complete=false; results for
// groups already read remain valid.
func (w *TreeWalker) Walk(ctx context.Context) (*Tree, error) {
	if err := w.VerifyRoot(); err != nil {
		return nil, err
	}

	root := &Group{Path: "/"}
	complete := w.discover(ctx, root)

	groups := (&Tree{Root: root}).AllGroups()

	pool, err := ants.NewPool(w.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create cgroup reader pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, g := range groups {
		select {
		case <-ctx.Done():
			complete = false
		default:
		}
		if !complete {
			break
		}
		wg.Add(1)
		g := g
		task := func() {
			defer wg.Done()
			w.readGroup(g)
		}
		if err := pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	logger.L().Debug("cgroup tree walk done",
		helpers.Int("groups", len(groups)),
		helpers.Interface("complete", complete))
	return &Tree{Root: root, Complete: complete}, nil
}

// discover recursively enumerates child group directories. It returns false
// when the enumeration was cut short by the context.
func (w *TreeWalker) discover(ctx context.Context, g *Group) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}

	entries, err := afero.ReadDir(w.fs, w.absPath(g.Path))
	if err != nil {
		// the group vanished between enumeration and this read, expected churn
		return true
	}

	complete := true
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		child := &Group{Path: path.Join(g.Path, entry.Name())}
		g.Children = append(g.Children, child)
		if !w.discover(ctx, child) {
			complete = false
		}
	}
	return complete
}

// readGroup captures the group's PID set in a single read of its process
// list, so one group never mixes two ground-truth snapshots.
func (w *TreeWalker) readGroup(g *Group) {
	data, err := afero.ReadFile(w.fs, filepath.Join(w.absPath(g.Path), procsFile))
	if err != nil {
		// group removed between discovery and read, its PIDs are simply gone
		g.Read = true
		return
	}
	g.PIDs = parsePids(data)
	g.Read = true
}

func (w *TreeWalker) absPath(groupPath string) string {
	return filepath.Join(w.root, strings.TrimPrefix(groupPath, "/"))
}

func parsePids(data []byte) []int {
	var pids []int
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}
