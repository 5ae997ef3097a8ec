package cgroupscan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/containerd/cgroups/v3"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
)

// PathWalker reads each live process's cgroup v2 membership path from
// /proc/<pid>/cgroup and extracts a candidate container identifier from it.
// It corroborates the tree walk: the tree is authoritative for membership,
// the per-process paths tie PIDs to container IDs independently.
type PathWalker struct {
	procRoot string
	matcher  Matcher
}

func NewPathWalker(procRoot string, matcher Matcher) *PathWalker {
	return &PathWalker{procRoot: procRoot, matcher: matcher}
}

// Walk reads the cgroup path of every numeric /proc entry. PIDs that vanish
// mid-walk or expose no v2 hierarchy are skipped. The returned flag is false
// when the walk was cut short by the context.
func (w *PathWalker) Walk(ctx context.Context) ([]Membership, bool, error) {
	entries, err := os.ReadDir(w.procRoot)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read proc root %q: %w", w.procRoot, err)
	}

	memberships := make([]Membership, 0, len(entries))
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			logger.L().Debug("cgroup path walk cut short",
				helpers.Int("collected", len(memberships)))
			return memberships, false, nil
		default:
		}

		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}

		// the process may exit between ReadDir and this parse, skip on error
		_, unified, err := cgroups.ParseCgroupFileUnified(filepath.Join(w.procRoot, entry.Name(), "cgroup"))
		if err != nil || unified == "" {
			continue
		}

		m := Membership{PID: pid, Path: unified}
		if id, ok := w.matcher.Find(unified); ok {
			m.ContainerID = id
		}
		memberships = append(memberships, m)
	}

	logger.L().Debug("cgroup path walk done", helpers.Int("memberships", len(memberships)))
	return memberships, true, nil
}
