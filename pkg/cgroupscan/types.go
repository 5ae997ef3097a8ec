package cgroupscan

import (
	"sort"
)

// Membership is one process's cgroup v2 membership as read from its
// /proc/<pid>/cgroup file. ContainerID is empty when the path carries no
// recognizable container segment (host-level or infrastructure process).
type Membership struct {
	PID         int
	Path        string
	ContainerID string
}

// Group is a node in the cgroup v2 hierarchy. PIDs holds the processes
// directly attached to the group and is only valid once Read is true; a
// group enumerated but never read (walk cut short, or the group vanished)
// contributes nothing downstream.
type Group struct {
	Path     string
	PIDs     []int
	Children []*Group
	Read     bool
}

// Leaf reports whether the group has no child groups. On cgroup v2
// processes normally live only in leaves.
func (g *Group) Leaf() bool {
	return len(g.Children) == 0
}

// Tree is the result of one walk over the cgroup hierarchy. Complete is
// false when the walk was cut short and some groups were never read.
type Tree struct {
	Root     *Group
	Complete bool
}

// AllGroups returns every group in the tree in preorder.
func (t *Tree) AllGroups() []*Group {
	if t.Root == nil {
		return nil
	}
	var out []*Group
	var visit func(g *Group)
	visit = func(g *Group) {
		out = append(out, g)
		for _, c := range g.Children {
			visit(c)
		}
	}
	visit(t.Root)
	return out
}

// Find returns the group at the given path, if the walk saw it.
func (t *Tree) Find(path string) (*Group, bool) {
	for _, g := range t.AllGroups() {
		if g.Path == path {
			return g, true
		}
	}
	return nil, false
}

// PidsUnder collects the host PIDs attached to the group at the given path
// and every group beneath it, deduplicated and sorted. Unread groups are
// skipped.
func (t *Tree) PidsUnder(path string) []int {
	g, ok := t.Find(path)
	if !ok {
		return nil
	}
	seen := make(map[int]struct{})
	var visit func(g *Group)
	visit = func(g *Group) {
		if g.Read {
			for _, pid := range g.PIDs {
				seen[pid] = struct{}{}
			}
		}
		for _, c := range g.Children {
			visit(c)
		}
	}
	visit(g)
	pids := make([]int, 0, len(seen))
	for pid := range seen {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

// ContainerGroup is the aggregated view of one container's subtree.
type ContainerGroup struct {
	ID       string
	Path     string // top-most group path recognized for the container
	PIDs     []int
	Complete bool // every group in the subtree was read
}

// Matcher is the container-ID recognition rule applied to group paths.
// It mirrors containerid.Matcher so this package does not depend on it.
type Matcher interface {
	Find(cgroupPath string) (string, bool)
}

// ContainerGroups aggregates the tree per container identifier: for every
// group path the matcher recognizes, the container owns that group's whole
// subtree. When the same ID is recognized at several depths the shortest
// path wins, it is the container's controller scope.
func (t *Tree) ContainerGroups(matcher Matcher) map[string]ContainerGroup {
	tops := make(map[string]*Group)
	for _, g := range t.AllGroups() {
		id, ok := matcher.Find(g.Path)
		if !ok {
			continue
		}
		if cur, seen := tops[id]; !seen || len(g.Path) < len(cur.Path) {
			tops[id] = g
		}
	}

	out := make(map[string]ContainerGroup, len(tops))
	for id, top := range tops {
		cg := ContainerGroup{ID: id, Path: top.Path, Complete: true}
		seen := make(map[int]struct{})
		var visit func(g *Group)
		visit = func(g *Group) {
			if !g.Read {
				cg.Complete = false
			} else {
				for _, pid := range g.PIDs {
					seen[pid] = struct{}{}
				}
			}
			for _, c := range g.Children {
				visit(c)
			}
		}
		visit(top)
		cg.PIDs = make([]int, 0, len(seen))
		for pid := range seen {
			cg.PIDs = append(cg.PIDs, pid)
		}
		sort.Ints(cg.PIDs)
		out[id] = cg
	}
	return out
}
