package correlation

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"

	"github.com/Desperationis/penguin/pkg/cgroupscan"
	"github.com/Desperationis/penguin/pkg/procscan"
)

// Engine merges the process snapshot, the per-process cgroup paths and the
// cgroup tree into one consistent container to process mapping. It is a
// single-pass, stateless transform: one snapshot's raw tables in, one
// ScanResult out.
type Engine struct {
	matcher cgroupscan.Matcher
}

func NewEngine(matcher cgroupscan.Matcher) *Engine {
	return &Engine{matcher: matcher}
}

type builder struct {
	pids      mapset.Set[int]
	path      string
	fromTree  bool
	fromPaths bool
}

// Correlate builds the ContainerRecord set for one scan. pathsComplete
// tells whether the path walk covered the whole process table; together
// with the snapshot and tree completeness it decides the Partial flag.
func (e *Engine) Correlate(snapshot *procscan.Snapshot, memberships []cgroupscan.Membership, pathsComplete bool, tree *cgroupscan.Tree) *ScanResult {
	builders := make(map[string]*builder)
	ensure := func(id string) *builder {
		b, ok := builders[id]
		if !ok {
			b = &builder{pids: mapset.NewSet[int]()}
			builders[id] = b
		}
		return b
	}

	// authoritative membership from the cgroup tree
	for id, cg := range tree.ContainerGroups(e.matcher) {
		b := ensure(id)
		b.fromTree = true
		b.path = cg.Path
		b.pids.Append(cg.PIDs...)
	}

	// corroborating membership from per-process cgroup paths
	for _, m := range memberships {
		if m.ContainerID == "" {
			continue
		}
		b := ensure(m.ContainerID)
		b.fromPaths = true
		b.pids.Add(m.PID)
		if b.path == "" {
			b.path = m.Path
		}
	}

	result := &ScanResult{
		Containers: make([]ContainerRecord, 0, len(builders)),
		Partial:    !snapshot.Complete || !pathsComplete || !tree.Complete,
		Taken:      snapshot.Taken,
	}

	for id, b := range builders {
		result.Containers = append(result.Containers, e.buildRecord(id, b, snapshot))
	}
	sort.Slice(result.Containers, func(i, j int) bool {
		return result.Containers[i].ID < result.Containers[j].ID
	})

	logger.L().Debug("correlation pass done",
		helpers.Int("containers", len(result.Containers)),
		helpers.Interface("partial", result.Partial))
	return result
}

func (e *Engine) buildRecord(id string, b *builder, snapshot *procscan.Snapshot) ContainerRecord {
	record := ContainerRecord{
		ID:         id,
		CgroupPath: b.path,
		Status:     StatusOK,
		Sources:    Sources{CgroupTree: b.fromTree, ProcPaths: b.fromPaths},
		PIDMap:     make(map[int]int),
		Processes:  []ProcessEntry{},
	}

	namespaces := mapset.NewSet[uint64]()
	pids := b.pids.ToSlice()
	sort.Ints(pids)
	for _, pid := range pids {
		proc, ok := snapshot.Get(pid)
		if !ok {
			// the process exited between the cgroup read and the process
			// snapshot, a soft omission rather than a failure
			continue
		}
		if !proc.IsNamespaced() {
			// host-level process sharing the container's cgroup, never
			// part of the container's own process tree
			continue
		}
		namespaces.Add(proc.NamespaceID)
		local := proc.LocalPID()
		record.PIDMap[pid] = local
		record.Processes = append(record.Processes, ProcessEntry{
			HostPID:  pid,
			LocalPID: local,
			Name:     proc.Name,
		})
		if local == 1 {
			record.InitHostPID = pid
		}
	}
	sort.Slice(record.Processes, func(i, j int) bool {
		return record.Processes[i].LocalPID < record.Processes[j].LocalPID
	})

	switch namespaces.Cardinality() {
	case 0:
		record.Status = StatusEmpty
	case 1:
		ns, _ := namespaces.Pop()
		record.NamespaceID = ns
	default:
		record.Ambiguous = true
		record.Status = StatusAmbiguous
		// with several namespaces in play there can be several local PID 1s,
		// none of which is the container's init with any confidence
		record.InitHostPID = 0
		logger.L().Warning("container resolves to multiple pid namespaces",
			helpers.String("containerID", id),
			helpers.Int("namespaces", namespaces.Cardinality()))
	}

	if record.SourceMismatch() {
		logger.L().Debug("container seen by only one cgroup collector",
			helpers.String("containerID", id),
			helpers.Interface("sources", record.Sources))
	}

	return record
}
