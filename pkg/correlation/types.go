package correlation

import (
	"time"

	"github.com/Desperationis/penguin/pkg/containerid"
)

// Status classifies the outcome of correlating one container identifier.
type Status string

const (
	// StatusOK means a single pid namespace was confirmed across all PIDs.
	StatusOK Status = "ok"
	// StatusEmpty means the container's cgroup exists but no live process
	// could be attributed to it. Either the container started and
	// terminated entirely within the snapshot window, or its group was
	// created and never populated, evidence it never actually started.
	StatusEmpty Status = "present-but-empty"
	// StatusAmbiguous means PIDs attributed to the container resolve to
	// more than one pid-namespace identity, typically a restart mid-scan.
	StatusAmbiguous Status = "namespace-ambiguous"
)

// ProcessEntry ties one host PID to its namespace-local identity.
type ProcessEntry struct {
	HostPID  int    `json:"hostPid"`
	LocalPID int    `json:"localPid"`
	Name     string `json:"name"`
}

// Sources records which collectors observed the container. The cgroup tree
// is authoritative, the per-process paths corroborate; seeing an ID in only
// one of the two is a detectable inconsistency, not an error.
type Sources struct {
	CgroupTree bool `json:"cgroupTree"`
	ProcPaths  bool `json:"procPaths"`
}

// ContainerRecord is the terminal output for one container identifier in
// one scan. Records are never mutated after construction and never shared
// across scans.
type ContainerRecord struct {
	ID          string         `json:"containerId"`
	CgroupPath  string         `json:"cgroupPath,omitempty"`
	NamespaceID uint64         `json:"pidNamespace,omitempty"`
	InitHostPID int            `json:"initHostPid,omitempty"`
	Status      Status         `json:"status"`
	Ambiguous   bool           `json:"ambiguous"`
	Sources     Sources        `json:"sources"`
	PIDMap      map[int]int    `json:"pidMap,omitempty"`
	Processes   []ProcessEntry `json:"processes"`
}

// SourceMismatch reports whether only one of the two cgroup collectors saw
// the container.
func (c ContainerRecord) SourceMismatch() bool {
	return c.Sources.CgroupTree != c.Sources.ProcPaths
}

// ScanResult is the outcome of one full correlation pass. Partial marks a
// result assembled from a scan that was cut short by its time budget.
type ScanResult struct {
	Containers []ContainerRecord `json:"containers"`
	Partial    bool              `json:"partial"`
	Taken      time.Time         `json:"taken"`
}

// ContainerByID looks a container up by full or short (prefix) identifier.
func (r *ScanResult) ContainerByID(id string) (ContainerRecord, bool) {
	for _, c := range r.Containers {
		if containerid.IDMatches(c.ID, id) {
			return c, true
		}
	}
	return ContainerRecord{}, false
}
