package procscan

import (
	"sort"
	"time"
)

// ProcessRecord holds the identity facts read for one host process at
// snapshot time. Records are immutable once read and never survive a pass.
type ProcessRecord struct {
	PID         int    // host PID
	PPID        int    // host PID of the parent
	Name        string // process name from status, comm as fallback
	NamespaceID uint64 // inode of the pid namespace the process lives in
	NSPids      []int  // PID as seen in each pid namespace, outermost first
}

// LocalPID returns the PID as seen from inside the process's own pid
// namespace (the innermost NSpid value).
func (r ProcessRecord) LocalPID() int {
	if len(r.NSPids) == 0 {
		return r.PID
	}
	return r.NSPids[len(r.NSPids)-1]
}

// IsNamespaced reports whether the process lives in a nested pid namespace.
// A single NSpid value means the process is host-level and never belongs to
// a container mapping.
func (r ProcessRecord) IsNamespaced() bool {
	return len(r.NSPids) > 1
}

// Snapshot is a point-in-time view of the process table.
type Snapshot struct {
	Records  map[int]ProcessRecord
	Taken    time.Time
	Complete bool
}

func (s *Snapshot) Get(pid int) (ProcessRecord, bool) {
	r, ok := s.Records[pid]
	return r, ok
}

func (s *Snapshot) Len() int {
	return len(s.Records)
}

// PeersOf returns every record sharing the pid namespace of the given host
// PID, sorted by namespace-local PID. It returns nil if the PID is not in
// the snapshot.
func (s *Snapshot) PeersOf(hostPID int) []ProcessRecord {
	ref, ok := s.Records[hostPID]
	if !ok {
		return nil
	}
	var peers []ProcessRecord
	for _, r := range s.Records {
		if r.NamespaceID == ref.NamespaceID {
			peers = append(peers, r)
		}
	}
	sort.Slice(peers, func(i, j int) bool {
		return peers[i].LocalPID() < peers[j].LocalPID()
	})
	return peers
}

// InitOf returns the record acting as init (namespace-local PID 1) of the
// given pid namespace.
func (s *Snapshot) InitOf(nsID uint64) (ProcessRecord, bool) {
	for _, r := range s.Records {
		if r.NamespaceID == nsID && r.IsNamespaced() && r.LocalPID() == 1 {
			return r, true
		}
	}
	return ProcessRecord{}, false
}
