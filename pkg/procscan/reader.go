package procscan

import (
	"context"
	"fmt"
	"time"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/prometheus/procfs"
)

// Reader produces point-in-time snapshots of the process table under a
// given proc root. It is a pure reader: nothing in /proc is ever written.
type Reader struct {
	fs       procfs.FS
	resolver *NamespaceResolver
	skip     func(name string) bool
}

// NewReader opens the process table root. An unreadable root is a fatal
// configuration error, not something a retry can fix.
func NewReader(procRoot string, skip func(string) bool) (*Reader, error) {
	fs, err := procfs.NewFS(procRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to open proc root %q: %w", procRoot, err)
	}
	if skip == nil {
		skip = func(string) bool { return false }
	}
	return &Reader{fs: fs, resolver: NewNamespaceResolver(fs), skip: skip}, nil
}

// TakeSnapshot reads identity and namespace facts for every resolvable PID.
// Processes that exit between enumeration and the detail reads are dropped
// silently; that is ordinary churn, not an error. When the context is
// cancelled mid-scan the snapshot collected so far is returned with
// Complete=false.
func (r *Reader) TakeSnapshot(ctx context.Context) (*Snapshot, error) {
	procs, err := r.fs.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	snapshot := &Snapshot{
		Records:  make(map[int]ProcessRecord, len(procs)),
		Taken:    time.Now().UTC(),
		Complete: true,
	}

	for _, proc := range procs {
		select {
		case <-ctx.Done():
			snapshot.Complete = false
			logger.L().Debug("process snapshot cut short",
				helpers.Int("collected", len(snapshot.Records)))
			return snapshot, nil
		default:
		}

		record, ok := r.readProcess(proc)
		if !ok {
			continue
		}
		if r.skip(record.Name) {
			continue
		}
		snapshot.Records[record.PID] = record
	}

	logger.L().Debug("process snapshot taken", helpers.Int("processes", len(snapshot.Records)))
	return snapshot, nil
}

func (r *Reader) readProcess(proc procfs.Proc) (ProcessRecord, bool) {
	// processes are about to die in the middle of the loop, so every read
	// below may fail and the PID is simply left out of the snapshot
	stat, err := proc.Stat()
	if err != nil {
		return ProcessRecord{}, false
	}

	record := ProcessRecord{
		PID:  proc.PID,
		PPID: stat.PPID,
		Name: stat.Comm,
	}

	if status, err := proc.NewStatus(); err == nil && status.Name != "" {
		record.Name = status.Name
	}

	nsID, nspids, err := r.resolver.Resolve(proc)
	if err != nil {
		return ProcessRecord{}, false
	}
	record.NamespaceID = nsID
	record.NSPids = nspids

	return record, true
}
