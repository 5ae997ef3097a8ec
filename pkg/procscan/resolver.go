package procscan

import (
	"fmt"

	"github.com/prometheus/procfs"
)

// NamespaceResolver reads the pid-namespace identity of processes. Two
// processes whose ns/pid links resolve to the same inode share a namespace.
type NamespaceResolver struct {
	fs procfs.FS
}

func NewNamespaceResolver(fs procfs.FS) *NamespaceResolver {
	return &NamespaceResolver{fs: fs}
}

// Resolve returns the pid-namespace inode of the process together with its
// NSpid sequence (outermost to innermost). A process that vanished between
// enumeration and this read surfaces as an error the caller drops silently.
func (nr *NamespaceResolver) Resolve(proc procfs.Proc) (uint64, []int, error) {
	namespaces, err := proc.Namespaces()
	if err != nil {
		return 0, nil, err
	}
	pidNs, ok := namespaces["pid"]
	if !ok {
		return 0, nil, fmt.Errorf("process %d has no pid namespace link", proc.PID)
	}

	status, err := proc.NewStatus()
	if err != nil {
		return 0, nil, err
	}
	nspids := make([]int, 0, len(status.NSpids))
	for _, p := range status.NSpids {
		nspids = append(nspids, int(p))
	}
	if len(nspids) == 0 {
		// very old kernels lack the NSpid field, the host view is all there is
		nspids = append(nspids, proc.PID)
	}

	return uint64(pidNs.Inode), nspids, nil
}
