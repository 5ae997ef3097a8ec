package scanner

import (
	"context"
	"fmt"
	"sync"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/Desperationis/penguin/pkg/cgroupscan"
	"github.com/Desperationis/penguin/pkg/config"
	"github.com/Desperationis/penguin/pkg/containerid"
	"github.com/Desperationis/penguin/pkg/correlation"
	"github.com/Desperationis/penguin/pkg/procscan"
	"github.com/Desperationis/penguin/pkg/scanner"
)

// IntrospectionScanner wires the three collectors and the correlation
// engine into one scan. The collectors read disjoint or idempotently
// re-readable kernel state, so they run concurrently; correlation runs only
// after all of them finish.
type IntrospectionScanner struct {
	cfg        config.Config
	matcher    containerid.Matcher
	reader     *procscan.Reader
	pathWalker *cgroupscan.PathWalker
	treeWalker *cgroupscan.TreeWalker
}

var _ scanner.Scanner = (*IntrospectionScanner)(nil)

// NewIntrospectionScanner validates both inspected roots up front. A proc
// root or cgroup root that cannot be opened is fatal here, a scan cannot
// produce anything meaningful without them.
func NewIntrospectionScanner(cfg config.Config, appFs afero.Fs) (*IntrospectionScanner, error) {
	matcher, err := containerid.NewMatcher(cfg.ContainerIDPattern, cfg.ContainerIDPrefixes)
	if err != nil {
		return nil, err
	}

	reader, err := procscan.NewReader(cfg.ProcRoot, cfg.SkipProcess)
	if err != nil {
		return nil, err
	}

	treeWalker := cgroupscan.NewTreeWalker(appFs, cfg.CgroupRoot, cfg.CgroupWorkers)
	if err := treeWalker.VerifyRoot(); err != nil {
		return nil, err
	}

	return &IntrospectionScanner{
		cfg:        cfg,
		matcher:    matcher,
		reader:     reader,
		pathWalker: cgroupscan.NewPathWalker(cfg.ProcRoot, matcher),
		treeWalker: treeWalker,
	}, nil
}

// Scan executes one correlation pass within the configured time budget.
// On timeout the result assembled so far comes back flagged partial.
func (s *IntrospectionScanner) Scan(ctx context.Context) (*correlation.ScanResult, error) {
	if s.cfg.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ScanTimeout)
		defer cancel()
	}

	var (
		wg sync.WaitGroup

		snapshot *procscan.Snapshot
		snapErr  error

		memberships   []cgroupscan.Membership
		pathsComplete bool
		pathsErr      error

		tree    *cgroupscan.Tree
		treeErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		snapshot, snapErr = s.reader.TakeSnapshot(ctx)
	}()
	go func() {
		defer wg.Done()
		memberships, pathsComplete, pathsErr = s.pathWalker.Walk(ctx)
	}()
	go func() {
		defer wg.Done()
		tree, treeErr = s.treeWalker.Walk(ctx)
	}()
	wg.Wait()

	if err := multierr.Combine(snapErr, pathsErr, treeErr); err != nil {
		return nil, fmt.Errorf("introspection scan failed: %w", err)
	}

	result := correlation.NewEngine(s.matcher).Correlate(snapshot, memberships, pathsComplete, tree)
	if result.Partial {
		logger.L().Warning("scan exceeded its budget, returning partial result",
			helpers.Int("containers", len(result.Containers)))
	}
	return result, nil
}
