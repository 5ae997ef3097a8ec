package scanner

import (
	"context"

	"github.com/Desperationis/penguin/pkg/correlation"
)

// Scanner runs one full introspection pass against the inspected roots and
// returns the correlated container set. A scan that exceeds its time budget
// returns whatever was assembled so far, flagged partial, not an error.
type Scanner interface {
	Scan(ctx context.Context) (*correlation.ScanResult, error)
}
