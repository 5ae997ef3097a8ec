package scanner

import (
	"context"

	"github.com/Desperationis/penguin/pkg/correlation"
)

var _ Scanner = (*ScannerMock)(nil)

type ScannerMock struct {
	Result *correlation.ScanResult
	Err    error
}

func (s *ScannerMock) Scan(_ context.Context) (*correlation.ScanResult, error) {
	return s.Result, s.Err
}
