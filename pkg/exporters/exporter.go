package exporters

import (
	"github.com/Desperationis/penguin/pkg/correlation"
)

// generic exporter interface
type Exporter interface {
	// SendScanResult sends the container records of one scan to the exporter
	SendScanResult(result *correlation.ScanResult)
}

var _ Exporter = (*ExporterMock)(nil)

type ExporterMock struct{}

func (e *ExporterMock) SendScanResult(_ *correlation.ScanResult) {
}
