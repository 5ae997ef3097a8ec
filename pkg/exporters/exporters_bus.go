package exporters

import (
	"github.com/Desperationis/penguin/pkg/config"
	"github.com/Desperationis/penguin/pkg/correlation"
)

// ExportersBus is a bus for exporters, it wraps the configured exporters
// and fans one scan result out to all of them.
type ExportersBus struct {
	exporters []Exporter
}

// InitExporters initializes the exporters bus from configuration.
func InitExporters(cfg config.ExporterConfig) *ExportersBus {
	var exporters []Exporter
	if stdout := InitStdoutExporter(&cfg.StdoutEnabled); stdout != nil {
		exporters = append(exporters, stdout)
	}
	if csv := InitCsvExporter(cfg.CsvPath); csv != nil {
		exporters = append(exporters, csv)
	}
	if jsonExporter := InitJSONExporter(cfg.JSONOutputPath); jsonExporter != nil {
		exporters = append(exporters, jsonExporter)
	}
	return &ExportersBus{exporters: exporters}
}

func (e *ExportersBus) SendScanResult(result *correlation.ScanResult) {
	for _, exporter := range e.exporters {
		exporter.SendScanResult(result)
	}
}
