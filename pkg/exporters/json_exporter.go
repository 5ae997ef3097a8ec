package exporters

import (
	"encoding/json"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Desperationis/penguin/pkg/correlation"
)

// JSONExporter writes the full scan result to a file, one document per
// scan, for downstream tooling to pick up.
type JSONExporter struct {
	OutputPath string
}

func InitJSONExporter(outputPath string) *JSONExporter {
	if outputPath == "" {
		outputPath = os.Getenv("EXPORTER_JSON_PATH")
		if outputPath == "" {
			logrus.Debugf("json path not provided, scan results will not be exported to json")
			return nil
		}
	}
	return &JSONExporter{OutputPath: outputPath}
}

func (je *JSONExporter) SendScanResult(result *correlation.ScanResult) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logrus.Errorf("failed to marshal scan result: %v", err)
		return
	}
	if err := os.WriteFile(je.OutputPath, data, 0644); err != nil {
		logrus.Errorf("failed to write scan result to %s: %v", je.OutputPath, err)
	}
}
