package exporters

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Desperationis/penguin/pkg/correlation"
)

// CsvExporter appends one row per introspected process to a csv file
type CsvExporter struct {
	CsvPath string
}

// InitCsvExporter initializes a new CsvExporter
func InitCsvExporter(csvPath string) *CsvExporter {
	if csvPath == "" {
		csvPath = os.Getenv("EXPORTER_CSV_PATH")
		if csvPath == "" {
			logrus.Debugf("csv path not provided, scan results will not be exported to csv")
			return nil
		}
	}

	if _, err := os.Stat(csvPath); os.IsNotExist(err) {
		writeHeaders(csvPath)
	}

	return &CsvExporter{
		CsvPath: csvPath,
	}
}

// SendScanResult sends the scan result to csv
func (ce *CsvExporter) SendScanResult(result *correlation.ScanResult) {
	csvFile, err := os.OpenFile(ce.CsvPath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		logrus.Errorf("failed to initialize csv exporter: %v", err)
		return
	}
	defer csvFile.Close()

	csvWriter := csv.NewWriter(csvFile)
	defer csvWriter.Flush()

	for _, container := range result.Containers {
		if len(container.Processes) == 0 {
			csvWriter.Write([]string{
				container.ID,
				string(container.Status),
				fmt.Sprintf("%t", container.Ambiguous),
				fmt.Sprintf("%d", container.NamespaceID),
				container.CgroupPath,
				"", "", "",
				fmt.Sprintf("%t", result.Partial),
			})
			continue
		}
		for _, process := range container.Processes {
			csvWriter.Write([]string{
				container.ID,
				string(container.Status),
				fmt.Sprintf("%t", container.Ambiguous),
				fmt.Sprintf("%d", container.NamespaceID),
				container.CgroupPath,
				fmt.Sprintf("%d", process.HostPID),
				fmt.Sprintf("%d", process.LocalPID),
				process.Name,
				fmt.Sprintf("%t", result.Partial),
			})
		}
	}
}

func writeHeaders(csvPath string) {
	csvFile, err := os.OpenFile(csvPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logrus.Errorf("failed to initialize csv exporter: %v", err)
		return
	}
	defer csvFile.Close()

	csvWriter := csv.NewWriter(csvFile)
	defer csvWriter.Flush()
	csvWriter.Write([]string{
		"Container ID",
		"Status",
		"Ambiguous",
		"PID Namespace",
		"Cgroup Path",
		"Host PID",
		"Local PID",
		"Process Name",
		"Partial",
	})
}
