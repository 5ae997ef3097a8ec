package exporters

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/Desperationis/penguin/pkg/correlation"
)

type StdoutExporter struct {
	logger *log.Logger
}

func InitStdoutExporter(useStdout *bool) *StdoutExporter {
	if useStdout == nil {
		useStdout = new(bool)
		*useStdout = os.Getenv("STDOUT_ENABLED") != "false"
	}
	if !*useStdout {
		return nil
	}

	logger := log.New()
	logger.SetFormatter(&log.JSONFormatter{})
	logger.SetOutput(os.Stderr)

	return &StdoutExporter{
		logger: logger,
	}
}

// SendScanResult emits one structured record per container: identifier,
// ambiguity flag, pid namespace and the (host PID, local PID, name) triples.
func (exporter *StdoutExporter) SendScanResult(result *correlation.ScanResult) {
	for _, container := range result.Containers {
		exporter.logger.WithFields(log.Fields{
			"containerId":    container.ID,
			"status":         string(container.Status),
			"ambiguous":      container.Ambiguous,
			"pidNamespace":   container.NamespaceID,
			"cgroupPath":     container.CgroupPath,
			"initHostPid":    container.InitHostPID,
			"sourceMismatch": container.SourceMismatch(),
			"processes":      container.Processes,
			"partial":        result.Partial,
		}).Info("container introspected")
	}
}
