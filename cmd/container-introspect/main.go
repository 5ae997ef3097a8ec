package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/spf13/afero"

	"github.com/Desperationis/penguin/pkg/config"
	"github.com/Desperationis/penguin/pkg/exporters"
	scannerv1 "github.com/Desperationis/penguin/pkg/scanner/v1"
)

func main() {
	ctx := context.Background()

	configDir := "/etc/config"
	if envPath := os.Getenv("CONFIG_DIR"); envPath != "" {
		configDir = envPath
	}

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		logger.L().Ctx(ctx).Fatal("load config error", helpers.Error(err))
	}

	// the rehosting environment usually exposes the inspected roots at
	// non-default locations, let the environment override the config file
	if procRoot := os.Getenv(config.ProcRootEnvVar); procRoot != "" {
		cfg.ProcRoot = procRoot
	}
	if cgroupRoot := os.Getenv(config.CgroupRootEnvVar); cgroupRoot != "" {
		cfg.CgroupRoot = cgroupRoot
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	introspector, err := scannerv1.NewIntrospectionScanner(cfg, afero.NewOsFs())
	if err != nil {
		logger.L().Ctx(ctx).Fatal("failed to set up introspection", helpers.Error(err))
	}

	result, err := introspector.Scan(ctx)
	if err != nil {
		logger.L().Ctx(ctx).Fatal("introspection scan failed", helpers.Error(err))
	}

	exporters.InitExporters(cfg.Exporters).SendScanResult(result)

	logger.L().Info("scan finished",
		helpers.Int("containers", len(result.Containers)),
		helpers.Interface("partial", result.Partial))
}
