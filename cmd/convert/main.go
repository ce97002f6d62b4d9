package main

import (
	"context"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/config"
	"github.com/MtnBiker/convert-apple-health-export/pkg/common/database"
	"github.com/MtnBiker/convert-apple-health-export/pkg/common/logger"
	"github.com/MtnBiker/convert-apple-health-export/pkg/conversion"
)

func main() {
	logger.Init()
	cfg := config.Load()

	svc, closeSinks, err := conversion.NewServiceFromConfig(cfg, nil)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to set up conversion")
	}

	result, err := svc.Run(context.Background(), cfg.InputPath, cfg.OutputPath)
	closeErr := closeSinks()
	database.ClosePostgres()
	database.CloseRedis()
	if err != nil {
		logger.Log.WithError(err).Fatal("conversion failed")
	}
	if closeErr != nil {
		logger.Log.WithError(closeErr).Warn("failed to close sinks")
	}

	logger.WithFields(map[string]interface{}{
		"run_id":    result.RunID,
		"records":   result.Records,
		"delivered": result.Delivered,
		"sinks":     result.Sinks,
		"duration":  result.Duration.String(),
		"output":    cfg.OutputPath,
	}).Info("Conversion finished")
}
