package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"construyo-opshub/internal/provider"
	"construyo-opshub/internal/provider/runway"
	"construyo-opshub/pkg/config"
	"construyo-opshub/pkg/db"
	"construyo-opshub/pkg/gen"
	"construyo-opshub/pkg/logger"
	"construyo-opshub/pkg/objectstore"
	"construyo-opshub/pkg/otelcol"
	"construyo-opshub/pkg/profiling"
	"construyo-opshub/pkg/redis"
	"construyo-opshub/pkg/secretmanager"
	"construyo-opshub/pkg/task"
	"construyo-opshub/services/analytics"
	"construyo-opshub/services/videogen"
)

func main() {
	app := fx.New(
		secretmanager.Module,
		config.Module,
		logger.Module,
		otelcol.Module,
		profiling.Module,
		db.Module,
		redis.Module,
		gen.Module,
		task.Server,

		provider.Module,
		runway.Module,
		objectstore.Module,

		analytics.Module,
		videogen.WorkerModule,
		fxLogger,
	)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})
