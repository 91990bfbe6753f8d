package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"construyo-opshub/internal/provider"
	"construyo-opshub/internal/provider/resend"
	"construyo-opshub/internal/provider/respondio"
	"construyo-opshub/internal/provider/runway"
	"construyo-opshub/internal/provider/stripe"
	"construyo-opshub/internal/provider/zapier"
	"construyo-opshub/internal/router"
	"construyo-opshub/pkg/config"
	"construyo-opshub/pkg/db"
	"construyo-opshub/pkg/featureflags"
	"construyo-opshub/pkg/gen"
	"construyo-opshub/pkg/health"
	"construyo-opshub/pkg/logger"
	"construyo-opshub/pkg/otelcol"
	"construyo-opshub/pkg/profiling"
	"construyo-opshub/pkg/redis"
	"construyo-opshub/pkg/secretmanager"
	"construyo-opshub/pkg/server"
	"construyo-opshub/pkg/task"
	"construyo-opshub/services/analytics"
	"construyo-opshub/services/audit"
	"construyo-opshub/services/crmsync"
	"construyo-opshub/services/paymentlink"
	"construyo-opshub/services/records"
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
		task.Client,
		featureflags.Module,
		health.Module,

		provider.Module,
		stripe.Module,
		resend.Module,
		respondio.Module,
		zapier.Module,
		runway.Module,

		records.Module,
		audit.Module,
		analytics.Module,
		paymentlink.Module,
		crmsync.Module,
		videogen.Module,

		router.Module,
		server.Module,
		fxLogger,
	)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})
