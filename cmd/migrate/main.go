package main

import (
	"context"
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"construyo-opshub/pkg/config"
	"construyo-opshub/pkg/db"
	"construyo-opshub/pkg/logger"
	"construyo-opshub/services/analytics"
	"construyo-opshub/services/audit"
	"construyo-opshub/services/records"
	"construyo-opshub/services/videogen"
)

// Applies the schema for every table the hub owns, then exits.
func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		fx.Invoke(migrate),
		fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
			return fxevent.NopLogger
		}),
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	_ = app.Stop(context.Background())
}

func migrate(gdb *gorm.DB, shutdowner fx.Shutdowner) error {
	err := gdb.AutoMigrate(
		&records.Lead{},
		&records.Customer{},
		&records.Invoice{},
		&records.BillingCredential{},
		&records.CrmConnection{},
		&audit.DeliveryLog{},
		&analytics.Event{},
		&videogen.VideoGeneration{},
	)
	if err != nil {
		return err
	}
	zap.L().Info("schema migrated")
	return shutdowner.Shutdown()
}
