package main

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"verdant/internal/pkg/bootstrap"
	"verdant/internal/pkg/logger"
	"verdant/internal/pkg/zookeeper"
	"verdant/internal/service/order/application"
	"verdant/internal/service/order/infrastructure"
)

const (
	serviceName = "order-reconciler"
	servicePort = 8087
)

// The reconciler finishes what phase 2 of a cancellation could not: vendor
// sub-orders whose main order is already CANCELLED. A zookeeper lock keeps
// exactly one instance sweeping, so running replicas for availability is safe.
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := bootstrap.GetCurrentConfig()

			db, err := gorm.Open(mysql.Open(cfg.Infra.Mysql.DSN), &gorm.Config{
				Logger: gormlogger.Default.LogMode(gormlogger.Warn),
			})
			if err != nil {
				logger.Logger().Fatal().Err(err).Msg("failed to connect to mysql")
			}
			store := infrastructure.NewGormStore(db)
			reconciler := application.NewReconciler(store, otel.Tracer(serviceName), cfg.App.ReconcileBatch)

			interval, err := time.ParseDuration(cfg.App.ReconcileInterval)
			if err != nil {
				interval = 30 * time.Second
			}

			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

			go runSweeper(cfg.Infra.Zookeeper.Servers, reconciler, interval)
		},
	})
}

func runSweeper(zkServers []string, reconciler *application.Reconciler, interval time.Duration) {
	conn, err := zookeeper.Connect(zkServers)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to connect to zookeeper")
	}
	lock, err := zookeeper.NewDistributedLock(conn, "suborder-reconciler")
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to prepare reconciler lock")
	}

	// Block until this instance becomes the active sweeper. The lock is
	// ephemeral: if we die, a standby takes over.
	if err := lock.Lock(); err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to acquire reconciler lock")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Logger().Error().Err(err).Msg("failed to release reconciler lock")
		}
	}()
	logger.Logger().Info().Dur("interval", interval).Msg("reconciler lock acquired, sweeping")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		if _, err := reconciler.Sweep(ctx); err != nil {
			logger.Logger().Error().Err(err).Msg("reconciliation sweep failed")
		}
		cancel()
	}
}
