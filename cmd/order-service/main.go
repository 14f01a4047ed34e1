package main

import (
	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"verdant/internal/pkg/bootstrap"
	"verdant/internal/pkg/logger"
	"verdant/internal/pkg/mq"
	"verdant/internal/pkg/redis"
	"verdant/internal/service/order/application"
	"verdant/internal/service/order/infrastructure"
	"verdant/internal/service/order/interfaces"
	"verdant/internal/service/order/port"
)

const (
	serviceName = "order-service"
	servicePort = 8084
)

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
			if err := infrastructure.Migrate(db); err != nil {
				logger.Logger().Fatal().Err(err).Msg("failed to run migrations")
			}
			store := infrastructure.NewGormStore(db)

			// The cache is an optimization; a missing redis never blocks
			// startup of the write path.
			var cache port.OrderListCache
			if redisClient, err := redis.NewClient(cfg.Infra.Redis.Addr); err != nil {
				logger.Logger().Warn().Err(err).Msg("redis unavailable, order list cache disabled")
			} else {
				cache = infrastructure.NewOrderListCacheAdapter(redisClient)
			}

			writer := mq.NewWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.Topic)
			events := infrastructure.NewOrderEventAdapter(writer)

			service := application.NewOrderApplicationService(
				store,
				events,
				cache,
				otel.Tracer(serviceName),
				cfg.App.PlaceOrderRetries,
			)
			interfaces.NewOrderHandler(service).RegisterRoutes(appCtx.Mux)
		},
	})
}
