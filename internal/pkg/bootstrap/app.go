package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"verdant/internal/pkg/logger"
	"verdant/internal/pkg/nacos"
	"verdant/internal/pkg/tracing"
)

// AppCtx is handed to each service's route-registration hook.
type AppCtx struct {
	Mux   *http.ServeMux
	Nacos *nacos.Client
}

// AppInfo carries everything service-specific about a process.
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx)
}

// StartService runs the shared startup/shutdown sequence: config, logging,
// tracing, nacos registration, HTTP server, then blocks until SIGINT/SIGTERM
// and unwinds in reverse order.
func StartService(info AppInfo) {
	cfg, err := LoadConfig()
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(info.ServiceName, cfg.App.LogLevel)

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	namingClient, err := nacos.NewNacosClient(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize nacos client")
	}

	ip, err := outboundIP()
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to resolve outbound IP")
	}
	if err := namingClient.RegisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to register with nacos")
	}

	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Nacos: namingClient})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}
	go func() {
		logger.Logger().Info().Msgf("%s listening on :%d", info.ServiceName, info.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger().Fatal().Err(err).Msgf("could not listen on %s", server.Addr)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Logger().Info().Msgf("shutting down %s", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Reverse order: deregister first so no new traffic routes here, then
	// flush traces, then drain the HTTP server.
	if err := namingClient.DeregisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
		logger.Logger().Error().Err(err).Msg("nacos deregistration failed")
	}
	if err := tp.Shutdown(ctx); err != nil {
		logger.Logger().Error().Err(err).Msg("tracer provider shutdown failed")
	}
	if err := server.Shutdown(ctx); err != nil {
		logger.Logger().Error().Err(err).Msg("http server shutdown failed")
	}
	logger.Logger().Info().Msgf("%s gracefully shut down", info.ServiceName)
}

// outboundIP finds the host's preferred egress address for registration.
func outboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
