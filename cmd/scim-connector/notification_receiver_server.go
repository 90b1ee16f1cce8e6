package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/identity-sync/scim-connector/internal/api"
	"github.com/identity-sync/scim-connector/internal/config"
	"github.com/identity-sync/scim-connector/internal/platform/logger"
	"github.com/identity-sync/scim-connector/internal/platform/utils"

	"github.com/gorilla/mux"
)

func startNotificationReceiver(listenAddr string, mgmtAddr string) {

	logger.InitLogger()

	logger.Log.Info("Starting SCIM-Connector notification receiver")

	cfg := config.GetConfig()
	logger.Log.Info("SCIM-Connector configuration:\n", cfg)

	router, err := buildRouter(cfg)
	if err != nil {
		logger.LogFatalError("Failed to build the notification router", err)
	}

	apiMux := mux.NewRouter()

	receiver := api.NewNotificationReceiver(router, apiMux, cfg.UrlBasePath, cfg)
	receiver.Routes()

	monitoringMux := mux.NewRouter()

	monitoringServer := api.NewMonitoringServer(monitoringMux, cfg)
	monitoringServer.Routes()

	apiSrv := utils.StartHTTPServer(listenAddr, "notification receiver", apiMux)
	mgmtSrv := utils.StartHTTPServer(mgmtAddr, "management", monitoringMux)

	signalChan := make(chan os.Signal, 1)

	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-signalChan
	logger.Log.Info("Received signal to shutdown: ", sig)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HttpShutdownTimeout)
	defer cancel()

	utils.ShutdownHTTPServer(ctx, "notification receiver", apiSrv)
	utils.ShutdownHTTPServer(ctx, "management", mgmtSrv)

	logger.Log.Info("SCIM-Connector shutting down")
}
