package main

import (
	"knnect-svr/internal/config"
	"knnect-svr/internal/dispatcher"
	"knnect-svr/internal/hub"
	"knnect-svr/internal/link"
	"knnect-svr/internal/observability"
	"knnect-svr/internal/server"
	"knnect-svr/internal/store"
	"knnect-svr/internal/ws"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.LogLevel)
	logger.Info("Starting knnect-svr...", "port", cfg.TCPPort)

	// Inicializar Redis antes del server
	st, err := store.NewStore(cfg.RedisAddr, cfg.RedisDB, logger)
	if err != nil {
		logger.Error("Redis init failed", "error", err)
		return
	}
	defer st.Close()

	h := hub.New(logger)
	link.Init(cfg.ProxyAddr, h, logger)

	go observability.StartMetricsServer(cfg.MetricsPort)
	go ws.StartServer(cfg.WSPort, h, logger)

	d := dispatcher.New(st, h, logger)
	srv := server.New(server.Config{
		MaxRecordBytes: cfg.MaxRecordBytes,
		IdleTimeout:    cfg.IdleTimeout,
	}, d, logger)

	// Inicia el servidor TCP directamente
	if err := srv.Start(":" + cfg.TCPPort); err != nil {
		logger.Error("TCP server failed", "error", err)
	}
}
