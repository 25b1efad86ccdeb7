package bootstrap

import (
	"log/slog"

	"careline/internal/careapi"
	"careline/internal/config"
	"careline/internal/ports"
	"careline/internal/providers/sttstream"
	"careline/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.SessionController
	Config     config.Config
}

// Build wires the monitoring pipeline for the current runtime.
func Build(sink ports.EventSink, logger *slog.Logger) Services {
	cfg := config.Load()
	if logger == nil {
		logger = slog.Default()
	}

	controller := usecase.NewSessionController(
		sttstream.NewStreamer(sttstream.Config{
			BaseURL:    cfg.STT.BaseURL,
			BufferSize: cfg.STT.BufferSize,
		}, logger),
		careapi.NewClient(careapi.Config{
			BaseURL: cfg.CareAPI.BaseURL,
			Timeout: cfg.CareAPI.Timeout,
		}),
		sink,
		logger,
		usecase.Config{
			AlertTTL:     cfg.Session.AlertTTL,
			DrainTimeout: cfg.Session.DrainTimeout,
			CustomerNo:   cfg.Session.CustomerNo,
			BranchName:   cfg.Session.BranchName,
		},
	)

	return Services{Controller: controller, Config: cfg}
}
