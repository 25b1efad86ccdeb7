package main

import (
	"log/slog"
	"os"

	"careline/internal/bootstrap"
	"careline/internal/transport/httpapi"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	feed := httpapi.NewMonitorFeed(logger)
	services := bootstrap.Build(feed, logger)

	handler := httpapi.NewHandler(services.Controller, feed)
	e := httpapi.NewServer(handler)

	logger.Info("careline listening",
		"addr", services.Config.HTTP.ListenAddr,
		"stt_base", services.Config.STT.BaseURL,
		"api_base", services.Config.CareAPI.BaseURL,
	)
	if err := e.Start(services.Config.HTTP.ListenAddr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
