package main

import (
	"context"
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/eduportal/internal/app"
	"github.com/shrimpsizemoose/eduportal/internal/handlers"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config")
	envPath := flag.String("env", ".env", "optional dotenv file with secrets")
	flag.Parse()

	app.LoadDotEnv(*envPath)

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	if err := service.Bootstrap(context.Background()); err != nil {
		logger.Error.Fatalf("Failed to bootstrap store: %v", err)
	}

	mux := http.NewServeMux()
	handlers.NewAPIHandler(service).Register(mux)
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting eduportal server on %s", service.Config.Server.Port)
	logger.Info.Printf("Auth enabled: %v", service.Auth.Enabled())
	logger.Debug.Println("Requiring headers:")
	for _, h := range service.Config.API.RequiredHeaders {
		logger.Debug.Printf("  %s: %s", h.Name, h.Value)
	}
	if err := http.ListenAndServe(service.Config.Server.Port, mux); err != nil {
		logger.Error.Fatalf("Eduportal server failed: %v", err)
	}
}
