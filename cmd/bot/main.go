package main

import (
	"flag"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/eduportal/internal/app"
	"github.com/shrimpsizemoose/eduportal/internal/bot"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	var envPath = flag.String("env", ".env", "Optional dotenv file with secrets")
	flag.Parse()

	app.LoadDotEnv(*envPath)

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}

	store, err := app.NewStore(cfg)
	if err != nil {
		logger.Error.Fatalf("Failed to create store: %v", err)
	}

	// The bot only reads, so it runs without sessions.
	service := app.New(cfg, store, &app.Auth{})
	defer service.Close()

	b, err := bot.New(cfg, service)
	if err != nil {
		logger.Error.Fatalf("Failed to create bot: %v", err)
	}

	logger.Info.Println("Bot initialized successfully")
	if err := b.Start(); err != nil {
		logger.Error.Fatalf("Bot error: %v", err)
	}
}
