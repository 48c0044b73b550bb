package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/eduportal/internal/app"
	"github.com/shrimpsizemoose/eduportal/internal/models"
)

// Reporter is the part of the service the bot reads from.
type Reporter interface {
	Snapshot(ctx context.Context) (*models.Document, error)
	Report(doc *models.Document) app.Report
	StudentReport(ctx context.Context, email string) (*app.StudentReport, error)
	OverdueAssignments(ctx context.Context, email string) ([]app.AssignmentView, error)
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	config   *app.Config
	reporter Reporter
	api      sender
	admins   map[int64]bool
	updates  func() tgbotapi.UpdatesChannel
}

func New(config *app.Config, reporter Reporter) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(config.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = config.Bot.Debug
	logger.Info.Printf("Authorized on account %s", api.Self.UserName)

	b := newBot(config, reporter, api)
	b.updates = func() tgbotapi.UpdatesChannel {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		return api.GetUpdatesChan(u)
	}
	return b, nil
}

func newBot(config *app.Config, reporter Reporter, api sender) *Bot {
	admins := make(map[int64]bool)
	for _, id := range config.Bot.AdminIDs {
		admins[id] = true
	}

	return &Bot{
		config:   config,
		reporter: reporter,
		api:      api,
		admins:   admins,
	}
}

func (b *Bot) Start() error {
	updates := b.updates()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			go b.handleMessage(update.Message)

		case <-sigChan:
			logger.Info.Println("Shutting down bot...")
			return nil
		}
	}
}
