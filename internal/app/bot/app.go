package bot

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/seerrbot/OverseerrBot/internal/bot/config"
	"github.com/seerrbot/OverseerrBot/internal/logcfg"
	"github.com/sirupsen/logrus"
)

// App is responsible for initializing dependencies and running the bot.
type App struct {
	serviceProvider *ServiceProvider
	config          *config.Config
	startedAt       time.Time
}

// NewApp creates a new instance of the application.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{startedAt: time.Now()}
	if err := app.initDeps(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

// Run starts the status endpoint and the Telegram update loop.
func (a *App) Run() {
	go a.runStatusServer()
	a.runTelegramBot()
}

func (a *App) initDeps(ctx context.Context) error {
	inits := []func(context.Context) error{
		a.initConfig,
		a.initServiceProvider,
	}
	for _, f := range inits {
		if err := f(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) initConfig(_ context.Context) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	a.config = cfg
	logcfg.RunLoggerConfig(cfg.EnvLogsLevel, cfg.EnvLogFileName)
	return nil
}

func (a *App) initServiceProvider(_ context.Context) error {
	a.serviceProvider = NewServiceProvider(a.config)
	return nil
}

// runTelegramBot starts the long-polling loop with graceful shutdown. State
// is persisted synchronously on every mutation; the ticker flush is only a
// safety net.
func (a *App) runTelegramBot() {
	botAPI, err := a.serviceProvider.BotAPI(a.config.EnvBotToken)
	if err != nil {
		logrus.Fatalf("[ERROR] can't make telegram bot, %v", err)
	}
	logrus.Infof("Bot API created successfully for %s", botAPI.Self.UserName)

	myBot := a.serviceProvider.BotService(botAPI)
	sessions := a.serviceProvider.Sessions()

	ticker := time.NewTicker(time.Minute * 5)
	defer ticker.Stop()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60 // seconds
	updates := botAPI.GetUpdatesChan(updateConfig)

	for {
		select {
		case sig := <-signalChan:
			logrus.Infof("Received %v signal, shutting down bot...", sig)
			if err = sessions.Persist(); err != nil {
				logrus.Error("Error while saving state on shutdown: ", err)
			}
			logrus.Info("Shutting down main loop...")
			return

		case <-ticker.C:
			if err = sessions.Persist(); err != nil {
				logrus.Error("Error while saving state on ticker: ", err)
			}

		case update, ok := <-updates:
			if !ok {
				logrus.Error("telegram update chan closed")
				return
			}
			// Updates for different participants may be handled
			// concurrently; the engine serializes per session.
			go myBot.UpdateProcessing(&update)
		}
	}
}
