// Package bot provides dependency injection and the run loop for the
// Overseerr Telegram bot.
package bot

import (
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/seerrbot/OverseerrBot/internal/bot/api"
	"github.com/seerrbot/OverseerrBot/internal/bot/config"
	"github.com/seerrbot/OverseerrBot/internal/bot/repository"
	"github.com/seerrbot/OverseerrBot/internal/bot/service"
	"github.com/sirupsen/logrus"
)

// ServiceProvider manages dependency injection for the bot components.
type ServiceProvider struct {
	cfg *config.Config

	sessions   *repository.Sessions
	botConfig  *repository.Config
	overseerr  *api.OverseerrAPI
	selections *service.SelectionCache
	engine     *service.Engine
	botAPI     *tgbotapi.BotAPI
	botService *service.TgBotService

	sessionsOnce   sync.Once
	configOnce     sync.Once
	overseerrOnce  sync.Once
	selectionsOnce sync.Once
	engineOnce     sync.Once
	botAPIOnce     sync.Once
	botServiceOnce sync.Once
}

// NewServiceProvider creates a provider for the given configuration.
func NewServiceProvider(cfg *config.Config) *ServiceProvider {
	return &ServiceProvider{cfg: cfg}
}

// Sessions returns the durable session store, loaded from disk.
func (s *ServiceProvider) Sessions() *repository.Sessions {
	s.sessionsOnce.Do(func() {
		s.sessions = repository.NewSessions(s.cfg.EnvSessionsPath)
		if err := s.sessions.Load(); err != nil {
			logrus.Errorf("Failed to load sessions: %v", err)
		} else {
			logrus.Info("Session store initialized")
		}
	})
	return s.sessions
}

// BotConfig returns the durable global config store, loaded from disk.
func (s *ServiceProvider) BotConfig() *repository.Config {
	s.configOnce.Do(func() {
		s.botConfig = repository.NewConfig(s.cfg.EnvBotConfigPath)
		if err := s.botConfig.Load(); err != nil {
			logrus.Errorf("Failed to load bot config: %v", err)
		} else {
			logrus.Info("Bot config store initialized")
		}
	})
	return s.botConfig
}

// Overseerr returns the backend API client.
func (s *ServiceProvider) Overseerr() *api.OverseerrAPI {
	s.overseerrOnce.Do(func() {
		s.overseerr = api.NewOverseerrAPI(s.cfg.EnvOverseerrURL, s.cfg.EnvOverseerrKey, s.cfg.EnvRequestTimeout)
		logrus.Info("Overseerr client initialized")
	})
	return s.overseerr
}

// Selections returns the pagination/selection cache.
func (s *ServiceProvider) Selections() *service.SelectionCache {
	s.selectionsOnce.Do(func() {
		s.selections = service.NewSelectionCache(0)
	})
	return s.selections
}

// Engine returns the conversation engine with its gates wired in.
func (s *ServiceProvider) Engine() *service.Engine {
	s.engineOnce.Do(func() {
		auth := service.NewAuthGate(s.cfg.EnvBotPassword, s.Sessions(), s.BotConfig())
		group := service.NewGroupGate(s.BotConfig())
		s.engine = service.NewEngine(s.Sessions(), s.BotConfig(), s.Overseerr(), s.Selections(), auth, group)
		logrus.Info("Conversation engine initialized")
	})
	return s.engine
}

// BotAPI returns the Telegram Bot API instance.
func (s *ServiceProvider) BotAPI(token string) (*tgbotapi.BotAPI, error) {
	var err error
	s.botAPIOnce.Do(func() {
		s.botAPI, err = tgbotapi.NewBotAPI(token)
		if err != nil {
			logrus.Errorf("Failed to initialize BotAPI: %v", err)
			s.botAPI = nil
		}
	})
	if s.botAPI == nil {
		return nil, fmt.Errorf("bot API not initialized")
	}
	return s.botAPI, nil
}

// BotService returns the Telegram orchestrator.
func (s *ServiceProvider) BotService(botAPI *tgbotapi.BotAPI) *service.TgBotService {
	s.botServiceOnce.Do(func() {
		s.botService = service.NewTgBot(botAPI, s.Engine())
		logrus.Info("BotService initialized")
	})
	return s.botService
}
