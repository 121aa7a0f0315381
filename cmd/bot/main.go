package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/okuznetsov/wine-quiz-bot/internal/config"
	"github.com/okuznetsov/wine-quiz-bot/internal/delivery/telegram"
	"github.com/okuznetsov/wine-quiz-bot/internal/domain/entities"
	"github.com/okuznetsov/wine-quiz-bot/internal/infra/postgres"
	pgrepo "github.com/okuznetsov/wine-quiz-bot/internal/infra/postgres/repository"
	"github.com/okuznetsov/wine-quiz-bot/internal/logger"
	"github.com/okuznetsov/wine-quiz-bot/internal/repository"
	"github.com/okuznetsov/wine-quiz-bot/internal/service"
	"github.com/okuznetsov/wine-quiz-bot/internal/storage"
)

func main() {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zlog.Sync() }()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		zlog.Fatal("failed to create bot", zap.Error(err))
	}
	zlog.Info("authorized on telegram", zap.String("username", bot.Self.UserName))

	// Set commands.
	commands := []tgbotapi.BotCommand{
		{Command: "quiz", Description: "Начать викторину"},
		{Command: "stop", Description: "Остановить викторину"},
		{Command: "stats", Description: "Моя статистика"},
		{Command: "top", Description: "Таблица лидеров"},
		{Command: "help", Description: "Помощь"},
	}
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		zlog.Warn("failed to set bot commands", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load and validate the question pool.
	questionRepo, warnings, err := repository.NewQuestionRepository(questionSources(cfg))
	if err != nil {
		zlog.Fatal("failed to load questions", zap.Error(err))
	}
	for _, warning := range warnings {
		zlog.Warn("question validation warning", zap.String("record", warning.Error()))
	}
	zlog.Info("questions loaded", zap.Int("count", questionRepo.Count(entities.ScopeAny)))

	dsn, err := cfg.DB.DSN()
	if err != nil {
		zlog.Fatal("database is not configured", zap.Error(err))
	}
	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	transactor := postgres.NewTransactor(pool)
	userRepo := pgrepo.NewUserRepository(pool)
	statsRepo := pgrepo.NewStatsRepository(pool, transactor)
	settingsRepo := pgrepo.NewSettingsRepository(pool)

	registry := storage.NewSessionRegistry()
	presenter := telegram.NewPresenter(bot, zlog)

	engine := service.NewQuizService(
		questionRepo,
		registry,
		statsRepo,
		presenter,
		settingsRepo,
		service.Config{
			QuestionTime: cfg.Quiz.QuestionTime,
			MinQuestions: cfg.Quiz.MinQuestions,
		},
		zlog,
	)

	// Scheduled question reload keeps long-running bots in sync with edits
	// to the question files without a restart.
	if cfg.Quiz.ReloadSchedule != "" {
		c := cron.New()
		_, err := c.AddFunc(cfg.Quiz.ReloadSchedule, func() {
			warnings, err := questionRepo.Reload()
			for _, warning := range warnings {
				zlog.Warn("question validation warning", zap.String("record", warning.Error()))
			}
			if err != nil {
				zlog.Warn("scheduled question reload failed", zap.Error(err))
				return
			}
			zlog.Info("questions reloaded",
				zap.Int("count", questionRepo.Count(entities.ScopeAny)),
			)
		})
		if err != nil {
			zlog.Fatal("invalid reload schedule", zap.Error(err))
		}
		c.Start()
		defer c.Stop()
	}

	handler := telegram.NewHandler(
		bot,
		zlog,
		cfg,
		engine,
		questionRepo,
		userRepo,
		statsRepo,
		settingsRepo,
		presenter,
	)
	if err := handler.Run(ctx); err != nil && ctx.Err() == nil {
		zlog.Fatal("handler stopped", zap.Error(err))
	}

	zlog.Info("shutdown signal received")
}

// questionSources maps the configured country/region catalogue onto files
// under the questions path.
func questionSources(cfg *config.Config) []repository.Source {
	var sources []repository.Source
	for _, country := range cfg.Countries {
		for _, region := range country.Regions {
			sources = append(sources, repository.Source{
				Country: country.Code,
				Region:  region.Code,
				File:    filepath.Join(cfg.QuestionsPath, country.Code, region.File),
			})
		}
	}
	return sources
}
