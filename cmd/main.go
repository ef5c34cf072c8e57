package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"food-bot/config"
	telegram "food-bot/internal/api"
	"food-bot/internal/container"
	"food-bot/internal/infrastructure/foodapi"
	"food-bot/internal/infrastructure/storage"
	"food-bot/internal/infrastructure/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Создаём хранилище пользователей
	userRepo := storage.NewMemoryUserRepository()

	// Клиент API распознавания блюд
	api := foodapi.NewClient(cfg.FoodAPIURL, cfg.FoodAPITimeout, logger.Named("foodapi"))

	// Собираем сервисы приложения
	appContainer := container.New(userRepo, api, vision.NewPreviewer(cfg.PreviewMaxSide), container.Settings{
		FeedbackPageSize:    cfg.FeedbackPageSize,
		DeleteRedirectDelay: cfg.DeleteRedirectDelay,
	}, logger)

	// Создаём бота
	bot, err := telegram.NewBot(cfg.TelegramToken, cfg.BotDebug, cfg.FoodAPIURL, appContainer, logger.Named("bot"))
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	logger.Info("Bot is running...", zap.String("food_api", cfg.FoodAPIURL))
	if err := bot.Run(ctx); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewDevelopmentConfig()
	if cfg.Production() {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
