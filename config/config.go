package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileEnv — переменная с путём к необязательному YAML-файлу настроек.
const FileEnv = "FOODBOT_CONFIG"

type Config struct {
	TelegramToken       string        `yaml:"telegram_token" env:"TELEGRAM_TOKEN"`
	FoodAPIURL          string        `yaml:"food_api_url" env:"FOOD_API_URL"`
	FoodAPITimeout      time.Duration `yaml:"food_api_timeout" env:"FOOD_API_TIMEOUT"`
	FeedbackPageSize    int           `yaml:"feedback_page_size" env:"FEEDBACK_PAGE_SIZE"`
	DeleteRedirectDelay time.Duration `yaml:"delete_redirect_delay" env:"DELETE_REDIRECT_DELAY"`
	PreviewMaxSide      int           `yaml:"preview_max_side" env:"PREVIEW_MAX_SIDE"`
	LogLevel            string        `yaml:"log_level" env:"LOG_LEVEL"`
	AppEnv              string        `yaml:"app_env" env:"APP_ENV"`
	BotDebug            bool          `yaml:"bot_debug" env:"BOT_DEBUG"`
}

func defaults() *Config {
	return &Config{
		FeedbackPageSize:    10,
		DeleteRedirectDelay: time.Second,
		PreviewMaxSide:      512,
		LogLevel:            "info",
		AppEnv:              "development",
	}
}

// Load собирает настройки: значения по умолчанию, затем YAML-файл из
// FOODBOT_CONFIG, затем переменные окружения (включая .env).
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}
	return nil
}

// Validate проверяет обязательные поля и диапазоны.
func (c *Config) Validate() error {
	var errs []error
	if c.TelegramToken == "" {
		errs = append(errs, errors.New("TELEGRAM_TOKEN is required"))
	}
	if c.FoodAPIURL == "" {
		errs = append(errs, errors.New("FOOD_API_URL is required"))
	}
	if c.FoodAPITimeout < 0 {
		errs = append(errs, errors.New("FOOD_API_TIMEOUT must not be negative"))
	}
	if c.FeedbackPageSize <= 0 {
		errs = append(errs, errors.New("FEEDBACK_PAGE_SIZE must be positive"))
	}
	if c.DeleteRedirectDelay < 0 {
		errs = append(errs, errors.New("DELETE_REDIRECT_DELAY must not be negative"))
	}
	if c.PreviewMaxSide <= 0 {
		errs = append(errs, errors.New("PREVIEW_MAX_SIDE must be positive"))
	}
	return errors.Join(errs...)
}

// Production сообщает, что включён боевой режим логирования.
func (c *Config) Production() bool {
	return c.AppEnv == "production"
}
