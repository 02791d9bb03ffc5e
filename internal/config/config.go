// Пакет config — загрузка и валидация конфигурации Mini Movies
// из переменных окружения (с поддержкой .env файла).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// DefaultEnvFile — .env файл, читаемый при старте, если путь не задан явно.
const DefaultEnvFile = ".env"

// Config содержит все параметры конфигурации Mini Movies.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 0 — без ограничения, потоки видео длинные)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration

	// --- Telegram ---

	// Токен бота. Пустой — потоковая выдача и бот недоступны
	TelegramBotToken string
	// Базовый URL Bot API
	TelegramAPIURL string
	// Таймаут вызова метода Bot API (getFile, sendMessage)
	TelegramTimeout time.Duration
	// Таймаут ожидания заголовков ответа при скачивании файла
	UpstreamHeaderTimeout time.Duration
	// Допустимое число вызовов Bot API в секунду
	TelegramRateLimit float64
	// Allow-list chat id администраторов
	AdminChatIDs []int64
	// Таймаут long polling
	BotPollTimeout time.Duration

	// --- Каталог и сайт ---

	// Публичный адрес сайта (для streamURL и ссылок бота). Пустой — из запроса
	PublicBaseURL string
	// YAML-файл начального наполнения каталога (необязательно)
	CatalogSeedPath string
	// Каталог статических файлов сайта (необязательно)
	StaticDir string

	// --- Мониторинг зависимостей ---

	// Имя группы в метриках dephealth
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration
}

// LoadEnvFile загружает переменные из .env файла. Уже заданные переменные
// окружения не перезаписываются.
// path == "" — читается DefaultEnvFile, его отсутствие не ошибка.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("загрузка %s: %w", path, err)
	}
	return nil
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// MM_PORT — порт HTTP-сервера (по умолчанию 5000)
	cfg.Port, err = getEnvInt("MM_PORT", 5000)
	if err != nil {
		return nil, fmt.Errorf("MM_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("MM_PORT: порт %d вне диапазона 1-65535", cfg.Port)
	}

	// MM_LOG_LEVEL — уровень логирования (по умолчанию info)
	logLevel := getEnvDefault("MM_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("MM_LOG_LEVEL: %w", err)
	}

	// MM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("MM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("MM_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	// MM_HTTP_READ_TIMEOUT — таймаут чтения (по умолчанию 30s)
	cfg.HTTPReadTimeout, err = getEnvDuration("MM_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MM_HTTP_READ_TIMEOUT: %w", err)
	}

	// MM_HTTP_WRITE_TIMEOUT — таймаут записи (по умолчанию 0 — без ограничения)
	cfg.HTTPWriteTimeout, err = getEnvDuration("MM_HTTP_WRITE_TIMEOUT", 0)
	if err != nil {
		return nil, fmt.Errorf("MM_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// MM_HTTP_IDLE_TIMEOUT — таймаут простоя (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvDuration("MM_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MM_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	// MM_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("MM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MM_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- Telegram ---

	// MM_TELEGRAM_BOT_TOKEN — токен бота (необязательно)
	cfg.TelegramBotToken = strings.TrimSpace(os.Getenv("MM_TELEGRAM_BOT_TOKEN"))

	// MM_TELEGRAM_API_URL — базовый URL Bot API
	cfg.TelegramAPIURL = strings.TrimRight(getEnvDefault("MM_TELEGRAM_API_URL", "https://api.telegram.org"), "/")
	if err := validateHTTPURL(cfg.TelegramAPIURL); err != nil {
		return nil, fmt.Errorf("MM_TELEGRAM_API_URL: %w", err)
	}

	// MM_TELEGRAM_TIMEOUT — таймаут вызова Bot API (по умолчанию 15s)
	cfg.TelegramTimeout, err = getEnvPositiveDuration("MM_TELEGRAM_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MM_TELEGRAM_TIMEOUT: %w", err)
	}

	// MM_UPSTREAM_HEADER_TIMEOUT — таймаут заголовков при скачивании (по умолчанию 30s)
	cfg.UpstreamHeaderTimeout, err = getEnvPositiveDuration("MM_UPSTREAM_HEADER_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MM_UPSTREAM_HEADER_TIMEOUT: %w", err)
	}

	// MM_TELEGRAM_RATE_LIMIT — вызовов Bot API в секунду (по умолчанию 25, 0 — без ограничения)
	cfg.TelegramRateLimit, err = getEnvFloat("MM_TELEGRAM_RATE_LIMIT", 25)
	if err != nil {
		return nil, fmt.Errorf("MM_TELEGRAM_RATE_LIMIT: %w", err)
	}
	if cfg.TelegramRateLimit < 0 {
		return nil, fmt.Errorf("MM_TELEGRAM_RATE_LIMIT: значение должно быть >= 0")
	}

	// MM_ADMIN_CHAT_IDS — chat id администраторов через запятую
	cfg.AdminChatIDs, err = parseChatIDs(os.Getenv("MM_ADMIN_CHAT_IDS"))
	if err != nil {
		return nil, fmt.Errorf("MM_ADMIN_CHAT_IDS: %w", err)
	}

	// MM_BOT_POLL_TIMEOUT — таймаут long polling (по умолчанию 30s)
	cfg.BotPollTimeout, err = getEnvPositiveDuration("MM_BOT_POLL_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MM_BOT_POLL_TIMEOUT: %w", err)
	}

	// --- Каталог и сайт ---

	// MM_PUBLIC_BASE_URL — публичный адрес сайта (необязательно)
	cfg.PublicBaseURL = strings.TrimRight(os.Getenv("MM_PUBLIC_BASE_URL"), "/")
	if cfg.PublicBaseURL != "" {
		if err := validateHTTPURL(cfg.PublicBaseURL); err != nil {
			return nil, fmt.Errorf("MM_PUBLIC_BASE_URL: %w", err)
		}
	}

	// MM_CATALOG_SEED_PATH — YAML начального наполнения (необязательно)
	cfg.CatalogSeedPath = os.Getenv("MM_CATALOG_SEED_PATH")

	// MM_STATIC_DIR — каталог статических файлов (необязательно)
	cfg.StaticDir = os.Getenv("MM_STATIC_DIR")
	if cfg.StaticDir != "" {
		info, err := os.Stat(cfg.StaticDir)
		if err != nil {
			return nil, fmt.Errorf("MM_STATIC_DIR: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("MM_STATIC_DIR: %q не является директорией", cfg.StaticDir)
		}
	}

	// --- Мониторинг зависимостей ---

	// MM_DEPHEALTH_GROUP — группа в метриках dephealth (по умолчанию minimovies)
	cfg.DephealthGroup = getEnvDefault("MM_DEPHEALTH_GROUP", "minimovies")

	// MM_DEPHEALTH_CHECK_INTERVAL — интервал проверки (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvPositiveDuration("MM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	return cfg, nil
}

// TelegramEnabled возвращает true, если задан токен бота.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

// WebsiteURL возвращает публичный адрес сайта для сообщений бота.
func (c *Config) WebsiteURL() string {
	if c.PublicBaseURL != "" {
		return c.PublicBaseURL
	}
	return fmt.Sprintf("http://localhost:%d", c.Port)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvFloat возвращает дробное значение переменной окружения или значение по умолчанию.
func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное число: %q", val)
	}
	return f, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	if d < 0 {
		return 0, fmt.Errorf("значение должно быть >= 0")
	}
	return d, nil
}

// getEnvPositiveDuration — как getEnvDuration, но значение должно быть > 0.
func getEnvPositiveDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	d, err := getEnvDuration(key, defaultVal)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// parseChatIDs разбирает список chat id через запятую.
// Пустые элементы пропускаются, дубликаты удаляются.
func parseChatIDs(val string) ([]int64, error) {
	var ids []int64
	seen := make(map[int64]bool)
	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("некорректный chat id: %q", part)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// validateHTTPURL проверяет, что значение — абсолютный http(s) URL.
func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("некорректный URL %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("ожидается http(s) URL, получено %q", raw)
	}
	return nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
