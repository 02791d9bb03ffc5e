// main.go — точка входа Mini Movies: HTTP API потоковой выдачи видео из
// Telegram, каталог и чат-бот администратора.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bigkaa/minimovies/internal/api/handlers"
	"github.com/bigkaa/minimovies/internal/api/middleware"
	"github.com/bigkaa/minimovies/internal/api/openapi"
	"github.com/bigkaa/minimovies/internal/bot"
	"github.com/bigkaa/minimovies/internal/catalog"
	"github.com/bigkaa/minimovies/internal/config"
	"github.com/bigkaa/minimovies/internal/server"
	"github.com/bigkaa/minimovies/internal/service"
	"github.com/bigkaa/minimovies/internal/tgclient"
)

// serviceID — имя приложения в графе зависимостей topologymetrics.
const serviceID = "minimovies"

func main() {
	envFile := pflag.String("env-file", "", "путь к .env файлу (по умолчанию ./"+config.DefaultEnvFile+", если существует)")
	showVersion := pflag.Bool("version", false, "вывести версию и выйти")
	pflag.Parse()

	if *showVersion {
		fmt.Println(config.Version)
		return
	}

	// 1. Загрузка конфигурации: .env, затем переменные окружения
	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Mini Movies запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.Bool("telegram", cfg.TelegramEnabled()),
		slog.Int("admins", len(cfg.AdminChatIDs)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Каталог
	store := catalog.New(logger)
	if cfg.CatalogSeedPath != "" {
		if _, seedErr := store.LoadSeed(cfg.CatalogSeedPath); seedErr != nil {
			logger.Error("Ошибка загрузки начального каталога",
				slog.String("path", cfg.CatalogSeedPath),
				slog.String("error", seedErr.Error()),
			)
			os.Exit(1)
		}
	}
	catalogSvc := service.NewCatalogService(store, logger)

	// 4. Telegram Bot API (необязательно)
	var (
		tg           *tgclient.Client
		source       service.FileSource
		deps         handlers.DependencyChecker
		dephealthSvc *service.DephealthService
		adminBot     *bot.Bot
	)
	if cfg.TelegramEnabled() {
		tg, err = tgclient.New(tgclient.Options{
			APIURL:        cfg.TelegramAPIURL,
			Token:         cfg.TelegramBotToken,
			Timeout:       cfg.TelegramTimeout,
			HeaderTimeout: cfg.UpstreamHeaderTimeout,
			RateLimit:     cfg.TelegramRateLimit,
		}, logger)
		if err != nil {
			logger.Error("Ошибка инициализации клиента Bot API", slog.String("error", err.Error()))
			os.Exit(1)
		}
		source = tg

		// 4.1 topologymetrics — мониторинг доступности Bot API
		ds, dsErr := service.NewDephealthService(service.DephealthConfig{
			ServiceID:      serviceID,
			Group:          cfg.DephealthGroup,
			TelegramAPIURL: tg.APIURL(),
			CheckInterval:  cfg.DephealthCheckInterval,
		}, logger)
		if dsErr != nil {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
				slog.String("error", dsErr.Error()),
			)
		} else if startErr := ds.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			dephealthSvc = ds
			deps = ds
			logger.Info("topologymetrics запущен",
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}

		// 4.2 Чат-бот администратора
		adminBot = bot.New(tg, catalogSvc, bot.Options{
			AdminChatIDs: cfg.AdminChatIDs,
			WebsiteURL:   cfg.WebsiteURL(),
			PollTimeout:  cfg.BotPollTimeout,
		}, logger)
		adminBot.Start(ctx)
		logger.Info("Чат-бот запущен", slog.Int("admins", len(cfg.AdminChatIDs)))
	} else {
		logger.Warn("MM_TELEGRAM_BOT_TOKEN не задан: потоковая выдача и чат-бот отключены")
	}

	streamSvc := service.NewStreamService(catalogSvc, source, logger)

	// 5. OpenAPI контракт (валидация тел запросов, GET /openapi.yaml)
	spec, err := openapi.Load(ctx)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI контракта", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Handlers
	healthHandler := handlers.NewHealthHandler(deps, catalogSvc)
	apiHandler := handlers.NewAPIHandler(healthHandler, streamSvc, catalogSvc, spec, cfg.PublicBaseURL, logger)

	// 7. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler,
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	)

	runErr := srv.Run()

	// --- Остановка фоновых процессов ---
	logger.Info("Остановка фоновых процессов...")
	if adminBot != nil {
		adminBot.Stop()
	}
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	cancel()

	if runErr != nil {
		logger.Error("Ошибка сервера", slog.String("error", runErr.Error()))
		os.Exit(1)
	}

	logger.Info("Mini Movies остановлен")
}
