// Точка входа файлового обменника для локальной сети.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/bigkaa/gofileshare/internal/api/handlers"
	"github.com/bigkaa/gofileshare/internal/api/middleware"
	"github.com/bigkaa/gofileshare/internal/config"
	"github.com/bigkaa/gofileshare/internal/server"
	"github.com/bigkaa/gofileshare/internal/service"
	"github.com/bigkaa/gofileshare/internal/storage/filestore"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Файловый обменник запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
	)

	// --- Инициализация компонентов ---

	// 1. Файловое хранилище
	store, err := filestore.New(cfg.DataDir)
	if err != nil {
		logger.Error("Ошибка инициализации FileStore", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Сервисы
	uploadSvc := service.NewUploadService(cfg, store, logger)
	catalogSvc := service.NewCatalogService(store, logger)
	downloadSvc := service.NewDownloadService(store, logger)
	archiveSvc := service.NewArchiveService(store, logger)
	deleteSvc := service.NewDeleteService(store, logger)

	// 3. Middleware: токены и ограничение частоты загрузок
	tokenAuth := middleware.NewTokenAuth(cfg.TokenSecret, cfg.TokenTTL, logger)
	uploadLimiter := middleware.NewUploadRateLimiter(cfg.UploadRateMax, cfg.UploadRateWindow, logger)

	// 4. Handlers
	api := &handlers.API{
		Files:  handlers.NewFilesHandler(cfg, uploadSvc, catalogSvc, downloadSvc, archiveSvc, deleteSvc, store, logger),
		Auth:   handlers.NewAuthHandler(cfg, tokenAuth, logger),
		System: handlers.NewSystemHandler(cfg),
		Health: handlers.NewHealthHandler(cfg.DataDir),
	}

	// 5. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, api, tokenAuth, uploadLimiter)

	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Файловый обменник остановлен")
}
