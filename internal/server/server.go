// Пакет server — HTTP-сервер файлового обменника с TLS и graceful shutdown.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/gofileshare/internal/api/handlers"
	"github.com/bigkaa/gofileshare/internal/api/middleware"
	"github.com/bigkaa/gofileshare/internal/config"
)

// Server — HTTP-сервер файлового обменника.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	api *handlers.API,
	auth *middleware.TokenAuth,
	uploadLimiter *middleware.UploadRateLimiter,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.MetricsMiddleware())

	// Публичные endpoints
	router.Post("/login", api.Auth.Login)
	router.Get("/health/live", api.Health.Live)
	router.Get("/health/ready", api.Health.Ready)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	router.Get("/api/v1/info", api.System.Info)

	// API файлов — только с валидным токеном
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware())

		r.Get("/api/v1/categories", api.Files.Categories)
		r.Get("/api/v1/files", api.Files.List)
		r.With(uploadLimiter.Middleware()).Post("/api/v1/files/upload", api.Files.Upload)
		r.Post("/api/v1/files/archive", api.Files.Archive)
		r.Post("/api/v1/files/delete", api.Files.DeleteBulk)
		r.Get("/api/v1/files/{name}/download", api.Files.Download)
		r.Get("/api/v1/files/{name}/thumbnail", api.Files.Thumbnail)
		r.Delete("/api/v1/files/{name}", api.Files.DeleteOne)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		// WriteTimeout не задаём: скачивание больших файлов и стриминг
		// архива могут длиться дольше любого разумного фиксированного лимита.
		IdleTimeout: 120 * time.Second,
	}

	// Настройка TLS
	if cfg.TLSCert != "" && cfg.TLSKey != "" {
		srv.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown с таймаутом из конфигурации.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
			slog.Bool("tls", s.cfg.TLSCert != ""),
		)

		var err error
		if s.cfg.TLSCert != "" && s.cfg.TLSKey != "" {
			err = s.httpServer.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			err = s.httpServer.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
