// Пакет config — загрузка и валидация конфигурации файлового обменника
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации сервиса.
// Значение неизменяемо после Load и внедряется в компоненты при конструировании.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Путь к директории хранения файлов
	DataDir string
	// Пароль доступа к сервису
	Password string
	// Секрет подписи access-токенов (HS256)
	TokenSecret string
	// Время жизни access-токена
	TokenTTL time.Duration
	// Максимальный размер одного файла в байтах
	MaxFileSize int64
	// Максимальное количество файлов в одном пакете загрузки
	MaxFiles int
	// Окно rate limiter загрузок
	UploadRateWindow time.Duration
	// Максимум загрузок с одного адреса за окно
	UploadRateMax int
	// Путь к TLS сертификату (опционально)
	TLSCert string
	// Путь к TLS приватному ключу (опционально)
	TLSKey string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}

	// FS_PORT — порт HTTP-сервера (по умолчанию 8080)
	port, err := getEnvInt("FS_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("FS_PORT: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("FS_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// FS_DATA_DIR — обязательный
	cfg.DataDir, err = getEnvRequired("FS_DATA_DIR")
	if err != nil {
		return nil, err
	}

	// FS_PASSWORD — обязательный
	cfg.Password, err = getEnvRequired("FS_PASSWORD")
	if err != nil {
		return nil, err
	}

	// FS_TOKEN_SECRET — обязательный
	cfg.TokenSecret, err = getEnvRequired("FS_TOKEN_SECRET")
	if err != nil {
		return nil, err
	}

	// FS_TOKEN_TTL — время жизни токена (по умолчанию 24h)
	cfg.TokenTTL, err = getEnvDuration("FS_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("FS_TOKEN_TTL: %w", err)
	}

	// FS_MAX_FILE_SIZE — максимальный размер файла (по умолчанию 100 MiB)
	maxFileSize, err := getEnvInt64("FS_MAX_FILE_SIZE", 100*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("FS_MAX_FILE_SIZE: %w", err)
	}
	if maxFileSize <= 0 {
		return nil, fmt.Errorf("FS_MAX_FILE_SIZE: значение должно быть положительным")
	}
	cfg.MaxFileSize = maxFileSize

	// FS_MAX_FILES — максимум файлов в пакете (по умолчанию 20)
	maxFiles, err := getEnvInt("FS_MAX_FILES", 20)
	if err != nil {
		return nil, fmt.Errorf("FS_MAX_FILES: %w", err)
	}
	if maxFiles <= 0 {
		return nil, fmt.Errorf("FS_MAX_FILES: значение должно быть положительным")
	}
	cfg.MaxFiles = maxFiles

	// FS_UPLOAD_RATE_WINDOW — окно rate limiter (по умолчанию 15m)
	cfg.UploadRateWindow, err = getEnvDuration("FS_UPLOAD_RATE_WINDOW", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("FS_UPLOAD_RATE_WINDOW: %w", err)
	}

	// FS_UPLOAD_RATE_MAX — лимит загрузок за окно (по умолчанию 50)
	cfg.UploadRateMax, err = getEnvInt("FS_UPLOAD_RATE_MAX", 50)
	if err != nil {
		return nil, fmt.Errorf("FS_UPLOAD_RATE_MAX: %w", err)
	}
	if cfg.UploadRateMax <= 0 {
		return nil, fmt.Errorf("FS_UPLOAD_RATE_MAX: значение должно быть положительным")
	}

	// FS_TLS_CERT / FS_TLS_KEY — опциональны, но только парой
	cfg.TLSCert = getEnvDefault("FS_TLS_CERT", "")
	cfg.TLSKey = getEnvDefault("FS_TLS_KEY", "")
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return nil, fmt.Errorf("FS_TLS_CERT и FS_TLS_KEY должны быть заданы вместе")
	}

	// FS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("FS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("FS_LOG_LEVEL: %w", err)
	}

	// FS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("FS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("FS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// FS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("FS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
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

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

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

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 15m, 24h)", val)
	}
	return d, nil
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
