package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

// fsEnvKeys — все переменные окружения FS_* для очистки перед тестом.
var fsEnvKeys = []string{
	"FS_PORT", "FS_DATA_DIR", "FS_PASSWORD", "FS_TOKEN_SECRET", "FS_TOKEN_TTL",
	"FS_MAX_FILE_SIZE", "FS_MAX_FILES", "FS_UPLOAD_RATE_WINDOW", "FS_UPLOAD_RATE_MAX",
	"FS_TLS_CERT", "FS_TLS_KEY", "FS_LOG_LEVEL", "FS_LOG_FORMAT", "FS_SHUTDOWN_TIMEOUT",
}

// setEnv очищает все FS_* переменные и устанавливает указанные.
// Откат выполняется автоматически через t.Setenv.
func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()

	for _, k := range fsEnvKeys {
		if _, ok := os.LookupEnv(k); ok {
			t.Setenv(k, "")
			os.Unsetenv(k)
		}
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

// requiredEnv — минимальный набор обязательных переменных.
func requiredEnv() map[string]string {
	return map[string]string{
		"FS_DATA_DIR":     "/var/lib/fileshare",
		"FS_PASSWORD":     "secret-password",
		"FS_TOKEN_SECRET": "signing-secret",
	}
}

// TestLoad_Defaults проверяет значения по умолчанию при минимальной конфигурации.
func TestLoad_Defaults(t *testing.T) {
	setEnv(t, requiredEnv())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port: ожидалось 8080, получено %d", cfg.Port)
	}
	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("MaxFileSize: ожидалось 100 MiB, получено %d", cfg.MaxFileSize)
	}
	if cfg.MaxFiles != 20 {
		t.Errorf("MaxFiles: ожидалось 20, получено %d", cfg.MaxFiles)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL: ожидалось 24h, получено %s", cfg.TokenTTL)
	}
	if cfg.UploadRateWindow != 15*time.Minute {
		t.Errorf("UploadRateWindow: ожидалось 15m, получено %s", cfg.UploadRateWindow)
	}
	if cfg.UploadRateMax != 50 {
		t.Errorf("UploadRateMax: ожидалось 50, получено %d", cfg.UploadRateMax)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel: ожидалось info, получено %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat: ожидалось json, получено %s", cfg.LogFormat)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout: ожидалось 5s, получено %s", cfg.ShutdownTimeout)
	}
}

// TestLoad_MissingRequired проверяет ошибки при отсутствии обязательных переменных.
func TestLoad_MissingRequired(t *testing.T) {
	for _, missing := range []string{"FS_DATA_DIR", "FS_PASSWORD", "FS_TOKEN_SECRET"} {
		vars := requiredEnv()
		delete(vars, missing)
		setEnv(t, vars)

		if _, err := Load(); err == nil {
			t.Errorf("ожидалась ошибка при отсутствии %s", missing)
		}
	}
}

// TestLoad_Overrides проверяет переопределение значений из окружения.
func TestLoad_Overrides(t *testing.T) {
	vars := requiredEnv()
	vars["FS_PORT"] = "9090"
	vars["FS_MAX_FILE_SIZE"] = "1048576"
	vars["FS_MAX_FILES"] = "5"
	vars["FS_UPLOAD_RATE_WINDOW"] = "1m"
	vars["FS_UPLOAD_RATE_MAX"] = "3"
	vars["FS_LOG_LEVEL"] = "debug"
	vars["FS_LOG_FORMAT"] = "text"
	setEnv(t, vars)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port: ожидалось 9090, получено %d", cfg.Port)
	}
	if cfg.MaxFileSize != 1048576 {
		t.Errorf("MaxFileSize: ожидалось 1048576, получено %d", cfg.MaxFileSize)
	}
	if cfg.MaxFiles != 5 {
		t.Errorf("MaxFiles: ожидалось 5, получено %d", cfg.MaxFiles)
	}
	if cfg.UploadRateWindow != time.Minute {
		t.Errorf("UploadRateWindow: ожидалось 1m, получено %s", cfg.UploadRateWindow)
	}
	if cfg.UploadRateMax != 3 {
		t.Errorf("UploadRateMax: ожидалось 3, получено %d", cfg.UploadRateMax)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel: ожидалось debug, получено %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat: ожидалось text, получено %s", cfg.LogFormat)
	}
}

// TestLoad_InvalidValues проверяет отклонение некорректных значений.
func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"нечисловой порт", "FS_PORT", "abc"},
		{"порт вне диапазона", "FS_PORT", "70000"},
		{"отрицательный размер", "FS_MAX_FILE_SIZE", "-1"},
		{"нулевое количество файлов", "FS_MAX_FILES", "0"},
		{"некорректная длительность", "FS_UPLOAD_RATE_WINDOW", "15 minutes"},
		{"нулевой лимит загрузок", "FS_UPLOAD_RATE_MAX", "0"},
		{"неизвестный уровень логов", "FS_LOG_LEVEL", "verbose"},
		{"неизвестный формат логов", "FS_LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := requiredEnv()
			vars[tt.key] = tt.val
			setEnv(t, vars)

			if _, err := Load(); err == nil {
				t.Errorf("%s=%q: ожидалась ошибка", tt.key, tt.val)
			}
		})
	}
}

// TestLoad_TLSPair проверяет, что TLS параметры задаются только парой.
func TestLoad_TLSPair(t *testing.T) {
	vars := requiredEnv()
	vars["FS_TLS_CERT"] = "/etc/certs/tls.crt"
	setEnv(t, vars)

	if _, err := Load(); err == nil {
		t.Error("ожидалась ошибка: FS_TLS_CERT без FS_TLS_KEY")
	}

	vars["FS_TLS_KEY"] = "/etc/certs/tls.key"
	setEnv(t, vars)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("ошибка загрузки конфигурации: %v", err)
	}
	if cfg.TLSCert == "" || cfg.TLSKey == "" {
		t.Error("TLS параметры должны быть загружены")
	}
}
