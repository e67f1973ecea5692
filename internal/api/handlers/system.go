// system.go — системные endpoints: информация о сервере и health checks.
package handlers

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/bigkaa/gofileshare/internal/config"
)

// SystemHandler — обработчик системных endpoints.
type SystemHandler struct {
	cfg *config.Config
}

// NewSystemHandler создаёт обработчик системных endpoints.
func NewSystemHandler(cfg *config.Config) *SystemHandler {
	return &SystemHandler{cfg: cfg}
}

// Info обрабатывает GET /api/v1/info.
// Публичный endpoint: адрес сервера в локальной сети и действующие лимиты.
func (h *SystemHandler) Info(w http.ResponseWriter, r *http.Request) {
	ip := localIP()

	scheme := "http"
	if r.TLS != nil || h.cfg.TLSCert != "" {
		scheme = "https"
	}

	host := r.Host
	if host == "" {
		host = fmt.Sprintf("%s:%d", ip, h.cfg.Port)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"serverIP":  ip,
		"port":      h.cfg.Port,
		"serverUrl": fmt.Sprintf("%s://%s", scheme, host),
		"config": map[string]any{
			"maxFileSize": h.cfg.MaxFileSize,
			"maxFiles":    h.cfg.MaxFiles,
		},
	})
}

// localIP возвращает не-loopback IPv4 адрес хоста, либо "localhost".
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "localhost"
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return "localhost"
}

// HealthHandler реализует health endpoints: /health/live, /health/ready.
type HealthHandler struct {
	version string
	// dataDir — путь к директории данных (для проверки FS)
	dataDir string
}

// NewHealthHandler создаёт обработчик health endpoints.
func NewHealthHandler(dataDir string) *HealthHandler {
	return &HealthHandler{
		version: config.Version,
		dataDir: dataDir,
	}
}

// Live обрабатывает GET /health/live.
// Возвращает 200, если процесс жив. Не проверяет зависимости.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "gofileshare",
	})
}

// Ready обрабатывает GET /health/ready.
// Проверяет доступность директории данных.
func (h *HealthHandler) Ready(w http.ResponseWriter, _ *http.Request) {
	info, err := os.Stat(h.dataDir)
	if err != nil || !info.IsDir() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "fail",
			"reason": "директория данных недоступна",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
