// Пакет handlers — HTTP handlers файлового обменника.
package handlers

import (
	"encoding/json"
	"net/http"
)

// API — составной набор всех обработчиков для маршрутизации.
type API struct {
	Files  *FilesHandler
	Auth   *AuthHandler
	System *SystemHandler
	Health *HealthHandler
}

// writeJSON — вспомогательная функция для записи JSON-ответа.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
