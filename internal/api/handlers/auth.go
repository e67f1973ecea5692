// auth.go — обработчик входа: проверка пароля и выдача access-токена.
package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bigkaa/gofileshare/internal/api/errors"
	"github.com/bigkaa/gofileshare/internal/api/middleware"
	"github.com/bigkaa/gofileshare/internal/config"
)

// AuthHandler — обработчик аутентификации.
type AuthHandler struct {
	cfg    *config.Config
	tokens *middleware.TokenAuth
	logger *slog.Logger
}

// NewAuthHandler создаёт обработчик аутентификации.
func NewAuthHandler(cfg *config.Config, tokens *middleware.TokenAuth, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		cfg:    cfg,
		tokens: tokens,
		logger: logger.With(slog.String("component", "auth_handler")),
	}
}

// loginRequest — тело запроса POST /login.
type loginRequest struct {
	Password string `json:"password"`
}

// Login обрабатывает POST /login.
// Сравнение пароля — за константное время; при успехе выдаётся
// access-токен со сроком действия FS_TOKEN_TTL.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.Password)) != 1 {
		h.logger.Warn("Неудачная попытка входа",
			slog.String("remote_addr", r.RemoteAddr),
		)
		errors.Unauthorized(w, "Неверный пароль")
		return
	}

	token, err := h.tokens.Issue()
	if err != nil {
		h.logger.Error("Ошибка выдачи токена", slog.String("error", err.Error()))
		errors.InternalError(w, "Ошибка выдачи токена")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"token":     token,
		"expiresIn": int64(h.tokens.TTL().Seconds()),
	})
}
