// auth.go — middleware аутентификации по access-токену.
// Токены подписываются HS256 общим секретом и выдаются после проверки
// пароля (POST /login). Аутентификация — шлюз pass/fail перед файловым
// API; ядро хранения о ней ничего не знает.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/bigkaa/gofileshare/internal/api/errors"
)

// tokenSubject — значение sub в выдаваемых токенах: сервис
// однопользовательский, различать субъектов не требуется.
const tokenSubject = "fileshare"

// TokenAuth — выдача и проверка access-токенов.
type TokenAuth struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
	logger *slog.Logger
}

// NewTokenAuth создаёт TokenAuth с указанным секретом подписи и TTL токенов.
func NewTokenAuth(secret string, ttl time.Duration, logger *slog.Logger) *TokenAuth {
	return &TokenAuth{
		secret: []byte(secret),
		ttl:    ttl,
		leeway: 30 * time.Second,
		logger: logger.With(slog.String("component", "token_auth")),
	}
}

// Issue выдаёт новый подписанный access-токен со сроком действия TTL.
func (a *TokenAuth) Issue() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   tokenSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, nil
}

// TTL возвращает срок действия выдаваемых токенов.
func (a *TokenAuth) TTL() time.Duration {
	return a.ttl
}

// Middleware возвращает HTTP middleware аутентификации.
// Извлекает Bearer token из заголовка Authorization, проверяет подпись
// (HS256) и срок действия.
func (a *TokenAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierrors.Unauthorized(w, "Отсутствует заголовок Authorization")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				apierrors.Unauthorized(w, "Неверный формат Authorization: ожидается Bearer <token>")
				return
			}

			tokenString := parts[1]
			if tokenString == "" {
				apierrors.Unauthorized(w, "Пустой Bearer token")
				return
			}

			claims := &jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims,
				func(*jwt.Token) (any, error) { return a.secret, nil },
				jwt.WithValidMethods([]string{"HS256"}),
				jwt.WithExpirationRequired(),
				jwt.WithLeeway(a.leeway),
			)
			if err != nil || !token.Valid {
				a.logger.Debug("Токен не прошёл проверку",
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Невалидный или просроченный токен")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
