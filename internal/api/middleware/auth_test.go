package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// authedRequest прогоняет запрос через middleware и возвращает код ответа.
func authedRequest(t *testing.T, auth *TokenAuth, header string) int {
	t.Helper()

	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestTokenIssueAndVerify(t *testing.T) {
	auth := NewTokenAuth("test-secret", time.Hour, testLogger())

	token, err := auth.Issue()
	if err != nil {
		t.Fatalf("Issue вернул ошибку: %v", err)
	}

	if code := authedRequest(t, auth, "Bearer "+token); code != http.StatusOK {
		t.Errorf("Код ответа = %d, ожидался 200", code)
	}
}

func TestTokenMissingHeader(t *testing.T) {
	auth := NewTokenAuth("test-secret", time.Hour, testLogger())

	if code := authedRequest(t, auth, ""); code != http.StatusUnauthorized {
		t.Errorf("Код ответа = %d, ожидался 401", code)
	}
}

func TestTokenMalformedHeader(t *testing.T) {
	auth := NewTokenAuth("test-secret", time.Hour, testLogger())

	tests := []string{
		"Basic dXNlcjpwYXNz",
		"Bearer",
		"токен-без-схемы",
	}

	for _, header := range tests {
		if code := authedRequest(t, auth, header); code != http.StatusUnauthorized {
			t.Errorf("Заголовок %q: код ответа = %d, ожидался 401", header, code)
		}
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenAuth("secret-one", time.Hour, testLogger())
	verifier := NewTokenAuth("secret-two", time.Hour, testLogger())

	token, err := issuer.Issue()
	if err != nil {
		t.Fatalf("Issue вернул ошибку: %v", err)
	}

	if code := authedRequest(t, verifier, "Bearer "+token); code != http.StatusUnauthorized {
		t.Errorf("Токен с чужой подписью: код ответа = %d, ожидался 401", code)
	}
}

func TestTokenExpired(t *testing.T) {
	auth := NewTokenAuth("test-secret", time.Hour, testLogger())

	// Токен, истёкший за пределами leeway
	past := time.Now().Add(-2 * time.Hour)
	claims := jwt.RegisteredClaims{
		Subject:   "fileshare",
		IssuedAt:  jwt.NewNumericDate(past),
		ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("Ошибка подписи токена: %v", err)
	}

	if code := authedRequest(t, auth, "Bearer "+token); code != http.StatusUnauthorized {
		t.Errorf("Просроченный токен: код ответа = %d, ожидался 401", code)
	}
}

func TestTokenWithoutExpiry(t *testing.T) {
	auth := NewTokenAuth("test-secret", time.Hour, testLogger())

	// Токен без exp отклоняется: бессрочные токены не принимаются
	claims := jwt.RegisteredClaims{Subject: "fileshare"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("Ошибка подписи токена: %v", err)
	}

	if code := authedRequest(t, auth, "Bearer "+token); code != http.StatusUnauthorized {
		t.Errorf("Токен без exp: код ответа = %d, ожидался 401", code)
	}
}

func TestTokenAlgorithmConfusion(t *testing.T) {
	auth := NewTokenAuth("test-secret", time.Hour, testLogger())

	// alg=none не проходит проверку допустимых алгоритмов
	claims := jwt.RegisteredClaims{
		Subject:   "fileshare",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("Ошибка формирования токена: %v", err)
	}

	if code := authedRequest(t, auth, "Bearer "+token); code != http.StatusUnauthorized {
		t.Errorf("Токен alg=none: код ответа = %d, ожидался 401", code)
	}
}
