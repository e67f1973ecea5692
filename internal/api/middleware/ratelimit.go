// ratelimit.go — ограничение частоты загрузок по адресу клиента.
// Каждому адресу выдаётся token bucket (golang.org/x/time/rate),
// пополняемый со скоростью max/window; состояние по адресам живёт
// в expirable LRU и вытесняется после окна неактивности.
package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	apierrors "github.com/bigkaa/gofileshare/internal/api/errors"
)

// limiterCacheSize — максимум адресов, отслеживаемых одновременно.
// Для локальной сети с запасом; вытеснение сбрасывает счётчик адреса.
const limiterCacheSize = 1024

// UploadRateLimiter — ограничитель загрузок на адрес клиента.
type UploadRateLimiter struct {
	limiters *expirable.LRU[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
	logger   *slog.Logger

	mu sync.Mutex // сериализует создание limiter-а для нового адреса
}

// NewUploadRateLimiter создаёт ограничитель: не более max загрузок
// с одного адреса за окно window.
func NewUploadRateLimiter(max int, window time.Duration, logger *slog.Logger) *UploadRateLimiter {
	return &UploadRateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](limiterCacheSize, nil, window),
		limit:    rate.Every(window / time.Duration(max)),
		burst:    max,
		logger:   logger.With(slog.String("component", "rate_limiter")),
	}
}

// Allow сообщает, разрешена ли очередная загрузка для адреса addr.
func (rl *UploadRateLimiter) Allow(addr string) bool {
	rl.mu.Lock()
	limiter, ok := rl.limiters.Get(addr)
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
	}
	// Add обновляет срок жизни записи: окно неактивности отсчитывается
	// от последнего запроса, а не от момента создания limiter-а
	rl.limiters.Add(addr, limiter)
	rl.mu.Unlock()

	return limiter.Allow()
}

// Middleware возвращает HTTP middleware, отклоняющий избыточные
// запросы с кодом 429 вместо постановки их в очередь.
func (rl *UploadRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := clientAddr(r)

			if !rl.Allow(addr) {
				RateLimitedTotal.Inc()
				rl.logger.Warn("Загрузка отклонена rate limiter-ом",
					slog.String("remote_addr", addr),
				)
				apierrors.RateLimited(w, "Слишком много загрузок, повторите попытку позже")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr возвращает адрес клиента без порта.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
