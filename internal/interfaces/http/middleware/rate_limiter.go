package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const clientIdleEviction = 10 * time.Minute

type rateLimitedClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter ограничивает частоту запросов к API по адресу клиента.
// Ingest-точки (anomalies, samples) дергаются внешними продюсерами, поэтому
// лимит считается на каждый IP отдельно, а не глобально.
type IPRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rateLimitedClient
	rps     rate.Limit
	burst   int
}

// NewIPRateLimiter создает limiter: rps запросов в секунду на IP,
// burst — допустимый всплеск
func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	l := &IPRateLimiter{
		clients: make(map[string]*rateLimitedClient),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
	go l.evictIdle()
	return l
}

// Allow проверяет, укладывается ли запрос клиента в лимит
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	client, ok := l.clients[ip]
	if !ok {
		client = &rateLimitedClient{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[ip] = client
	}
	client.lastSeen = time.Now()
	return client.limiter.Allow()
}

// evictIdle выбрасывает давно молчащих клиентов, чтобы карта не росла
// бесконечно от уникальных адресов
func (l *IPRateLimiter) evictIdle() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-clientIdleEviction)
		l.mu.Lock()
		for ip, client := range l.clients {
			if client.lastSeen.Before(cutoff) {
				delete(l.clients, ip)
			}
		}
		l.mu.Unlock()
	}
}

// clientIP извлекает адрес клиента: сначала заголовки прокси,
// затем RemoteAddr без порта
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit отклоняет запросы сверх лимита с 429
func RateLimit(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
