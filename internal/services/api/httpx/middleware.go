package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/NordCoder/Vidrate/internal/obs"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/jellydator/ttlcache/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Instrument records request count and latency under the route pattern
// rather than the raw path.
func Instrument(route string) runtime.Middleware {
	return func(next runtime.HandlerFunc) runtime.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
			next(sw, r, params)
			status := strconv.Itoa(sw.code)
			httpRequests.WithLabelValues(r.Method, route, status).Inc()
			httpDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		}
	}
}

// Logging writes one line per request. The remote field is resolved through
// proxies the same way the rate limiter keys its buckets.
func Logging(log *zap.Logger, proxies TrustedProxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(sw, r)
			obs.WithTrace(r.Context(), log).Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.code),
				zap.Duration("took", time.Since(start)),
				zap.String("remote", proxies.ClientIP(r)),
			)
		})
	}
}

func Recover(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					obs.WithTrace(r.Context(), log).Error("panic in handler",
						zap.Any("panic", p), zap.String("path", r.URL.Path), zap.Stack("stack"))
					WriteError(w, http.StatusInternalServerError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter keeps one token bucket per client IP; idle buckets expire.
type RateLimiter struct {
	perSecond rate.Limit
	burst     int
	proxies   TrustedProxies
	buckets   *ttlcache.Cache[string, *rate.Limiter]
}

func NewRateLimiter(perSecond float64, burst int, idle time.Duration, proxies TrustedProxies) *RateLimiter {
	if idle <= 0 {
		idle = 5 * time.Minute
	}
	buckets := ttlcache.New(ttlcache.WithTTL[string, *rate.Limiter](idle))
	go buckets.Start()
	return &RateLimiter{perSecond: rate.Limit(perSecond), burst: burst, proxies: proxies, buckets: buckets}
}

func (l *RateLimiter) Allow(key string) bool {
	item, _ := l.buckets.GetOrSet(key, rate.NewLimiter(l.perSecond, l.burst))
	return item.Value().Allow()
}

func (l *RateLimiter) Middleware() runtime.Middleware {
	return func(next runtime.HandlerFunc) runtime.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
			if !l.Allow(l.proxies.ClientIP(r)) {
				w.Header().Set("Retry-After", "1")
				WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next(w, r, params)
		}
	}
}

func (l *RateLimiter) Close() { l.buckets.Stop() }
