package httpadapter

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// rateLimitMiddleware throttles the /v1 API surface. Health and metrics
// endpoints stay unthrottled so probes keep working under load.
func rateLimitMiddleware(next http.Handler, rps float64, burst int) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/") {
			next.ServeHTTP(w, r)
			return
		}
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// backpressureMiddleware bounds concurrent in-flight requests. A request
// that cannot enter within queueTimeout is shed with 503 instead of
// piling up behind a slow model backend.
func backpressureMiddleware(next http.Handler, maxConcurrent int, queueTimeout time.Duration) http.Handler {
	gate := make(chan struct{}, maxConcurrent)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := time.NewTimer(queueTimeout)
		defer timer.Stop()

		select {
		case gate <- struct{}{}:
			defer func() { <-gate }()
			next.ServeHTTP(w, r)
		case <-timer.C:
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "server overloaded, try again later"})
		case <-r.Context().Done():
		}
	})
}
