package ratelimit

import (
	"net/http"
	"strconv"

	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/toko-storefront/internal/common"
)

// Handler enforces rate limits before delegating to the next handler.
type Handler struct {
	Limiter *limiter.Limiter
	Key     func(*http.Request) string
	OnError func(error)
}

// ClientIPKey derives the limiter key from the caller's IP address.
func ClientIPKey(r *http.Request) string {
	return common.ClientIP(r)
}

// Middleware implements the http.Handler middleware interface. Limiter
// failures (e.g. redis unavailable) fail open so the storefront keeps
// serving.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		keyFn := h.Key
		if keyFn == nil {
			keyFn = ClientIPKey
		}
		key := keyFn(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		lctx, err := h.Limiter.Get(r.Context(), key)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
