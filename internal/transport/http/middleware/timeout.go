package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ErrRequestTimeout — cause контекста, отменённого по серверному лимиту.
// Оборачивает context.DeadlineExceeded (apierrors -> 504).
var ErrRequestTimeout = fmt.Errorf("request timeout: %w", context.DeadlineExceeded)

// Timeout — верхняя граница на обработку запроса (d <= 0 — выключено).
func Timeout(d time.Duration) Middleware {
	if d <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Свой дедлайн у запроса короче лимита: оставляем как есть.
			if dl, ok := ctx.Deadline(); ok && time.Until(dl) <= d {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeoutCause(ctx, d, ErrRequestTimeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
