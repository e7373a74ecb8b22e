package middleware

import (
	"log/slog"
	"net/http"
	"time"

	logctx "github.com/pribylovaa/catchup/internal/pkg/log"
)

// Logging — access-лог. Ставится после RequestID: id берётся из контекста.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			lg := l
			if rid := RequestIDFrom(r.Context()); rid != "" {
				lg = lg.With(slog.String("request_id", rid))
			}
			r = r.WithContext(logctx.Into(r.Context(), lg))

			rec := recordResponse(w)
			next.ServeHTTP(rec, r)

			lg.LogAttrs(r.Context(), levelFor(rec.Status()), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.Status()),
				slog.Duration("dur", time.Since(start)),
				slog.Int("bytes", rec.bytes),
			)
		})
	}
}

// 5xx — warn, остальное — info.
func levelFor(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}
