package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errDeadline — причина отмены по серверному таймауту.
var errDeadline = status.Error(codes.DeadlineExceeded, "server timeout")

// WithTimeout ограничивает время unary-вызова сверху значением d.
// Клиентский дедлайн короче d сохраняется; d <= 0 — без ограничения.
func WithTimeout(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if d <= 0 {
			return handler(ctx, req)
		}
		if dl, ok := ctx.Deadline(); ok && time.Until(dl) <= d {
			return handler(ctx, req)
		}

		ctx, cancel := context.WithTimeoutCause(ctx, d, errDeadline)
		defer cancel()

		return handler(ctx, req)
	}
}
