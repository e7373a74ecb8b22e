package interceptors

import (
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/pribylovaa/catchup/internal/pkg/log"
)

type capHandler struct {
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]any, len(h.base)+8)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}

	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})

	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out
	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.base = append(h.base, attrs...)
	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

// fakeStream — минимальный grpc.ServerStream для stream-интерсепторов.
type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeStream) Context() context.Context { return s.ctx }

func TestUnaryLoggingInterceptor_Success_WithRequestID(t *testing.T) {
	h := &capHandler{}
	logger := slog.New(h)

	md := metadata.New(map[string]string{"x-request-id": "rid-123"})
	ctx := metadata.NewIncomingContext(context.Background(), md)
	ctx = peer.NewContext(ctx, &peer.Peer{
		Addr: &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50053},
	})

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	var inCtx *slog.Logger
	resp, err := UnaryLoggingInterceptor(logger)(ctx, "req", info, func(ctx context.Context, req any) (any, error) {
		inCtx = log.From(ctx)
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", resp)
	require.NotSame(t, slog.Default(), inCtx, "логгер проложен в контекст")

	require.Equal(t, "grpc", h.lastMsg)
	require.Equal(t, slog.LevelInfo, h.lastLvl)
	require.Equal(t, "rid-123", h.attrs["request_id"])
	require.Equal(t, info.FullMethod, h.attrs["method"])
	require.Equal(t, "127.0.0.1:50053", h.attrs["peer"])
	require.Equal(t, "OK", h.attrs["code"])

	_, hasDur := h.attrs["dur"].(time.Duration)
	require.True(t, hasDur)
}

func TestUnaryLoggingInterceptor_GeneratesUUID_And_LogsErrorCode(t *testing.T) {
	h := &capHandler{}
	logger := slog.New(h)

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	_, err := UnaryLoggingInterceptor(logger)(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.NotFound, "unknown service")
	})
	require.Error(t, err)

	require.Equal(t, "NotFound", h.attrs["code"])
	require.Equal(t, "-", h.attrs["peer"])

	rid, _ := h.attrs["request_id"].(string)
	_, parseErr := uuid.Parse(rid)
	require.NoError(t, parseErr)
}

func TestStreamLoggingInterceptor(t *testing.T) {
	h := &capHandler{}
	logger := slog.New(h)

	info := &grpc.StreamServerInfo{FullMethod: "/grpc.health.v1.Health/Watch", IsServerStream: true}
	ss := &fakeStream{ctx: context.Background()}

	var inCtx *slog.Logger
	err := StreamLoggingInterceptor(logger)(nil, ss, info, func(_ any, stream grpc.ServerStream) error {
		inCtx = log.From(stream.Context())
		return status.Error(codes.Canceled, "client gone")
	})

	require.Equal(t, codes.Canceled, status.Code(err))
	require.NotSame(t, slog.Default(), inCtx)
	require.Equal(t, "grpc_stream", h.lastMsg)
	require.Equal(t, "Canceled", h.attrs["code"])
	require.Equal(t, info.FullMethod, h.attrs["method"])
}

func TestRecover_PanicToInternal_AndLogsStack(t *testing.T) {
	h := &capHandler{}
	logger := slog.New(h)

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	resp, err := Recover(logger)(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
		panic("boom")
	})

	require.Nil(t, resp)
	require.Equal(t, codes.Internal, status.Code(err))

	require.Equal(t, slog.LevelError, h.lastLvl)
	require.Equal(t, "panic_recovered", h.lastMsg)
	require.Equal(t, info.FullMethod, h.attrs["method"])
	require.NotEmpty(t, h.attrs["panic"])

	stack, ok := h.attrs["stack"].(string)
	require.True(t, ok)
	require.NotEmpty(t, stack)
}

func TestRecover_NoPanic_PassThrough_NoLogs(t *testing.T) {
	h := &capHandler{}
	logger := slog.New(h)

	resp, err := Recover(logger)(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: "/x/OK"},
		func(ctx context.Context, req any) (any, error) {
			return "ok", nil
		})

	require.NoError(t, err)
	require.Equal(t, "ok", resp)
	require.Equal(t, "", h.lastMsg)
}

func TestRecoverStream_PanicToInternal(t *testing.T) {
	h := &capHandler{}
	logger := slog.New(h)

	info := &grpc.StreamServerInfo{FullMethod: "/grpc.health.v1.Health/Watch"}
	err := RecoverStream(logger)(nil, &fakeStream{ctx: context.Background()}, info, func(any, grpc.ServerStream) error {
		panic("stream boom")
	})

	require.Equal(t, codes.Internal, status.Code(err))
	require.Equal(t, "panic_recovered", h.lastMsg)
}

func TestWithTimeout_SetsDeadline_AndHandlerSeesDeadlineExceeded(t *testing.T) {
	const d = 40 * time.Millisecond

	start := time.Now()
	_, err := WithTimeout(d)(
		context.Background(),
		"req",
		&grpc.UnaryServerInfo{FullMethod: "/x/Sleep"},
		func(ctx context.Context, req any) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.GreaterOrEqual(t, time.Since(start), d)
}

func TestWithTimeout_DoesNotOverrideExistingDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	pdl, _ := parent.Deadline()

	var childDL time.Time
	_, err := WithTimeout(time.Second)(parent, "req", &grpc.UnaryServerInfo{FullMethod: "/x/HasDeadline"},
		func(ctx context.Context, req any) (any, error) {
			childDL, _ = ctx.Deadline()
			return "ok", nil
		})

	require.NoError(t, err)
	require.WithinDuration(t, pdl, childDL, time.Millisecond)
}

func TestWithTimeout_ZeroDuration_PassThrough(t *testing.T) {
	var hasDL bool
	_, err := WithTimeout(0)(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: "/x/NoTimeout"},
		func(ctx context.Context, req any) (any, error) {
			_, hasDL = ctx.Deadline()
			return "ok", nil
		})

	require.NoError(t, err)
	require.False(t, hasDL)
}

func TestWithTimeout_CapsLongClientDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	var cause error
	start := time.Now()
	_, err := WithTimeout(20*time.Millisecond)(parent, "req", &grpc.UnaryServerInfo{FullMethod: "/x/Long"},
		func(ctx context.Context, req any) (any, error) {
			<-ctx.Done()
			cause = context.Cause(ctx)
			return nil, ctx.Err()
		})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, codes.DeadlineExceeded, status.Code(cause))
}
