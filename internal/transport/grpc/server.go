// grpc поднимает gRPC-сервер catchup-сервиса со стандартным health-сервисом.
//
// Статусы health:
//
//	""                     -> общая готовность процесса (SetServing)
//	catchup.feed.<service> -> доступность ленты по итогам последнего прогрева (ReportFeed)
package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/pribylovaa/catchup/internal/interceptors"
	"github.com/pribylovaa/catchup/internal/service"
)

// FeedHealthPrefix — префикс имени health-сервиса ленты.
const FeedHealthPrefix = "catchup.feed."

// Options — параметры gRPC-сервера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	// Reflection включает server reflection (local/dev).
	Reflection bool
	// Metrics включает go-grpc-prometheus.
	Metrics bool
	// Feeds — типы сервисов, для которых заводятся health-статусы.
	Feeds []string
}

// Server — gRPC-сервер с health-сервисом.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	log    *slog.Logger
}

// New собирает сервер с цепочкой интерсепторов:
// Recover -> Logging -> Timeout -> prometheus (если включено).
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	unary := []grpc.UnaryServerInterceptor{
		interceptors.Recover(opts.Logger),
		interceptors.UnaryLoggingInterceptor(opts.Logger),
		interceptors.WithTimeout(opts.Timeout),
	}
	stream := []grpc.StreamServerInterceptor{
		interceptors.RecoverStream(opts.Logger),
		interceptors.StreamLoggingInterceptor(opts.Logger),
	}

	if opts.Metrics {
		grpc_prometheus.EnableHandlingTimeHistogram()
		unary = append(unary, grpc_prometheus.UnaryServerInterceptor)
		stream = append(stream, grpc_prometheus.StreamServerInterceptor)
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(stream...),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	for _, feed := range opts.Feeds {
		hs.SetServingStatus(FeedHealthPrefix+feed, healthpb.HealthCheckResponse_SERVING)
	}

	if opts.Reflection {
		reflection.Register(srv)
	}

	if opts.Metrics {
		grpc_prometheus.Register(srv)
	}

	return &Server{srv: srv, health: hs, log: opts.Logger}
}

// Serve обслуживает lis до остановки; штатная остановка — nil.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// SetServing переключает общий статус готовности.
func (s *Server) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

// ReportFeed обновляет статус ленты по результату чтения страницы 0.
// Лента считается неготовой, только если источник недоступен и отката нет.
func (s *Server) ReportFeed(serviceType string, err error) {
	status := healthpb.HealthCheckResponse_SERVING
	if errors.Is(err, service.ErrUnavailable) || errors.Is(err, service.ErrUpstream) {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(FeedHealthPrefix+serviceType, status)
}

// Shutdown останавливает сервер: сначала GracefulStop, по истечении ctx — Stop.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("grpc_stopped")
	case <-ctx.Done():
		s.log.Warn("grpc_force_stop")
		s.srv.Stop()
	}
}
