package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/pribylovaa/catchup/internal/pkg/log"
)

// StartWarmup запускает периодическое чтение страницы 0 всех сервисов
// с интервалом s.cfg.Warmup.Interval.
//
// Особенности:
//   - чтение без refresh: свежая страница берётся из хранилища, истёкшая загружается заново;
//   - первый проход — сразу при старте;
//   - интервал 0 — прогрев выключен, функция сразу возвращает управление;
//   - останавливается по ctx.
func (s *Service) StartWarmup(ctx context.Context) {
	const op = "service.warmup.StartWarmup"

	ctx = log.With(ctx, slog.String("component", "warmup"))
	lg := log.From(ctx)

	interval := s.cfg.Warmup.Interval
	if interval <= 0 {
		lg.Info("warmup_disabled", slog.String("op", op))
		return
	}

	lg.Info("warmup_start",
		slog.String("op", op),
		slog.Int("services", len(s.types)),
		slog.Duration("interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.warmupOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			lg.Info("warmup_stop", slog.String("op", op))
			return
		case <-ticker.C:
			s.warmupOnce(ctx)
		}
	}
}

// warmupOnce — один проход по всем сервисам; ошибки логируются и не прерывают проход.
func (s *Service) warmupOnce(ctx context.Context) {
	const op = "service.warmup.warmupOnce"

	lg := log.From(ctx)

	var ok, failed int
	for _, serviceType := range s.types {
		if ctx.Err() != nil {
			return
		}

		c := s.controllers[serviceType]

		c.mu.Lock()
		items, err := c.cache.GetPage(ctx, 0, false)
		c.mu.Unlock()

		if err != nil {
			err = mapError(err)
		}
		if s.onWarmup != nil && ctx.Err() == nil {
			s.onWarmup(serviceType, err)
		}

		if err != nil {
			failed++
			lg.Warn("warmup_tick_error",
				slog.String("op", op),
				slog.String("service", serviceType),
				slog.String("err", err.Error()),
			)
			continue
		}

		ok++
		lg.Debug("warmup_service_ok",
			slog.String("op", op),
			slog.String("service", serviceType),
			slog.Int("items", len(items)),
		)
	}

	lg.Info("warmup_done",
		slog.String("op", op),
		slog.Int("services_ok", ok),
		slog.Int("services_err", failed),
	)
}
