package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/catchup/internal/feed"
	"github.com/pribylovaa/catchup/internal/models"
	"github.com/pribylovaa/catchup/internal/pkg/log"
	"github.com/pribylovaa/catchup/internal/remote"
)

// GetDataForRequest возвращает элементы ленты serviceType по запросу req.
//
// Режимы:
//   - одиночный — страница req.Page;
//   - multipage — страницы 0..req.Page строго последовательно, результаты
//     склеиваются в порядке страниц (страница 0 устанавливает сессию для остальных).
//
// Ошибки:
//   - ErrInvalidArgument — req.Page < 0 или больше limits.max_page;
//   - ErrUnknownService — сервис не настроен;
//   - ErrUnavailable — источник недоступен, откат невозможен;
//   - ErrUpstream — источник отклонил запрос;
//   - ErrInternal — нарушен инвариант страницы или сбой хранилища;
//   - ошибки ctx (отмена/дедлайн) — как есть.
func (s *Service) GetDataForRequest(ctx context.Context, serviceType string, req models.PageRequest) ([]models.FeedItem, error) {
	const op = "service.feeds.GetDataForRequest"

	lg := log.From(ctx)
	lg.Info("get_data_request",
		slog.String("op", op),
		slog.String("service", serviceType),
		slog.Int("page", req.Page),
		slog.Bool("multipage", req.Multipage),
		slog.Bool("refresh", req.FromRefresh),
	)

	if req.Page < 0 || (s.cfg.Limits.MaxPage > 0 && req.Page > s.cfg.Limits.MaxPage) {
		lg.Warn("get_data_invalid_page",
			slog.String("op", op),
			slog.Int("page", req.Page),
			slog.Int("max_page", s.cfg.Limits.MaxPage),
		)

		return nil, fmt.Errorf("%s: %w: page %d", op, ErrInvalidArgument, req.Page)
	}

	c, ok := s.controllers[serviceType]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownService, serviceType)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	first := req.Page
	if req.Multipage {
		first = 0
	}

	var output []models.FeedItem
	for page := first; page <= req.Page; page++ {
		items, err := c.cache.GetPage(ctx, page, req.FromRefresh)
		if err != nil {
			lg.Warn("get_data_failed",
				slog.String("op", op),
				slog.String("service", serviceType),
				slog.Int("page", page),
				slog.String("err", err.Error()),
			)

			return nil, fmt.Errorf("%s: %w", op, mapError(err))
		}

		output = append(output, items...)
	}

	if output == nil {
		output = []models.FeedItem{}
	}

	lg.Info("get_data_ok",
		slog.String("op", op),
		slog.String("service", serviceType),
		slog.Int("items", len(output)),
		slog.Int64("session_id", c.cache.Session().ID()),
	)

	return output, nil
}

// mapError переводит ошибки кэша и источников в ошибки сервиса; исходная ошибка сохраняется в цепочке.
func mapError(err error) error {
	switch {
	case errors.Is(err, feed.ErrInvalidPage):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	case errors.Is(err, feed.ErrNotFoundInIndex):
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	// Таймаут http.Client помечен источником как KindTransport и сюда не попадает.
	switch remote.KindOf(err) {
	case remote.KindCanceled:
		return err
	case remote.KindTransport:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	case remote.KindBackend:
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	default:
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
}
