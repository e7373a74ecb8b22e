// feed реализует постраничное чтение ленты через локальный кэш с откатом на сеть.
//
// Политика GetPage:
//   - refresh — всегда сеть, результат записывается в хранилище;
//   - иначе сначала хранилище: страница 0 — только не истёкшая на текущий момент,
//     страница N > 0 — только сохранённая в текущей сессии;
//   - промах — сеть (как при refresh);
//   - сбой связи для страницы 0 без refresh — последняя сохранённая страница 0
//     независимо от срока годности (деградированное чтение).
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/catchup/internal/models"
	"github.com/pribylovaa/catchup/internal/pkg/log"
	"github.com/pribylovaa/catchup/internal/remote"
	"github.com/pribylovaa/catchup/internal/storage"
)

// DefaultExpiration — срок годности страницы 0 по умолчанию.
const DefaultExpiration = 2 * time.Hour

var (
	// ErrNotFoundInIndex — хранилище вернуло элемент, которого нет в сохранённой странице.
	// Нарушение инварианта, запрос не повторяется.
	ErrNotFoundInIndex = errors.New("item not found in page index")
	// ErrInvalidPage — отрицательный номер страницы.
	ErrInvalidPage = errors.New("invalid page")
)

// Options — параметры Cache.
type Options struct {
	// Expiration — срок годности загруженной страницы; <= 0 — DefaultExpiration.
	Expiration time.Duration
	// Now — источник времени; nil — time.Now.
	Now func() time.Time
	// Recorder — приёмник исходов; nil — без записи.
	Recorder Recorder
}

// Cache — постраничный кэш одной ленты.
//
// Cache не потокобезопасен: вызовы GetPage одного экземпляра должны
// выполняться последовательно (см. service.controller).
type Cache struct {
	serviceType string
	store       storage.LocalStore
	source      Source
	session     *Session
	expiration  time.Duration
	now         func() time.Time
	rec         Recorder
}

// New создаёт кэш ленты serviceType. session принадлежит вызывающему;
// nil — новая сессия.
func New(serviceType string, store storage.LocalStore, source Source, session *Session, opts Options) *Cache {
	if session == nil {
		session = NewSession()
	}

	if opts.Expiration <= 0 {
		opts.Expiration = DefaultExpiration
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}

	return &Cache{
		serviceType: serviceType,
		store:       store,
		source:      source,
		session:     session,
		expiration:  opts.Expiration,
		now:         opts.Now,
		rec:         opts.Recorder,
	}
}

// Session возвращает сессию пагинации кэша.
func (c *Cache) Session() *Session { return c.session }

// GetPage возвращает элементы страницы page.
//
// Ошибки:
//   - ErrInvalidPage — page < 0;
//   - ErrNotFoundInIndex — нарушен инвариант сохранённой страницы;
//   - ошибки источника (классифицируются remote.KindOf) — если откат невозможен или промахнулся;
//   - ошибки записи в хранилище после успешной загрузки.
func (c *Cache) GetPage(ctx context.Context, page int, isRefresh bool) ([]models.FeedItem, error) {
	const op = "feed.Cache.GetPage"

	if page < 0 {
		return nil, fmt.Errorf("%s: %w: %d", op, ErrInvalidPage, page)
	}

	lg := log.From(ctx).With(
		slog.String("service", c.serviceType),
		slog.Int("page", page),
		slog.Bool("refresh", isRefresh),
	)

	if !isRefresh {
		items, ok, err := c.readStore(ctx, c.storeQuery(page), false)
		switch {
		case errors.Is(err, ErrNotFoundInIndex):
			c.rec.Record(c.serviceType, OutcomeError)
			lg.Error("page_index_violation", slog.String("op", op), slog.String("err", err.Error()))
			return nil, fmt.Errorf("%s: %w", op, err)
		case err != nil:
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%s: %w", op, ctx.Err())
			}
			// Недоступное хранилище не мешает загрузке из сети.
			lg.Warn("store_read_failed", slog.String("op", op), slog.String("err", err.Error()))
		case ok:
			c.rec.Record(c.serviceType, OutcomeHit)
			lg.Debug("page_cache_hit", slog.String("op", op), slog.Int("items", len(items)))
			return items, nil
		}
	}

	items, fetchErr := c.fetch(ctx, page, isRefresh)
	if fetchErr == nil {
		outcome := OutcomeMiss
		if isRefresh {
			outcome = OutcomeRefresh
		}
		c.rec.Record(c.serviceType, outcome)
		lg.Info("page_fetched",
			slog.String("op", op),
			slog.Int("items", len(items)),
			slog.Int64("session_id", c.session.ID()),
		)
		return items, nil
	}

	kind := remote.KindOf(fetchErr)
	if kind == remote.KindTransport && page == 0 && !isRefresh {
		stale, ok, err := c.readStore(ctx, models.Latest(), true)
		switch {
		case errors.Is(err, ErrNotFoundInIndex):
			c.rec.Record(c.serviceType, OutcomeError)
			lg.Error("page_index_violation", slog.String("op", op), slog.String("err", err.Error()))
			return nil, fmt.Errorf("%s: %w", op, err)
		case err != nil:
			lg.Warn("fallback_read_failed", slog.String("op", op), slog.String("err", err.Error()))
		case ok:
			c.rec.Record(c.serviceType, OutcomeFallback)
			lg.Warn("page_fallback_stale",
				slog.String("op", op),
				slog.Int("items", len(stale)),
				slog.String("cause", fetchErr.Error()),
			)
			return stale, nil
		}
	}

	c.rec.Record(c.serviceType, OutcomeError)
	lg.Warn("page_fetch_failed",
		slog.String("op", op),
		slog.String("kind", kind.String()),
		slog.String("err", fetchErr.Error()),
	)

	return nil, fmt.Errorf("%s: %w", op, fetchErr)
}

// storeQuery выбирает вариант запроса к хранилищу для чтения без refresh.
func (c *Cache) storeQuery(page int) models.PageQuery {
	if page == 0 {
		return models.FreshAfter(c.now())
	}

	return models.ExactSession(page, c.session.ID())
}

// readStore читает страницу из хранилища и восстанавливает порядок элементов.
// Пустая страница — промах. Неполная страница (часть элементов вытеснена) —
// промах, если не allowPartial. Страница 0 переводит кэш в её сессию.
func (c *Cache) readStore(ctx context.Context, q models.PageQuery, allowPartial bool) ([]models.FeedItem, bool, error) {
	sp, err := c.store.Page(ctx, c.serviceType, q)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("page %s: %w", q.Kind, err)
	}

	if sp == nil || len(sp.Items) == 0 {
		return nil, false, nil
	}

	found, err := c.store.ItemsByIDs(ctx, sp.Items)
	if err != nil {
		return nil, false, fmt.Errorf("items_by_ids: %w", err)
	}

	items, unique, err := orderByPage(sp.Items, found)
	if err != nil {
		return nil, false, err
	}

	if len(items) == 0 || (!allowPartial && len(items) < unique) {
		log.From(ctx).Debug("page_incomplete",
			slog.String("service", c.serviceType),
			slog.Int("want", unique),
			slog.Int("got", len(items)),
		)
		return nil, false, nil
	}

	if q.Kind != models.QueryExactSession {
		c.session.commit(sp.SessionID)
	}

	return items, true, nil
}

// fetch загружает страницу из сети и записывает её в хранилище.
// Элементы пишутся раньше страницы, чтобы сохранённая страница всегда
// разрешалась в элементы. Сессия фиксируется только после обеих записей.
func (c *Cache) fetch(ctx context.Context, page int, isRefresh bool) ([]models.FeedItem, error) {
	items, err := c.source.FetchPage(ctx, c.serviceType, page)
	if err != nil {
		return nil, err
	}

	expiration := c.now().UTC().Add(c.expiration)
	sessionID := c.session.next(page, isRefresh, expiration)

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.StableID)
	}

	if len(items) > 0 {
		if err := c.store.PutItems(ctx, items); err != nil {
			return nil, fmt.Errorf("put_items: %w", err)
		}
	}

	if err := c.store.PutPage(ctx, models.ServicePage{
		ID:         models.PageID(c.serviceType, page),
		Type:       c.serviceType,
		Page:       page,
		Items:      ids,
		Expiration: expiration,
		SessionID:  sessionID,
	}); err != nil {
		return nil, fmt.Errorf("put_page: %w", err)
	}

	c.session.commit(sessionID)

	return items, nil
}

// orderByPage раскладывает результат поиска по id в порядке ids.
// Возвращает упорядоченные элементы и число уникальных id страницы.
// Элемент, отсутствующий в индексе, — ErrNotFoundInIndex.
func orderByPage(ids []string, found []models.FeedItem) ([]models.FeedItem, int, error) {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := index[id]; !dup {
			index[id] = i
		}
	}

	slots := make([]*models.FeedItem, len(ids))
	for i := range found {
		pos, ok := index[found[i].StableID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %q", ErrNotFoundInIndex, found[i].StableID)
		}
		if slots[pos] == nil {
			slots[pos] = &found[i]
		}
	}

	items := make([]models.FeedItem, 0, len(found))
	for _, it := range slots {
		if it != nil {
			items = append(items, *it)
		}
	}

	return items, len(index), nil
}
