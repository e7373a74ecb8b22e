// redis предоставляет реализацию storage.Storage на базе Redis.
//
// Раскладка ключей (prefix по умолчанию "catchup:"):
//   - <prefix>page:<type>:<page> — Hash с полями items (JSON-массив id), exp (unix ms), sid;
//   - <prefix>item:<id> — JSON элемента.
//
// Все ключи живут TTL: истёкшая по Expiration страница 0 остаётся доступной
// для деградированного чтения, пока не истёк TTL ключа.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/pribylovaa/catchup/internal/models"
	"github.com/pribylovaa/catchup/internal/storage"

	goredis "github.com/redis/go-redis/v9"
)

const (
	// DefaultPrefix — префикс ключей по умолчанию.
	DefaultPrefix = "catchup:"
	// DefaultTTL — время жизни ключей по умолчанию.
	DefaultTTL = 7 * 24 * time.Hour
)

type Storage struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// New создаёт клиент Redis из URL (например, redis://:pass@host:6379/0) и проверяет соединение.
func New(ctx context.Context, redisURL, prefix string, ttl time.Duration) (*Storage, error) {
	const op = "storage.redis.New"

	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := goredis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithClient(rdb, prefix, ttl), nil
}

// NewWithClient оборачивает готовый клиент.
// Пустой prefix — DefaultPrefix, ttl <= 0 — DefaultTTL.
func NewWithClient(rdb *goredis.Client, prefix string, ttl time.Duration) *Storage {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Storage{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *Storage) pageKey(serviceType string, page int) string {
	return s.prefix + "page:" + models.PageID(serviceType, page)
}

func (s *Storage) itemKey(id string) string { return s.prefix + "item:" + id }

// Page возвращает страницу по варианту запроса.
func (s *Storage) Page(ctx context.Context, serviceType string, q models.PageQuery) (*models.ServicePage, error) {
	const op = "storage.redis.Page"

	page := 0
	switch q.Kind {
	case models.QueryExactSession:
		page = q.Page
	case models.QueryFreshAfter, models.QueryLatest:
	default:
		return nil, fmt.Errorf("%s: %w: %s", op, storage.ErrInvalidQuery, q.Kind)
	}

	m, err := s.rdb.HGetAll(ctx, s.pageKey(serviceType, page)).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(m) == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	sp, err := decodePage(serviceType, page, m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !q.Matches(sp) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return sp, nil
}

// ItemsByIDs возвращает найденные элементы одним MGET; отсутствующие пропускаются.
func (s *Storage) ItemsByIDs(ctx context.Context, ids []string) ([]models.FeedItem, error) {
	const op = "storage.redis.ItemsByIDs"

	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.itemKey(id))
	}

	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	output := make([]models.FeedItem, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}

		var it models.FeedItem
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			return nil, fmt.Errorf("%s: decode %s: %w", op, keys[i], err)
		}
		output = append(output, it)
	}

	return output, nil
}

// PutPage сохраняет страницу и продлевает TTL ключа.
func (s *Storage) PutPage(ctx context.Context, page models.ServicePage) error {
	const op = "storage.redis.PutPage"

	items := page.Items
	if items == nil {
		items = []string{}
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	key := s.pageKey(page.Type, page.Page)
	kv := map[string]string{
		"items": string(raw),
		"exp":   strconv.FormatInt(page.Expiration.UnixMilli(), 10),
		"sid":   strconv.FormatInt(page.SessionID, 10),
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, kv)
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// PutItems сохраняет элементы пачкой через pipeline.
func (s *Storage) PutItems(ctx context.Context, items []models.FeedItem) error {
	const op = "storage.redis.PutItems"

	if len(items) == 0 {
		return nil
	}

	pipe := s.rdb.Pipeline()
	for _, it := range items {
		raw, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		pipe.Set(ctx, s.itemKey(it.StableID), raw, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает клиент Redis.
func (s *Storage) Close() { _ = s.rdb.Close() }

func decodePage(serviceType string, page int, m map[string]string) (*models.ServicePage, error) {
	var items []string
	if err := json.Unmarshal([]byte(m["items"]), &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	expMillis, err := strconv.ParseInt(m["exp"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode exp: %w", err)
	}

	sid, err := strconv.ParseInt(m["sid"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode sid: %w", err)
	}

	return &models.ServicePage{
		ID:         models.PageID(serviceType, page),
		Type:       serviceType,
		Page:       page,
		Items:      items,
		Expiration: time.UnixMilli(expMillis).UTC(),
		SessionID:  sid,
	}, nil
}

// Проверка выполнения контракта верхнего уровня.
var _ storage.Storage = (*Storage)(nil)
