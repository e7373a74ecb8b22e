// memory предоставляет реализацию storage.Storage в памяти процесса на базе LRU.
// Подходит для локального запуска и тестов: данные не переживают рестарт,
// при переполнении вытесняются давно неиспользуемые страницы и элементы.
package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/pribylovaa/catchup/internal/models"
	"github.com/pribylovaa/catchup/internal/storage"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize — ёмкость по умолчанию (отдельно для страниц и для элементов).
const DefaultSize = 10_000

type Storage struct {
	pages *lru.Cache[string, models.ServicePage]
	items *lru.Cache[string, models.FeedItem]
}

// New создаёт хранилище ёмкостью size; size <= 0 — DefaultSize.
func New(size int) (*Storage, error) {
	const op = "storage.memory.New"

	if size <= 0 {
		size = DefaultSize
	}

	pages, err := lru.New[string, models.ServicePage](size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := lru.New[string, models.FeedItem](size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{pages: pages, items: items}, nil
}

// Page возвращает страницу по варианту запроса.
func (s *Storage) Page(_ context.Context, serviceType string, q models.PageQuery) (*models.ServicePage, error) {
	const op = "storage.memory.Page"

	var key string
	switch q.Kind {
	case models.QueryExactSession:
		key = models.PageID(serviceType, q.Page)
	case models.QueryFreshAfter, models.QueryLatest:
		key = models.PageID(serviceType, 0)
	default:
		return nil, fmt.Errorf("%s: %w: %s", op, storage.ErrInvalidQuery, q.Kind)
	}

	page, ok := s.pages.Get(key)
	if !ok || !q.Matches(&page) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	page.Items = slices.Clone(page.Items)
	return &page, nil
}

// ItemsByIDs возвращает найденные элементы; отсутствующие id пропускаются.
func (s *Storage) ItemsByIDs(_ context.Context, ids []string) ([]models.FeedItem, error) {
	output := make([]models.FeedItem, 0, len(ids))
	for _, id := range ids {
		if it, ok := s.items.Get(id); ok {
			output = append(output, it)
		}
	}

	return output, nil
}

// PutPage сохраняет страницу (upsert по типу и номеру).
func (s *Storage) PutPage(_ context.Context, page models.ServicePage) error {
	page.ID = models.PageID(page.Type, page.Page)
	page.Items = slices.Clone(page.Items)
	page.Expiration = page.Expiration.UTC()

	s.pages.Add(page.ID, page)
	return nil
}

// PutItems сохраняет элементы (upsert по stable id).
func (s *Storage) PutItems(_ context.Context, items []models.FeedItem) error {
	for _, it := range items {
		s.items.Add(it.StableID, it)
	}

	return nil
}

// Close освобождает память.
func (s *Storage) Close() {
	s.pages.Purge()
	s.items.Purge()
}

// Проверка выполнения контракта верхнего уровня.
var _ storage.Storage = (*Storage)(nil)
