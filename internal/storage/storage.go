// storage определяет контракты локального хранилища catchup-сервиса.
package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/catchup/internal/models"
)

//go:generate mockgen -destination=../../mocks/mock_storage.go -package=mocks github.com/pribylovaa/catchup/internal/storage LocalStore

var (
	// ErrNotFound — страница отсутствует или не удовлетворяет запросу.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery — неизвестный вариант models.PageQuery.
	ErrInvalidQuery = errors.New("invalid query")
)

// LocalStore описывает операции над страницами и элементами лент.
type LocalStore interface {
	// Page возвращает страницу сервиса по варианту запроса q.
	// Если подходящей страницы нет — ErrNotFound.
	Page(ctx context.Context, serviceType string, q models.PageQuery) (*models.ServicePage, error)
	// ItemsByIDs возвращает найденные элементы по stable id.
	// Порядок результата не гарантируется; отсутствующие id пропускаются.
	ItemsByIDs(ctx context.Context, ids []string) ([]models.FeedItem, error)
	// PutPage сохраняет страницу (upsert по типу и номеру).
	PutPage(ctx context.Context, page models.ServicePage) error
	// PutItems сохраняет пачку элементов (идемпотентный upsert по stable id).
	PutItems(ctx context.Context, items []models.FeedItem) error
}

// Storage — локальное хранилище с управлением ресурсами.
type Storage interface {
	LocalStore
	Close()
}
