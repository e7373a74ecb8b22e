package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pribylovaa/catchup/internal/models"
)

// FeedService — операции сервисного слоя, которыми пользуются хендлеры.
type FeedService interface {
	GetDataForRequest(ctx context.Context, serviceType string, req models.PageRequest) ([]models.FeedItem, error)
	Services() []string
}

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	Service FeedService
}

func New(svc FeedService) *Handlers {
	return &Handlers{Service: svc}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
