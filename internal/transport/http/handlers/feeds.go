package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/catchup/internal/models"
	"github.com/pribylovaa/catchup/internal/service"
	"github.com/pribylovaa/catchup/internal/transport/http/apierrors"
)

// FeedResponse — ответ GET /feeds/{service}.
type FeedResponse struct {
	Service string            `json:"service"`
	Page    int               `json:"page"`
	Items   []models.FeedItem `json:"items"`
}

// ServicesResponse — ответ GET /services.
type ServicesResponse struct {
	Services []string `json:"services"`
}

// ListServices возвращает список настроенных сервисов.
func (h *Handlers) ListServices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ServicesResponse{Services: h.Service.Services()})
}

// GetFeed возвращает страницу ленты.
// Параметры запроса: page (с нуля, по умолчанию 0), multipage и refresh (bool).
func (h *Handlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	serviceType := chi.URLParam(r, "service")
	if serviceType == "" {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	req, err := parsePageRequest(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	items, err := h.Service.GetDataForRequest(r.Context(), serviceType, req)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, FeedResponse{
		Service: serviceType,
		Page:    req.Page,
		Items:   items,
	})
}

func parsePageRequest(r *http.Request) (models.PageRequest, error) {
	var req models.PageRequest
	q := r.URL.Query()

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("page: %w", service.ErrInvalidArgument)
		}
		req.Page = n
	}

	var err error
	if req.Multipage, err = parseBool(q.Get("multipage")); err != nil {
		return req, fmt.Errorf("multipage: %w", service.ErrInvalidArgument)
	}

	if req.FromRefresh, err = parseBool(q.Get("refresh")); err != nil {
		return req, fmt.Errorf("refresh: %w", service.ErrInvalidArgument)
	}

	return req, nil
}

func parseBool(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
