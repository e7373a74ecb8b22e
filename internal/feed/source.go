package feed

import (
	"context"

	"github.com/pribylovaa/catchup/internal/models"
)

//go:generate mockgen -destination=../../mocks/mock_source.go -package=mocks github.com/pribylovaa/catchup/internal/feed Source

// Source описывает удалённый источник страниц ленты (Hacker News, RSS и т.п.).
//
// Требования к реализации:
//  1. ошибки должны классифицироваться пакетом remote (KindTransport/KindBackend);
//  2. порядок элементов страницы — порядок выдачи источника;
//  3. реализация обязана уважать ctx (отмена/таймауты).
type Source interface {
	FetchPage(ctx context.Context, serviceType string, page int) ([]models.FeedItem, error)
}

// Outcome — исход одного вызова GetPage (для метрик).
type Outcome string

const (
	OutcomeHit      Outcome = "hit"
	OutcomeMiss     Outcome = "miss"
	OutcomeRefresh  Outcome = "refresh"
	OutcomeFallback Outcome = "fallback"
	OutcomeError    Outcome = "error"
)

// Recorder получает исходы вызовов GetPage.
type Recorder interface {
	Record(serviceType string, outcome Outcome)
}

type nopRecorder struct{}

func (nopRecorder) Record(string, Outcome) {}
