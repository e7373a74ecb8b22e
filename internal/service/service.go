// service содержит бизнес-логику catchup-сервиса: по одному контроллеру
// постраничного кэша на каждый настроенный сервис.
package service

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/pribylovaa/catchup/internal/config"
	"github.com/pribylovaa/catchup/internal/feed"
	"github.com/pribylovaa/catchup/internal/storage"
)

var (
	// ErrInvalidArgument — некорректные входные аргументы (номер страницы).
	// Транспорт: 400.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnknownService — сервис не настроен.
	// Транспорт: 404.
	ErrUnknownService = errors.New("unknown service")
	// ErrUpstream — источник отклонил запрос или вернул некорректный ответ.
	// Транспорт: 502.
	ErrUpstream = errors.New("upstream error")
	// ErrUnavailable — источник недоступен, а сохранённой страницы для отката нет.
	// Транспорт: 503.
	ErrUnavailable = errors.New("unavailable")
	// ErrInternal — нарушение инварианта или сбой локального хранилища.
	// Транспорт: 500.
	ErrInternal = errors.New("internal error")
)

// Options — необязательные зависимости Service.
type Options struct {
	// Recorder — приёмник исходов чтения страниц (метрики); nil — без записи.
	Recorder feed.Recorder
	// Now — источник времени для кэшей; nil — time.Now.
	Now func() time.Time
	// OnWarmup получает результат прогрева каждого сервиса (err == nil — успех); nil — не вызывается.
	OnWarmup func(serviceType string, err error)
}

// controller владеет кэшем одного сервиса и его сессией пагинации.
// Запросы к одному контроллеру выполняются последовательно.
type controller struct {
	mu    sync.Mutex
	cache *feed.Cache
}

// Service — описывает бизнес-логику catchup-service.
type Service struct {
	cfg         config.Config
	controllers map[string]*controller
	types       []string
	onWarmup    func(serviceType string, err error)
}

// New создает новый экземпляр Service: по контроллеру на каждый источник из sources
// (ключ — тип сервиса).
func New(cfg config.Config, store storage.LocalStore, sources map[string]feed.Source, opts Options) *Service {
	s := &Service{
		cfg:         cfg,
		controllers: make(map[string]*controller, len(sources)),
		types:       make([]string, 0, len(sources)),
		onWarmup:    opts.OnWarmup,
	}

	for serviceType, src := range sources {
		s.controllers[serviceType] = &controller{
			cache: feed.New(serviceType, store, src, feed.NewSession(), feed.Options{
				Expiration: cfg.Cache.Expiration,
				Now:        opts.Now,
				Recorder:   opts.Recorder,
			}),
		}
		s.types = append(s.types, serviceType)
	}

	sort.Strings(s.types)

	return s
}

// Services возвращает отсортированный список настроенных сервисов.
func (s *Service) Services() []string {
	output := make([]string, len(s.types))
	copy(output, s.types)
	return output
}
