// models содержит доменные сущности catchup-сервиса.
// Эти типы используются слоями кэша, хранилища, источников и транспорта.
package models

import (
	"strconv"
	"time"
)

// NoSession — значение идентификатора сессии, пока сессия пагинации не установлена.
const NoSession int64 = -1

// FeedItem — нормализованный элемент ленты.
//
// Особенности:
//   - StableID стабилен между загрузками и уникален между сервисами
//     (префикс — тип сервиса);
//   - временные метки — в UTC.
type FeedItem struct {
	// StableID — стабильный идентификатор (дедупликация, поиск, порядок).
	StableID string `json:"id"`
	// Title — заголовок.
	Title string `json:"title"`
	// URL — ссылка на материал (может быть пустой, например Ask HN).
	URL string `json:"url,omitempty"`
	// Source — хост URL.
	Source string `json:"source,omitempty"`
	// Author — автор.
	Author string `json:"author,omitempty"`
	// Score — рейтинг у источника.
	Score int `json:"score"`
	// CommentsCount — число комментариев верхнего уровня.
	CommentsCount int `json:"comments_count"`
	// CommentsURL — ссылка на обсуждение.
	CommentsURL string `json:"comments_url,omitempty"`
	// PublishedAt — время публикации у источника.
	PublishedAt time.Time `json:"published_at"`
}

// ServicePage — одна страница результатов одного сервиса.
//
// Инварианты:
//   - Items хранит stable id в порядке выдачи источника, порядок при чтении сохраняется;
//   - Expiration проверяется только для страницы 0;
//   - SessionID связывает страницы 0..N одной сессии пагинации.
type ServicePage struct {
	ID         string
	Type       string
	Page       int
	Items      []string
	Expiration time.Time
	SessionID  int64
}

// PageID возвращает составной ключ страницы: тип сервиса + номер страницы.
func PageID(serviceType string, page int) string {
	return serviceType + ":" + strconv.Itoa(page)
}

// PageRequest — запрос данных от вызывающей стороны.
type PageRequest struct {
	// Page — номер страницы (с нуля).
	Page int
	// Multipage — вернуть все страницы 0..Page одним списком.
	Multipage bool
	// FromRefresh — «pull to refresh»: чтение локального кэша пропускается.
	FromRefresh bool
}
