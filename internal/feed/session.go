package feed

import (
	"time"

	"github.com/pribylovaa/catchup/internal/models"
)

// Session — состояние сессии пагинации одного контроллера.
//
// Страницы 0..N одной сессии сохраняются с одним SessionID, поэтому
// страница N соответствует состоянию источника на момент загрузки страницы 0.
// Session не потокобезопасна: ею владеет ровно один вызывающий.
type Session struct {
	id int64
}

// NewSession возвращает сессию без установленного идентификатора.
func NewSession() *Session {
	return &Session{id: models.NoSession}
}

// ID возвращает текущий идентификатор (models.NoSession, если не установлен).
func (s *Session) ID() int64 { return s.id }

// Established сообщает, установлена ли сессия.
func (s *Session) Established() bool { return s.id != models.NoSession }

// next вычисляет идентификатор для страницы, загруженной из сети, не меняя сессию.
// Новая сессия выпускается при обновлении страницы 0 или если сессии ещё нет;
// идентификатор выводится из срока годности загрузки.
func (s *Session) next(page int, isRefresh bool, expiration time.Time) int64 {
	if (page == 0 && isRefresh) || !s.Established() {
		return expiration.UnixMilli()
	}

	return s.id
}

// commit фиксирует идентификатор после полностью успешной операции.
func (s *Session) commit(id int64) { s.id = id }
