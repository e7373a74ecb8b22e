package models

import (
	"fmt"
	"time"
)

// QueryKind — вариант запроса страницы к локальному хранилищу.
type QueryKind int

const (
	// QueryExactSession — страница page > 0 с точным совпадением сессии.
	QueryExactSession QueryKind = iota + 1
	// QueryFreshAfter — страница 0, только если Expiration > Bound.
	QueryFreshAfter
	// QueryLatest — страница 0 без учёта срока годности (деградированное чтение).
	QueryLatest
)

func (k QueryKind) String() string {
	switch k {
	case QueryExactSession:
		return "exact_session"
	case QueryFreshAfter:
		return "fresh_after"
	case QueryLatest:
		return "latest"
	default:
		return fmt.Sprintf("query_kind(%d)", int(k))
	}
}

// PageQuery — размеченный вариант запроса страницы.
// Значимые поля зависят от Kind:
//   - QueryExactSession: Page, SessionID;
//   - QueryFreshAfter: Bound (Page всегда 0);
//   - QueryLatest: Page всегда 0.
type PageQuery struct {
	Kind      QueryKind
	Page      int
	SessionID int64
	Bound     time.Time
}

// ExactSession строит запрос страницы page, сохранённой в сессии sessionID.
func ExactSession(page int, sessionID int64) PageQuery {
	return PageQuery{Kind: QueryExactSession, Page: page, SessionID: sessionID}
}

// FreshAfter строит запрос страницы 0, не истёкшей к моменту bound.
func FreshAfter(bound time.Time) PageQuery {
	return PageQuery{Kind: QueryFreshAfter, Bound: bound.UTC()}
}

// Latest строит запрос последней сохранённой страницы 0 независимо от срока годности.
func Latest() PageQuery {
	return PageQuery{Kind: QueryLatest}
}

// Matches сообщает, удовлетворяет ли сохранённая страница запросу.
// Используется хранилищами, которые не умеют фильтровать на своей стороне.
func (q PageQuery) Matches(p *ServicePage) bool {
	if p == nil {
		return false
	}

	switch q.Kind {
	case QueryExactSession:
		return p.Page == q.Page && p.SessionID == q.SessionID
	case QueryFreshAfter:
		return p.Page == 0 && p.Expiration.After(q.Bound)
	case QueryLatest:
		return p.Page == 0
	default:
		return false
	}
}
