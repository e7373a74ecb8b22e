// remote описывает таксономию ошибок удалённых источников лент.
//
// Источники (hackernews, rss) оборачивают любую ошибку в *Error с явным Kind,
// а кэш классифицирует её ровно один раз через KindOf.
package remote

import (
	"context"
	"errors"
	"fmt"
)

// Kind — класс ошибки удалённого источника.
type Kind int

const (
	// KindUnknown — ошибка не от источника (или без классификации).
	KindUnknown Kind = iota
	// KindTransport — сбой связи/ввода-вывода до источника.
	KindTransport
	// KindBackend — явный отказ источника (не-2xx, битый ответ).
	KindBackend
	// KindCanceled — запрос отменён вызывающей стороной или истёк его дедлайн.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindBackend:
		return "backend"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error — классифицированная ошибка источника.
type Error struct {
	Kind Kind
	Op   string
	// Status — HTTP-статус ответа для KindBackend (0, если ответа не было).
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s error: status=%d", e.Op, e.Kind, e.Status)
	}

	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transport оборачивает сбой связи.
func Transport(op string, err error) error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// Backend оборачивает явный отказ источника.
func Backend(op string, status int, err error) error {
	return &Error{Kind: KindBackend, Op: op, Status: status, Err: err}
}

// KindOf классифицирует ошибку.
//
// Явный Kind из *Error главнее: источник решает в момент сбоя, отменил ли
// запрос вызывающий (тогда возвращается ctx.Err() без *Error) или сработал
// таймаут http.Client. Начиная с Go 1.23 ошибка таймаута клиента тоже
// удовлетворяет errors.Is(err, context.DeadlineExceeded), но это сбой связи.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}

	return KindUnknown
}
