package middleware

import (
	"net/http"
)

// Middleware — стандартный net/http мидлвар.
type Middleware func(http.Handler) http.Handler

// Chain оборачивает h так, что первый мидлвар в списке выполняется первым.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// responseRecorder запоминает код ответа и число записанных байт.
// Logging и Metrics делят один recorder на запрос.
type responseRecorder struct {
	http.ResponseWriter
	code  int
	bytes int
}

// recordResponse возвращает recorder для w, переиспользуя уже навешенный.
func recordResponse(w http.ResponseWriter) *responseRecorder {
	if rec, ok := w.(*responseRecorder); ok {
		return rec
	}
	return &responseRecorder{ResponseWriter: w}
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.code == 0 {
		r.code = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.code == 0 {
		r.code = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

// Unwrap нужен http.ResponseController (Flush, SetWriteDeadline).
func (r *responseRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Status — записанный код; обработчик, ничего не записавший, отвечает 200.
func (r *responseRecorder) Status() int {
	if r.code == 0 {
		return http.StatusOK
	}
	return r.code
}
