package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/josh-kwaku/minibank/internal/handler"
	"github.com/josh-kwaku/minibank/internal/logging"
)

// Recovery turns a handler panic into a 500 envelope. A panic after the
// handler already wrote its status is only logged.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &wroteRecorder{ResponseWriter: w}
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				logging.FromContext(r.Context()).Error("panic recovered",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				if !rec.wrote {
					handler.RespondAppError(w, handler.ErrInternalError, nil)
				}
			}
		}()
		next.ServeHTTP(rec, r)
	})
}

type wroteRecorder struct {
	http.ResponseWriter
	wrote bool
}

func (r *wroteRecorder) WriteHeader(code int) {
	r.wrote = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *wroteRecorder) Write(b []byte) (int, error) {
	r.wrote = true
	return r.ResponseWriter.Write(b)
}
