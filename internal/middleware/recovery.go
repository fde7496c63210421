package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/locallibrary/catalog/internal/handler/dto"
)

// Recoverer turns panics into a logged 500 with the standard error body.
// With printStack the trace is also written to stderr.
func Recoverer(logger *slog.Logger, printStack bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)
				if printStack {
					debug.PrintStack()
				}

				writeError(w, http.StatusInternalServerError, dto.CodeInternal, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
