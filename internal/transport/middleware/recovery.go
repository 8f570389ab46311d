package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/transport"
)

// RecoveryMiddleware provides panic recovery with detailed logging
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic recovered",
						"error", err,
						"method", r.Method,
						"url", r.URL.String(),
						"stack", string(debug.Stack()))

					base.WriteJSON(w, http.StatusInternalServerError, transport.Result{
						Success: false,
						Error:   internal.GenericErrorMessage,
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
