package middlewares

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/sbilibin2017/gw-user-account/internal/logger"
	"github.com/sbilibin2017/gw-user-account/internal/response"
)

// RecoverMiddleware turns a panic in next into a 500 envelope.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.FromContext(r.Context()).Errorw("panic recovered",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			response.Error(r.Context(), w, fmt.Errorf("panic: %v", rec))
		}()

		next.ServeHTTP(w, r)
	})
}
