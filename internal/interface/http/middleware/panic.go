package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/clubnft/clubd/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var somethingWentWrong = errors.INTERNAL_ERROR.New("something went wrong")

// PanicRecovery turns a panic into an INTERNAL_ERROR response instead of
// crashing the server.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Errorf("panic-recovery middleware recovered from panic: %v", rec)
				log.Errorf("stack trace: %v", string(debug.Stack()))
				WriteError(w, somethingWentWrong)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
