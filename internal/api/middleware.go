package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// Authorize returns middleware that requires the request's bearer token to
// grant resource. Denied callers are delayed by the authorizer's penalty before
// the 401 is written.
func Authorize(authorizer Authorizer, resource string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := authorizer.CanAccess(r.Context(), r.Header.Get("Authorization"), resource)
			if err != nil {
				log.Error("authorization check failed",
					"resource", resource,
					"request_id", middleware.GetReqID(r.Context()),
					"err", err,
				)
				writeError(w, http.StatusInternalServerError, msgServerError)
				return
			}

			if !ok {
				authorizer.Penalty(r.Context())
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Recoverer converts handler panics into a JSON 500 and logs them.
func Recoverer(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				log.Error("handler panicked",
					"recover", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", middleware.GetReqID(r.Context()),
				)
				writeError(w, http.StatusInternalServerError, msgServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
