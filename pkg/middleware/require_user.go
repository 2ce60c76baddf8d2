package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/legaldesk/pkg/composables"
	"github.com/iota-uz/legaldesk/pkg/httpapi"
)

// RequireUser rejects requests that the front-end proxy did not attribute
// to a user. It must run after RequestParams.
func RequireUser() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := composables.UseUserID(r.Context()); err != nil {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "user is not authenticated", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
