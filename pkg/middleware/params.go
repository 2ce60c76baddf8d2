package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iota-uz/legaldesk/pkg/composables"
	"github.com/iota-uz/legaldesk/pkg/configuration"
)

// RequestParams stores per-request parameters (ip, user agent and the user
// id forwarded by the front-end proxy) on the context.
func RequestParams(conf *configuration.Configuration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _ := realIP(r, conf.RealIPHeader)
			params := &composables.Params{
				IP:        ip,
				UserAgent: r.UserAgent(),
				UserID:    strings.TrimSpace(r.Header.Get(conf.UserIDHeader)),
				Request:   r,
				Writer:    w,
			}
			next.ServeHTTP(w, r.WithContext(composables.WithParams(r.Context(), params)))
		})
	}
}
