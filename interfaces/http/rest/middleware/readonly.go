package middleware

import (
	"net/http"

	"fsmviz/pkg/common"
)

// ReadOnly rejects requests on routes it wraps when the server runs in
// read-only mode.
func ReadOnly(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			common.RespondError(w, http.StatusForbidden, "READ_ONLY", "server is in read-only mode")
		})
	}
}
