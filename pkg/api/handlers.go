package api

import (
	"log/slog"
	"net/http"
)

// healthCheck answers GET /livez with 200 so load balancers and the health
// subcommand can probe the server without credentials.
func (a *API) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte("ok")); err != nil {
		slog.ErrorContext(r.Context(), "failed to write health response", "error", err)
	}
}
