package api

import (
	"net/http"

	"github.com/TillBeemelmanns/PDFCompare/pkg/api/middleware"
)

// newMux creates and returns a new HTTP ServeMux with the API's routes registered.
func (a *API) newMux() *http.ServeMux {
	mux := http.NewServeMux()

	withReqID := middleware.NewReqID()
	withAuth := middleware.NewAuth(a.config.APIKeys)

	mux.Handle("GET /livez", middleware.Use(a.healthCheck, withReqID))

	mux.Handle("POST /api/v1/index", middleware.Use(a.buildIndex, withReqID, withAuth))
	mux.Handle("GET /api/v1/index/{run_id}/events", middleware.Use(a.indexEvents, withReqID, withAuth))
	mux.Handle("POST /api/v1/compare", middleware.Use(a.compare, withReqID, withAuth))

	return mux
}
