package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfmodel"
)

// compareRequest is the wire shape of POST /api/v1/compare.
type compareRequest struct {
	RunID      string          `json:"run_id"`
	TargetPath string          `json:"target_path"`
	Params     pdfmodel.Params `json:"params"`
}

// compare handles POST /api/v1/compare - runs the target document against a
// previously built index (identified by run_id) and returns the match set.
func (a *API) compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.ErrorContext(r.Context(), "failed to decode compare request", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)

		return
	}

	if req.TargetPath == "" {
		http.Error(w, "target_path field is required", http.StatusBadRequest)
		return
	}

	if req.RunID == "" {
		http.Error(w, "run_id field is required", http.StatusBadRequest)
		return
	}

	run, ok := a.runs.get(req.RunID)
	if !ok {
		http.Error(w, "unknown run_id", http.StatusNotFound)
		return
	}

	status, store, buildErr := run.snapshot()

	switch status {
	case runStatusRunning:
		http.Error(w, "index build still running", http.StatusConflict)
		return
	case runStatusFailed:
		slog.ErrorContext(r.Context(), "compare requested against failed index build", "run_id", req.RunID, "error", buildErr)
		http.Error(w, "index build failed", http.StatusFailedDependency)

		return
	}

	if req.Params == (pdfmodel.Params{}) {
		req.Params = pdfmodel.DefaultParams()
	} else if req.Params.Mode == "" {
		req.Params.Mode = pdfmodel.ModeExact
	}

	result, err := a.svc.Compare(r.Context(), req.TargetPath, store, req.Params, nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "compare failed", "error", err)
		http.Error(w, "failed to compare target document", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(result); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}
