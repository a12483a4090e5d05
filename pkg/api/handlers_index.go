package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfmodel"
)

// indexRequest is the wire shape of POST /api/v1/index.
type indexRequest struct {
	RefPaths []string        `json:"ref_paths"`
	Params   pdfmodel.Params `json:"params"`
}

// indexAccepted is returned immediately; the build continues in the
// background and is observable via GET /api/v1/index/{run_id}/events.
type indexAccepted struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// buildIndex handles POST /api/v1/index - starts a reference-pool index
// build and returns its run id. The build keeps running after the response
// is written; its progress and final doc count are available at
// GET /api/v1/index/{run_id}/events.
func (a *API) buildIndex(w http.ResponseWriter, r *http.Request) {
	var req indexRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.ErrorContext(r.Context(), "failed to decode index request", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)

		return
	}

	if len(req.RefPaths) == 0 {
		http.Error(w, "ref_paths field is required and must not be empty", http.StatusBadRequest)
		return
	}

	if req.Params == (pdfmodel.Params{}) {
		req.Params = pdfmodel.DefaultParams()
	} else if req.Params.Mode == "" {
		req.Params.Mode = pdfmodel.ModeExact
	}

	runID := uuid.NewString()
	run := a.runs.create(runID)

	go a.runBuildIndex(run, req.RefPaths, req.Params)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)

	if err := json.NewEncoder(w).Encode(indexAccepted{RunID: runID, Status: string(runStatusRunning)}); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// runBuildIndex runs on a detached background context: the build must
// outlive the HTTP request that started it so SSE subscribers opened after
// the response was sent still observe progress and completion.
func (a *API) runBuildIndex(run *run, refPaths []string, params pdfmodel.Params) {
	ctx := context.Background()

	store, err := a.svc.BuildIndex(ctx, refPaths, params, run.progress)
	if err != nil {
		slog.ErrorContext(ctx, "index build failed", "error", err)
	}

	run.finish(store, err)
}

// indexEvents handles GET /api/v1/index/{run_id}/events - a Server-Sent
// Events stream of ProgressEvent values for a running or finished index
// build. Already-observed events are replayed before switching to live
// delivery.
func (a *API) indexEvents(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run_id")

	run, ok := a.runs.get(runID)
	if !ok {
		http.Error(w, "unknown run_id", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	past, live := run.subscribe()

	for _, ev := range past {
		writeSSEEvent(w, ev)
	}

	flusher.Flush()

	if live == nil {
		writeSSEDone(w, run)
		flusher.Flush()

		return
	}

	defer run.unsubscribe(live)

	for {
		select {
		case ev, ok := <-live:
			if !ok {
				writeSSEDone(w, run)
				flusher.Flush()

				return
			}

			writeSSEEvent(w, ev)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, ev pdfmodel.ProgressEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}

	fmt.Fprintf(w, "event: progress\ndata: %s\n\n", payload)
}

func writeSSEDone(w http.ResponseWriter, run *run) {
	status, store, err := run.snapshot()

	summary := map[string]any{"status": status}

	if err != nil {
		summary["error"] = err.Error()
	} else if store != nil {
		summary["doc_count"] = store.DocCount()
	}

	payload, mErr := json.Marshal(summary)
	if mErr != nil {
		return
	}

	fmt.Fprintf(w, "event: done\ndata: %s\n\n", payload)
}
