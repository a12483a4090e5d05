package api

import (
	"sync"

	"github.com/TillBeemelmanns/PDFCompare/pkg/index"
	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfmodel"
)

// runStatus is the lifecycle state of an index build, reported at
// GET /api/v1/index/{run_id}/events and implicitly by /api/v1/compare's
// "index build still running" and "index build failed" errors.
type runStatus string

const (
	runStatusRunning runStatus = "running"
	runStatusDone    runStatus = "done"
	runStatusFailed  runStatus = "failed"
)

// subscriberBuffer bounds the per-connection event channel; a slow SSE
// client drops events rather than blocking the index build.
const subscriberBuffer = 64

// run tracks one BuildIndex invocation: its progress history (replayed to
// late SSE subscribers), its live subscribers, and its terminal result.
type run struct {
	mu     sync.Mutex
	status runStatus
	events []pdfmodel.ProgressEvent
	subs   map[chan pdfmodel.ProgressEvent]struct{}
	store  *index.Store
	err    error
}

func newRun() *run {
	return &run{
		status: runStatusRunning,
		subs:   make(map[chan pdfmodel.ProgressEvent]struct{}),
	}
}

// progress records an event and fans it out to every live subscriber.
func (r *run) progress(ev pdfmodel.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, ev)

	for ch := range r.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (r *run) finish(store *index.Store, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store = store
	r.err = err

	if err != nil {
		r.status = runStatusFailed
	} else {
		r.status = runStatusDone
	}

	for ch := range r.subs {
		close(ch)
	}

	r.subs = nil
}

// subscribe returns the events seen so far and a channel for future ones.
// The channel is nil if the run has already finished.
func (r *run) subscribe() ([]pdfmodel.ProgressEvent, chan pdfmodel.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	past := append([]pdfmodel.ProgressEvent(nil), r.events...)

	if r.subs == nil {
		return past, nil
	}

	ch := make(chan pdfmodel.ProgressEvent, subscriberBuffer)
	r.subs[ch] = struct{}{}

	return past, ch
}

func (r *run) unsubscribe(ch chan pdfmodel.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.subs != nil {
		delete(r.subs, ch)
	}
}

func (r *run) snapshot() (runStatus, *index.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.status, r.store, r.err
}

// runRegistry is the in-memory directory of index builds started by this
// server instance, keyed by run_id.
type runRegistry struct {
	mu   sync.Mutex
	runs map[string]*run
}

func newRunRegistry() *runRegistry {
	return &runRegistry{runs: make(map[string]*run)}
}

func (reg *runRegistry) create(id string) *run {
	r := newRun()

	reg.mu.Lock()
	reg.runs[id] = r
	reg.mu.Unlock()

	return r
}

func (reg *runRegistry) get(id string) (*run, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.runs[id]

	return r, ok
}
