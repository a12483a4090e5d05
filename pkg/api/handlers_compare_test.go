package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TillBeemelmanns/PDFCompare/pkg/index"
	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfmodel"
)

func doneRun(reg *runRegistry, id string, store *index.Store, err error) *run {
	r := reg.create(id)
	r.finish(store, err)

	return r
}

func TestCompare_MissingTargetPath(t *testing.T) {
	a := &API{runs: newRunRegistry()}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", strings.NewReader(`{"run_id":"r1"}`))
	rec := httptest.NewRecorder()

	a.compare(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompare_UnknownRunID(t *testing.T) {
	a := &API{runs: newRunRegistry()}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", strings.NewReader(`{"run_id":"missing","target_path":"t.pdf"}`))
	rec := httptest.NewRecorder()

	a.compare(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompare_StillRunningReturnsConflict(t *testing.T) {
	reg := newRunRegistry()
	reg.create("r1")

	a := &API{runs: reg}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", strings.NewReader(`{"run_id":"r1","target_path":"t.pdf"}`))
	rec := httptest.NewRecorder()

	a.compare(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCompare_FailedBuildReturnsFailedDependency(t *testing.T) {
	reg := newRunRegistry()
	doneRun(reg, "r1", nil, errors.New("boom"))

	a := &API{runs: reg}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", strings.NewReader(`{"run_id":"r1","target_path":"t.pdf"}`))
	rec := httptest.NewRecorder()

	a.compare(rec, req)
	assert.Equal(t, http.StatusFailedDependency, rec.Code)
}

func TestCompare_Success(t *testing.T) {
	reg := newRunRegistry()
	idx := index.New(5)
	doneRun(reg, "r1", idx, nil)

	result := &pdfmodel.CompareResult{
		Matches:         []pdfmodel.MatchRecord{{MatchID: "m1", RefDoc: "ref1"}},
		PerRefScore:     map[string]float64{"ref1": 0.5},
		TargetWordCount: 10,
	}

	a := &API{svc: &fakeService{compareResult: result}, runs: reg}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", strings.NewReader(`{"run_id":"r1","target_path":"t.pdf"}`))
	rec := httptest.NewRecorder()

	a.compare(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got pdfmodel.CompareResult

	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 10, got.TargetWordCount)
	require.Len(t, got.Matches, 1)
	assert.Equal(t, "ref1", got.Matches[0].RefDoc)
}

func TestCompare_ServiceErrorIsInternalError(t *testing.T) {
	reg := newRunRegistry()
	idx := index.New(5)
	doneRun(reg, "r1", idx, nil)

	a := &API{svc: &fakeService{compareErr: errors.New("alignment exploded")}, runs: reg}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", strings.NewReader(`{"run_id":"r1","target_path":"t.pdf"}`))
	rec := httptest.NewRecorder()

	a.compare(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
