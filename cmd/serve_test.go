package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/acuityprep/blueprint-cli/internal/matcher"
	"github.com/acuityprep/blueprint-cli/internal/model"
	"github.com/acuityprep/blueprint-cli/internal/pipeline"
	"github.com/acuityprep/blueprint-cli/internal/store"
	"github.com/acuityprep/blueprint-cli/internal/taxonomy"
)

func newTestEngine(t *testing.T) *engine {
	t.Helper()
	tax, err := taxonomy.Load()
	require.NoError(t, err)
	m := matcher.New(tax)
	return &engine{Tax: tax, Matcher: m, Pipeline: pipeline.New(tax, m)}
}

func TestHandleNormalize(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)

	body := `{
		"exam": "comlex2",
		"source": "nbome",
		"rows": [
			{"categoryType": "competency_domain", "name": "OMM", "correct": 18, "total": 30, "confidence": 1}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/normalize", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handleNormalize(eng)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var out pipeline.Output
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "Osteopathic Principles, Practice, and Manipulative Treatment", out.Rows[0].Name)
	assert.InDelta(t, 0.4*0.12, out.Rows[0].ROI, 1e-9)
}

func TestHandleNormalize_BadRequests(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/normalize", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handleNormalize(eng)(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/normalize", strings.NewReader(`{"exam":"step3","rows":[]}`))
	rec = httptest.NewRecorder()
	handleNormalize(eng)(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAudit(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)

	body := `[
		{"exam": "step2", "categoryType": "system", "rawName": "Cardiology"},
		{"exam": "step2", "categoryType": "system", "rawName": "Underwater Basket Weaving"}
	]`
	req := httptest.NewRequest(http.MethodPost, "/v1/audit", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handleAudit(eng)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report struct {
		Total    int     `json:"total"`
		Matched  int     `json:"matched"`
		Coverage float64 `json:"coverage"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Matched)
	assert.InDelta(t, 0.5, report.Coverage, 1e-9)
}

func TestHandleGetSession_NotFound(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(t.Context()))

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/does-not-exist", nil)
	rec := httptest.NewRecorder()
	handleGetSession(st, eng)(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDeleteSession(t *testing.T) {
	t.Parallel()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(t.Context()))

	sess, err := st.SaveSession(t.Context(), model.Envelope{
		Version: model.EnvelopeVersion,
		Exam:    "comlex2",
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Delete("/v1/sessions/{id}", handleDeleteSession(st))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+sess.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	_, err = st.GetSession(t.Context(), sess.ID)
	assert.Error(t, err)

	// Deleting again is a 404.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+sess.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	handler := rateLimit(rate.Limit(1), 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 4)
	for range 4 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes = append(codes, rec.Code)
	}

	// Burst of 2 passes, the rest are rejected.
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
	assert.Equal(t, http.StatusTooManyRequests, codes[3])
}
