package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/segment-research/internal/model"
	"github.com/sells-group/segment-research/internal/pipeline"
	"github.com/sells-group/segment-research/internal/store"
)

// fakeRunner reports every input it receives.
type fakeRunner struct {
	inputs chan pipeline.Input
}

func (f *fakeRunner) Run(_ context.Context, in pipeline.Input) (*model.RunResult, error) {
	f.inputs <- in
	return &model.RunResult{RunID: in.RunID}, nil
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func postRun(t *testing.T, h http.Handler, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

var validProductFit = map[string]any{
	"core_problem":       "Missed regulatory filings",
	"product_type":       "compliance automation",
	"valid_pain_domains": []string{"regulatory reporting"},
}

func TestBuildRouter_Health(t *testing.T) {
	h := buildRouter(context.Background(), nil, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestBuildRouter_Metrics(t *testing.T) {
	h := buildRouter(context.Background(), nil, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestBuildRouter_SubmitRun(t *testing.T) {
	st := newTestStore(t)
	runner := &fakeRunner{inputs: make(chan pipeline.Input, 1)}
	h := buildRouter(context.Background(), runner, st)

	rr := postRun(t, h, map[string]any{
		"url":         "https://acme.com",
		"product_fit": validProductFit,
		"landscape":   map[string][]string{"federal": {"FFIEC CDR"}},
	})
	require.Equal(t, http.StatusAccepted, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])
	require.NotEmpty(t, resp["run_id"])

	select {
	case in := <-runner.inputs:
		assert.Equal(t, resp["run_id"], in.RunID)
		assert.Equal(t, "https://acme.com", in.URL)
		assert.Equal(t, "Missed regulatory filings", in.ProductFit.CoreProblem)
		assert.Equal(t, []string{"FFIEC CDR"}, in.Landscape["federal"])
	case <-time.After(time.Second):
		t.Fatal("runner was not invoked")
	}

	run, err := st.GetRun(context.Background(), resp["run_id"])
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusQueued, run.Status)
}

func TestBuildRouter_SubmitRun_Validation(t *testing.T) {
	h := buildRouter(context.Background(), nil, nil)

	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{"missing url", map[string]any{"product_fit": validProductFit}, "url is required"},
		{"missing product fit", map[string]any{"url": "https://acme.com"}, "product_fit is required"},
		{"invalid product fit", map[string]any{"url": "https://acme.com", "product_fit": map[string]any{"core_problem": ""}}, "invalid"},
		{"invalid landscape", map[string]any{"url": "https://acme.com", "product_fit": validProductFit, "landscape": map[string]any{"federal": "FFIEC"}}, "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postRun(t, h, tt.payload)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.want)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/runs", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBuildRouter_GetRuns(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	run, err := st.CreateRun(ctx, "https://acme.com")
	require.NoError(t, err)
	h := buildRouter(ctx, nil, st)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/"+run.ID, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, run.ID, got.ID)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs?url=https://acme.com", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var runs []model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &runs))
	assert.Len(t, runs, 1)
}

func TestBuildRouter_NoStore(t *testing.T) {
	h := buildRouter(context.Background(), nil, nil)

	for _, path := range []string{"/runs", "/runs/abc"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, path)
	}
}

func TestBuildRouter_CORSPreflight(t *testing.T) {
	h := buildRouter(context.Background(), nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/runs", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
