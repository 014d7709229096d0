package packaging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/observability"
)

func newTestServer(t *testing.T, repo *memoryRepo) *httptest.Server {
	t.Helper()
	handler := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), newTestService(repo), observability.NewMetrics())
	r := chi.NewRouter()
	r.Route("/packaging", func(r chi.Router) {
		handler.MountRoutes(r)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestBatchLifecycleOverHTTP(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 70000, 100)
	seedProduct(repo, 7, 2500)
	srv := newTestServer(t, repo)

	resp := postJSON(t, srv.URL+"/packaging/", map[string]any{"itemId": 1, "weightTaken": 10000})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Data Batch `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.Equal(t, StatusInProgress, created.Data.Status)
	batchID := created.Data.ID

	resp = postJSON(t, fmt.Sprintf("%s/packaging/%d/items", srv.URL, batchID), map[string]any{"productId": 7, "qty": 9, "unitWeight": 1000})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, fmt.Sprintf("%s/packaging/%d/complete", srv.URL, batchID), map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var done struct {
		Data Batch `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&done))
	require.Equal(t, StatusCompleted, done.Data.Status)
	require.NotNil(t, done.Data.Efficiency)
	require.Equal(t, 90, *done.Data.Efficiency)

	// terminal batch rejects a second completion
	resp = postJSON(t, fmt.Sprintf("%s/packaging/%d/complete", srv.URL, batchID), map[string]any{})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestStartValidationOverHTTP(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 5000, 100)
	srv := newTestServer(t, repo)

	resp := postJSON(t, srv.URL+"/packaging/", map[string]any{"itemId": 1})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/packaging/", map[string]any{"itemId": 1, "weightTaken": 6000})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/packaging/", map[string]any{"itemId": 99, "weightTaken": 100})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelOverHTTP(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 70000, 100)
	srv := newTestServer(t, repo)

	resp := postJSON(t, srv.URL+"/packaging/", map[string]any{"itemId": 1, "weightTaken": 10000})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Data Batch `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	resp = postJSON(t, fmt.Sprintf("%s/packaging/%d/cancel", srv.URL, created.Data.ID), map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, fmt.Sprintf("%s/packaging/%d/cancel", srv.URL, created.Data.ID), map[string]any{"reason": "spillage"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.InDelta(t, 70000, repo.items[1].CurrentStock, 0.001)
}
