package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slurmdeck/slurmdeck/pkg/dashboard"
	"github.com/slurmdeck/slurmdeck/pkg/jobcache"
	"github.com/slurmdeck/slurmdeck/pkg/kvstore"
	"github.com/slurmdeck/slurmdeck/pkg/slurm"
)

type stubRunner struct {
	outputs map[string]string
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	full := strings.Join(append([]string{name}, args...), " ")
	for _, key := range []string{full, name} {
		if out, ok := s.outputs[key]; ok {
			return out, nil
		}
	}
	return "", errors.New("unavailable: " + name)
}

func newTestServer(outputs map[string]string) *Server {
	client := slurm.NewClient(&stubRunner{outputs: outputs}, slurm.DefaultCommands(), slurm.Options{Concurrency: 2})
	m := dashboard.New(client, dashboard.Caches{
		Paths: jobcache.NewPathCache(kvstore.NewMemStore(), 0, nil),
		Pins:  jobcache.NewPinCache(kvstore.NewMemStore(), 0, nil),
	}, nil)
	return New("localhost", 0, m, nil)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestJobsEndpoint(t *testing.T) {
	srv := newTestServer(map[string]string{
		"squeue": "42|train|R|1:00|gpu|node01|10:00|2026-08-29T10:00:00\n" +
			"43|eval|PD|0:00|gpu||1:00|N/A\n",
		"scontrol show job -o 42": "StdOut=/logs/42.out StdErr=/logs/42.err",
		"scontrol show job -o 43": "StdOut=/logs/43.out StdErr=/logs/43.err",
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int               `json:"count"`
		Jobs  []slurm.JobRecord `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Jobs, 2)
	assert.Equal(t, "42", body.Jobs[0].ID)
	assert.Equal(t, "/logs/42.out", body.Jobs[0].StdoutPath)
}

func TestJobsEndpointDegradesWithoutScheduler(t *testing.T) {
	srv := newTestServer(nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Count)
}

func TestHistoryEndpoint(t *testing.T) {
	srv := newTestServer(map[string]string{
		"sacct": "7|done|COMPLETED|0:0|2026-08-28T09:00:00|2026-08-28T10:00:00|1:00:00|gpu|node01\n",
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count   int                   `json:"count"`
		History []slurm.HistoryRecord `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.History, 1)
	assert.Equal(t, "7", body.History[0].ID)
}

func TestUnknownRouteReturns404(t *testing.T) {
	srv := newTestServer(nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	srv := newTestServer(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	cancel()

	assert.NoError(t, <-done)
}
