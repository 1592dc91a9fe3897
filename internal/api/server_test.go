package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deliberate-api/deliberate/internal/deliberation"
	"github.com/deliberate-api/deliberate/internal/job"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

var defaultModels = []string{"model-a", "model-b", "model-c"}

// deliberatorFunc adapts a function to the Deliberator interface.
type deliberatorFunc func(ctx context.Context, req deliberation.Request, onProgress deliberation.ProgressFunc) (*deliberation.DeliberationResult, error)

func (f deliberatorFunc) Run(ctx context.Context, req deliberation.Request, onProgress deliberation.ProgressFunc) (*deliberation.DeliberationResult, error) {
	return f(ctx, req, onProgress)
}

func newTestServer(engine Deliberator) (*Server, *job.Store) {
	store := job.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(store, engine, defaultModels, logger), store
}

// waitTerminal polls the store until the job reaches a terminal status.
func waitTerminal(t *testing.T, store *job.Store, id string) *job.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		j, err := store.Get(id)
		if err != nil {
			t.Fatalf("job disappeared: %v", err)
		}
		if j.Status == job.StatusCompleted || j.Status == job.StatusFailed {
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal status")
	return nil
}

func postDeliberate(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/deliberate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	server, _ := newTestServer(nil)
	router := server.Router()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestServer_CreateDeliberation(t *testing.T) {
	done := make(chan deliberation.Request, 1)
	server, store := newTestServer(deliberatorFunc(func(ctx context.Context, req deliberation.Request, onProgress deliberation.ProgressFunc) (*deliberation.DeliberationResult, error) {
		onProgress(1, "r1")
		onProgress(2, "r2")
		onProgress(3, "r3")
		done <- req
		return &deliberation.DeliberationResult{
			Verdict:         "it holds",
			Confidence:      deliberation.ConfidenceHigh,
			RoundsCompleted: 3,
			TokensUsed:      100,
		}, nil
	}))
	router := server.Router()

	w := postDeliberate(t, router, `{"thesis": "Remote work increases productivity"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", w.Code, w.Body.String())
	}

	var created JobCreatedResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if created.Status != job.StatusPending {
		t.Errorf("status = %q, want pending", created.Status)
	}
	if created.PollURL != "/v1/jobs/"+created.JobID {
		t.Errorf("poll url = %q", created.PollURL)
	}

	// The background run receives the default model trio.
	select {
	case req := <-done:
		if len(req.Models) != 3 || req.Models[0] != "model-a" {
			t.Errorf("engine received models %v, want defaults", req.Models)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("engine was never invoked")
	}

	j := waitTerminal(t, store, created.JobID)
	if j.Status != job.StatusCompleted {
		t.Errorf("status = %q, want completed (error: %s)", j.Status, j.Error)
	}
	if j.Result == nil || j.Result.Verdict != "it holds" {
		t.Errorf("result = %+v", j.Result)
	}
	if j.CurrentRound != 3 {
		t.Errorf("current round = %d, want 3", j.CurrentRound)
	}
}

func TestServer_CreateDeliberation_Validation(t *testing.T) {
	server, _ := newTestServer(nil)
	router := server.Router()

	tests := []struct {
		name string
		body string
	}{
		{"missing thesis", `{"context": "no thesis here"}`},
		{"two models", `{"thesis": "t", "models": ["a", "b"]}`},
		{"four models", `{"thesis": "t", "models": ["a", "b", "c", "d"]}`},
		{"malformed json", `{"thesis": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postDeliberate(t, router, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestServer_CreateDeliberation_ExplicitModels(t *testing.T) {
	done := make(chan deliberation.Request, 1)
	server, _ := newTestServer(deliberatorFunc(func(ctx context.Context, req deliberation.Request, onProgress deliberation.ProgressFunc) (*deliberation.DeliberationResult, error) {
		done <- req
		return &deliberation.DeliberationResult{RoundsCompleted: 3}, nil
	}))
	router := server.Router()

	w := postDeliberate(t, router, `{"thesis": "t", "models": ["x", "y", "z"]}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	select {
	case req := <-done:
		if len(req.Models) != 3 || req.Models[0] != "x" {
			t.Errorf("engine received models %v", req.Models)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("engine was never invoked")
	}
}

func TestServer_GetJob_NotFound(t *testing.T) {
	server, _ := newTestServer(nil)
	router := server.Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/dlb_missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestServer_ListJobs(t *testing.T) {
	server, store := newTestServer(nil)
	router := server.Router()

	for range 5 {
		store.Create("t", "", defaultModels)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs?limit=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var jobs []JobStatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &jobs); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("listed %d jobs, want 2", len(jobs))
	}
}

func TestServer_EngineErrorFailsJob(t *testing.T) {
	server, store := newTestServer(deliberatorFunc(func(ctx context.Context, req deliberation.Request, onProgress deliberation.ProgressFunc) (*deliberation.DeliberationResult, error) {
		return nil, context.DeadlineExceeded
	}))
	router := server.Router()

	w := postDeliberate(t, router, `{"thesis": "t"}`)
	var created JobCreatedResponse
	json.Unmarshal(w.Body.Bytes(), &created)

	j := waitTerminal(t, store, created.JobID)
	if j.Status != job.StatusFailed {
		t.Errorf("status = %q, want failed", j.Status)
	}
	if j.Error == "" {
		t.Error("failed job missing error message")
	}
}

func TestServer_PanicFailsJob(t *testing.T) {
	server, store := newTestServer(deliberatorFunc(func(ctx context.Context, req deliberation.Request, onProgress deliberation.ProgressFunc) (*deliberation.DeliberationResult, error) {
		panic("unexpected orchestration bug")
	}))
	router := server.Router()

	w := postDeliberate(t, router, `{"thesis": "t"}`)
	var created JobCreatedResponse
	json.Unmarshal(w.Body.Bytes(), &created)

	j := waitTerminal(t, store, created.JobID)
	if j.Status != job.StatusFailed {
		t.Errorf("status = %q, want failed", j.Status)
	}
	if !strings.Contains(j.Error, "unexpected orchestration bug") {
		t.Errorf("error = %q, want panic message recorded", j.Error)
	}
}
