package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/shared"
)

type mockRuns struct {
	runs     []*models.Run
	err      error
	criteria map[string]any
}

func (m *mockRuns) List(criteria map[string]any) ([]*models.Run, error) {
	m.criteria = criteria
	return m.runs, m.err
}

func TestBasicRouter(t *testing.T) {
	t.Run("applies middleware in order", func(t *testing.T) {
		var order []string
		tag := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(tag("first"), tag("second"))
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if got := strings.Join(order, ","); got != "first,second,handler" {
			t.Errorf("order = %s", got)
		}
	})

	t.Run("rejects other methods", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})
}

func TestSiteHandler(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Mixdiscs</h1>"), 0644); err != nil {
		t.Fatal(err)
	}

	var logs bytes.Buffer
	router := NewBasicRouter()
	router.Use(RequestLogger(shared.NewLogger(&logs)), NoCache)
	router.Handler(NewSiteHandler(dir))

	t.Run("serves index", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Mixdiscs") {
			t.Errorf("body = %q", rec.Body.String())
		}
		if rec.Header().Get("Cache-Control") != "no-store" {
			t.Error("missing Cache-Control header")
		}
		if !strings.Contains(logs.String(), "path=/") {
			t.Errorf("request was not logged: %s", logs.String())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/playlists/none.csv", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
		if !strings.Contains(logs.String(), "status=404") {
			t.Errorf("status was not logged: %s", logs.String())
		}
	})
}

func TestRunsHandler(t *testing.T) {
	started := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	run := models.NewRun("run-1", "render", started)
	run.Sequence = 3
	run.Frozen = 1

	tests := []struct {
		name       string
		query      string
		repo       *mockRuns
		wantStatus int
		wantBody   string
		wantLimit  int
	}{
		{name: "default limit", repo: &mockRuns{runs: []*models.Run{run}}, wantStatus: http.StatusOK, wantBody: `"id": "run-1"`, wantLimit: 20},
		{name: "custom limit", query: "?limit=5&command=render", repo: &mockRuns{}, wantStatus: http.StatusOK, wantBody: "[]", wantLimit: 5},
		{name: "invalid limit", query: "?limit=zero", repo: &mockRuns{}, wantStatus: http.StatusBadRequest},
		{name: "repository error", repo: &mockRuns{err: errors.New("db closed")}, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewBasicRouter()
			router.Handler(NewRunsHandler(tt.repo))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want %s", rec.Body.String(), tt.wantBody)
			}
			if tt.wantLimit != 0 && tt.repo.criteria["limit"] != tt.wantLimit {
				t.Errorf("limit = %v, want %d", tt.repo.criteria["limit"], tt.wantLimit)
			}
		})
	}
}

func TestServe(t *testing.T) {
	t.Run("stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- Serve(ctx, "127.0.0.1:0", http.NotFoundHandler(), shared.DiscardLogger())
		}()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve returned %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not stop")
		}
	})

	t.Run("listen error", func(t *testing.T) {
		err := Serve(context.Background(), "256.0.0.1:bad", http.NotFoundHandler(), shared.DiscardLogger())
		if err == nil {
			t.Error("expected listen error")
		}
	})
}
