package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/shared"
)

// SiteHandler serves a rendered output directory.
type SiteHandler struct {
	files http.Handler
}

func NewSiteHandler(dir string) *SiteHandler {
	return &SiteHandler{files: http.FileServer(http.Dir(dir))}
}

func (h *SiteHandler) Routes() []string {
	return []string{"GET /"}
}

func (h *SiteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.files.ServeHTTP(w, r)
}

// RunLister is the part of the run repository the history endpoint needs.
type RunLister interface {
	List(criteria map[string]any) ([]*models.Run, error)
}

type runView struct {
	ID               string    `json:"id"`
	Sequence         int       `json:"sequence"`
	Command          string    `json:"command"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at,omitzero"`
	Total            int       `json:"total"`
	Rendered         int       `json:"rendered"`
	Failed           int       `json:"failed"`
	CacheHits        int       `json:"cache_hits"`
	CacheMisses      int       `json:"cache_misses"`
	RemoteChecks     int       `json:"remote_checks"`
	Frozen           int       `json:"frozen"`
	Unfrozen         int       `json:"unfrozen"`
	PlaylistsRemoved int       `json:"playlists_removed"`
	TracksRemoved    int       `json:"tracks_removed"`
	ErrorMessage     string    `json:"error_message,omitempty"`
}

func newRunView(r *models.Run) runView {
	return runView{
		ID:               r.ID(),
		Sequence:         r.Sequence,
		Command:          r.Command,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
		Total:            r.Total,
		Rendered:         r.Rendered,
		Failed:           r.Failed,
		CacheHits:        r.CacheHits,
		CacheMisses:      r.CacheMisses,
		RemoteChecks:     r.RemoteChecks,
		Frozen:           r.Frozen,
		Unfrozen:         r.Unfrozen,
		PlaylistsRemoved: r.PlaylistsRemoved,
		TracksRemoved:    r.TracksRemoved,
		ErrorMessage:     r.ErrorMessage,
	}
}

// RunsHandler serves the batch history as JSON. ?limit= caps the number of runs and ?command= filters them.
type RunsHandler struct {
	runs RunLister
}

func NewRunsHandler(runs RunLister) *RunsHandler {
	return &RunsHandler{runs: runs}
}

func (h *RunsHandler) Routes() []string {
	return []string{"GET /api/runs"}
}

func (h *RunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	criteria := map[string]any{"limit": 20}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		criteria["limit"] = limit
	}
	if cmd := r.URL.Query().Get("command"); cmd != "" {
		criteria["command"] = cmd
	}

	runs, err := h.runs.List(criteria)
	if err != nil {
		http.Error(w, "failed to list runs", http.StatusInternalServerError)
		return
	}

	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		views = append(views, newRunView(run))
	}
	data, err := shared.MarshalJSON(views, true)
	if err != nil {
		http.Error(w, "failed to encode runs", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
