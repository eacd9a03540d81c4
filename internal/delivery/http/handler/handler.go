package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Asterovim/jina-reader-crawler/internal/delivery/http/response"
	"github.com/Asterovim/jina-reader-crawler/internal/usecase"
)

type Handler struct {
	progress *usecase.Progress
}

func NewHandler(progress *usecase.Progress) *Handler {
	return &Handler{
		progress: progress,
	}
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	snap := h.progress.Snapshot()

	resp := response.ProgressResponse{
		RunID:        snap.RunID,
		TotalTargets: snap.TotalTargets,
		CurrentIndex: snap.CurrentIndex,
		Attempted:    snap.Attempted,
		Succeeded:    snap.Succeeded,
		Duplicates:   snap.Duplicates,
		Failed:       snap.Failed,
		ElapsedSec:   snap.ElapsedSec,
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}
