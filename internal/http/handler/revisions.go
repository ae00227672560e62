package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"trilog/internal/auth"
	"trilog/internal/revision"
)

type RevisionHandler struct {
	Svc *revision.Service
}

func (h *RevisionHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	schedules, total, err := h.Svc.ListByStatus(r.Context(), uid, q.Get("status"), limit, offset)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"revisions": schedules,
		"total":     total,
	})
}

func (h *RevisionHandler) Due(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	schedules, err := h.Svc.ListDue(r.Context(), uid, time.Now().UTC())
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"revisions": schedules})
}

type completeReq struct {
	ResponseText string `json:"responseText"`
	Confidence   *int   `json:"confidence"`
}

func (h *RevisionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req completeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	sched, err := h.Svc.Complete(r.Context(), uid, id, req.ResponseText, req.Confidence)
	switch {
	case errors.Is(err, revision.ErrBadConfidence):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, revision.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
		return
	case errors.Is(err, revision.ErrAlreadyCompleted):
		http.Error(w, "already completed", http.StatusConflict)
		return
	case err != nil:
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"revision": sched})
}

type missReq struct {
	Reschedule *bool `json:"reschedule"`
}

func (h *RevisionHandler) Miss(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	reschedule := true
	var req missReq
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Reschedule != nil {
		reschedule = *req.Reschedule
	}

	sched, err := h.Svc.MarkMissed(r.Context(), uid, id, reschedule)
	switch {
	case errors.Is(err, revision.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"revision": sched})
}
