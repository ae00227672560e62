package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trilog/internal/auth"
	"trilog/internal/schedule"
)

type ScheduleHandler struct {
	Svc *schedule.Service
}

func (h *ScheduleHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req schedule.UpsertInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	sched, err := h.Svc.Upsert(r.Context(), uid, req)
	switch {
	case errors.Is(err, schedule.ErrInvalid):
		http.Error(w, "invalid schedule", http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"schedule":       sched,
		"availableHours": schedule.AvailableHours(sched.WakeTime, sched.BedTime),
	})
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	date := chi.URLParam(r, "date")

	sched, err := h.Svc.Get(r.Context(), uid, date)
	if errors.Is(err, schedule.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"schedule":       sched,
		"availableHours": schedule.AvailableHours(sched.WakeTime, sched.BedTime),
	})
}
