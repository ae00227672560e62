package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"trilog/internal/ai"
	"trilog/internal/auth"
	"trilog/internal/summary"
)

type SummaryHandler struct {
	Svc *summary.Service
}

type generateMonthlyReq struct {
	Month string `json:"month"`
	Mode  string `json:"mode"`
}

func (h *SummaryHandler) GenerateMonthly(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req generateMonthlyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	doc, err := h.Svc.GenerateMonthly(r.Context(), uid, req.Month, req.Mode)
	if h.respondGenerateError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": doc})
}

type generateWeeklyReq struct {
	End  string `json:"end"`
	Mode string `json:"mode"`
}

func (h *SummaryHandler) GenerateWeekly(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req generateWeeklyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	doc, plan, err := h.Svc.GenerateWeekly(r.Context(), uid, req.End, req.Mode)
	if h.respondGenerateError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":      doc,
		"revisionPlan": plan,
	})
}

// respondGenerateError maps generation sentinels to status codes. It
// reports whether an error response was written.
func (h *SummaryHandler) respondGenerateError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, summary.ErrBadPeriod):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, summary.ErrNoActivity):
		http.Error(w, "no activity to summarize", http.StatusNotFound)
	case errors.Is(err, ai.ErrUnavailable):
		http.Error(w, "ai provider unavailable", http.StatusServiceUnavailable)
	case errors.Is(err, summary.ErrBadOutput):
		http.Error(w, "ai returned invalid output, retry or use heuristic mode", http.StatusBadGateway)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
	return true
}

func (h *SummaryHandler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	doc, err := h.Svc.GetMonthly(r.Context(), uid, chi.URLParam(r, "month"))
	if errors.Is(err, summary.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": doc})
}

func (h *SummaryHandler) ListMonthly(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	docs, err := h.Svc.ListMonthly(r.Context(), uid, limit)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": docs})
}

func (h *SummaryHandler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	doc, err := h.Svc.GetWeekly(r.Context(), uid, chi.URLParam(r, "start"))
	if errors.Is(err, summary.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": doc})
}

func (h *SummaryHandler) ListWeekly(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	docs, err := h.Svc.ListWeekly(r.Context(), uid, limit)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": docs})
}
