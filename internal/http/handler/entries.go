package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"trilog/internal/auth"
	"trilog/internal/journal"
)

type EntryHandler struct {
	Svc *journal.Service
}

type newItemReq struct {
	Text string   `json:"text"`
	Tags []string `json:"tags"`
}

type createEntryReq struct {
	Date        string       `json:"date"`
	Completed   string       `json:"completed"`
	Learned     string       `json:"learned"`
	ReviseLater []newItemReq `json:"reviseLater"`
	Tags        []string     `json:"tags"`
	QuestionID  *uint64      `json:"questionId"`
	AnswerID    *uint64      `json:"answerId"`
}

func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createEntryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	items := make([]journal.NewItem, 0, len(req.ReviseLater))
	for _, it := range req.ReviseLater {
		items = append(items, journal.NewItem{Text: it.Text, Tags: it.Tags})
	}

	entry, scheduleIDs, err := h.Svc.Create(r.Context(), uid, journal.CreateInput{
		Date:        req.Date,
		Completed:   req.Completed,
		Learned:     req.Learned,
		ReviseLater: items,
		Tags:        req.Tags,
		QuestionID:  req.QuestionID,
		AnswerID:    req.AnswerID,
	})
	switch {
	case errors.Is(err, journal.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, journal.ErrExists):
		http.Error(w, "entry already exists for this date", http.StatusConflict)
		return
	case err != nil:
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"entry":       entry,
		"scheduleIds": scheduleIDs,
	})
}

type itemPatchReq struct {
	ID   string   `json:"id"`
	Text string   `json:"text"`
	Tags []string `json:"tags"`
}

type updateEntryReq struct {
	Completed   *string        `json:"completed"`
	Learned     *string        `json:"learned"`
	Tags        []string       `json:"tags"`
	ReviseLater []itemPatchReq `json:"reviseLater"`
}

func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateEntryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	var patches []journal.ItemPatch
	if req.ReviseLater != nil {
		patches = make([]journal.ItemPatch, 0, len(req.ReviseLater))
		for _, it := range req.ReviseLater {
			patches = append(patches, journal.ItemPatch{ID: it.ID, Text: it.Text, Tags: it.Tags})
		}
	}

	entry, err := h.Svc.Update(r.Context(), uid, id, journal.UpdateInput{
		Completed:   req.Completed,
		Learned:     req.Learned,
		Tags:        req.Tags,
		ReviseLater: patches,
	})
	switch {
	case errors.Is(err, journal.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
		return
	case errors.Is(err, journal.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	entry, err := h.Svc.Get(r.Context(), uid, id)
	if errors.Is(err, journal.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	entries, total, err := h.Svc.List(r.Context(), uid, journal.ListFilter{
		Date:      q.Get("date"),
		StartDate: q.Get("start"),
		EndDate:   q.Get("end"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   total,
	})
}

func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := h.Svc.Delete(r.Context(), uid, id)
	if errors.Is(err, journal.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
