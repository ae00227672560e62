package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"trilog/internal/auth"
	"trilog/internal/question"
)

type QuestionHandler struct {
	Svc *question.Service
}

// Today returns (creating if needed) the rotated question for the current
// UTC day, or for ?date=YYYY-MM-DD.
func (h *QuestionHandler) Today(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var (
		q   question.Question
		err error
	)
	if date := r.URL.Query().Get("date"); date != "" {
		q, err = h.Svc.AssignDaily(r.Context(), uid, date)
	} else {
		q, err = h.Svc.Today(r.Context(), uid)
	}
	switch {
	case errors.Is(err, question.ErrBadDate):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"question": q})
}

type answerReq struct {
	QuestionID uint64  `json:"questionId"`
	EntryID    *uint64 `json:"entryId"`
	Text       string  `json:"text"`
}

func (h *QuestionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req answerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	a, err := h.Svc.Answer(r.Context(), uid, req.QuestionID, req.EntryID, req.Text)
	switch {
	case errors.Is(err, question.ErrInvalid):
		http.Error(w, "answer must be 1-2000 characters", http.StatusBadRequest)
		return
	case errors.Is(err, question.ErrNotFound):
		http.Error(w, "question not found", http.StatusNotFound)
		return
	case errors.Is(err, question.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	case err != nil:
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"answer": a})
}
