package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"trilog/internal/auth"
	"trilog/internal/friend"
)

type FriendHandler struct {
	Svc *friend.Service
}

type friendRequestReq struct {
	Email string `json:"email"`
}

func (h *FriendHandler) Request(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req friendRequestReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	f, err := h.Svc.Request(r.Context(), uid, req.Email)
	switch {
	case errors.Is(err, friend.ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
		return
	case errors.Is(err, friend.ErrSelf):
		http.Error(w, "cannot befriend yourself", http.StatusBadRequest)
		return
	case errors.Is(err, friend.ErrExists):
		http.Error(w, "friendship already exists", http.StatusConflict)
		return
	case errors.Is(err, friend.ErrBlocked):
		http.Error(w, "cannot send friend request", http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"friendship": f})
}

type friendRespondReq struct {
	Accept bool `json:"accept"`
}

func (h *FriendHandler) Respond(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req friendRespondReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	f, err := h.Svc.Respond(r.Context(), uid, id, req.Accept)
	switch {
	case errors.Is(err, friend.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
		return
	case errors.Is(err, friend.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	case errors.Is(err, friend.ErrNotPending):
		http.Error(w, "request is not pending", http.StatusConflict)
		return
	case err != nil:
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"friendship": f})
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	friends, err := h.Svc.List(r.Context(), uid)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	pending, err := h.Svc.Pending(r.Context(), uid)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"friends": friends,
		"pending": pending,
	})
}

func (h *FriendHandler) Unfriend(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := h.Svc.Unfriend(r.Context(), uid, id)
	switch {
	case errors.Is(err, friend.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
		return
	case errors.Is(err, friend.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	case err != nil:
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FriendHandler) Search(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(q) < 2 {
		http.Error(w, "search query must be at least 2 characters", http.StatusBadRequest)
		return
	}

	results, err := h.Svc.Search(r.Context(), uid, q)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": results})
}

func (h *FriendHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	rows, err := h.Svc.Leaderboard(r.Context(), uid)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": rows})
}
