package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"gorm.io/gorm"

	"trilog/internal/auth"
	"trilog/internal/timeutil"
)

type MeHandler struct {
	DB *gorm.DB
}

type preferencesDTO struct {
	EmailOptIn        bool     `json:"emailOptIn"`
	DNDEnabled        bool     `json:"dndEnabled"`
	DNDStart          string   `json:"dndStart"`
	DNDEnd            string   `json:"dndEnd"`
	Categories        []string `json:"categories"`
	DailyReminderTime string   `json:"dailyReminderTime"`
}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var u auth.User
	if err := h.DB.First(&u, "id = ?", uid).Error; err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(u),
		"preferences": preferencesDTO{
			EmailOptIn:        u.Preferences.EmailOptIn,
			DNDEnabled:        u.Preferences.DNDEnabled,
			DNDStart:          u.Preferences.DNDStart,
			DNDEnd:            u.Preferences.DNDEnd,
			Categories:        u.Preferences.Categories,
			DailyReminderTime: u.Preferences.DailyReminderTime,
		},
	})
}

type updatePrefsReq struct {
	EmailOptIn *bool   `json:"emailOptIn"`
	DNDEnabled *bool   `json:"dndEnabled"`
	DNDStart   *string `json:"dndStart"`
	DNDEnd     *string `json:"dndEnd"`
	Timezone   *string `json:"timezone"`
}

func (h *MeHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req updatePrefsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	var u auth.User
	if err := h.DB.First(&u, "id = ?", uid).Error; err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if req.EmailOptIn != nil {
		u.Preferences.EmailOptIn = *req.EmailOptIn
	}
	if req.DNDEnabled != nil {
		u.Preferences.DNDEnabled = *req.DNDEnabled
	}
	if req.DNDStart != nil {
		if _, ok := timeutil.ParseHHMM(*req.DNDStart); !ok {
			http.Error(w, "dndStart must be HH:MM", http.StatusBadRequest)
			return
		}
		u.Preferences.DNDStart = *req.DNDStart
	}
	if req.DNDEnd != nil {
		if _, ok := timeutil.ParseHHMM(*req.DNDEnd); !ok {
			http.Error(w, "dndEnd must be HH:MM", http.StatusBadRequest)
			return
		}
		u.Preferences.DNDEnd = *req.DNDEnd
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			http.Error(w, "invalid timezone", http.StatusBadRequest)
			return
		}
		u.Timezone = *req.Timezone
	}

	if err := h.DB.Save(&u).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
