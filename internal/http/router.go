package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"

	"trilog/internal/auth"
	"trilog/internal/config"
	"trilog/internal/friend"
	"trilog/internal/http/handler"
	mw "trilog/internal/http/middleware"
	"trilog/internal/journal"
	"trilog/internal/question"
	"trilog/internal/revision"
	"trilog/internal/schedule"
	"trilog/internal/summary"
)

type Deps struct {
	DB        *gorm.DB
	JWT       *auth.JWT
	Journal   *journal.Service
	Revisions *revision.Service
	Questions *question.Service
	Schedules *schedule.Service
	Friends   *friend.Service
	Summaries *summary.Service
}

func NewRouter(cfg config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: d.DB, JWT: d.JWT}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	me := &handler.MeHandler{DB: d.DB}
	r.With(auth.RequireAuth(d.JWT)).Get("/me", me.Me)
	r.With(auth.RequireAuth(d.JWT)).Put("/me/preferences", me.UpdatePreferences)

	entries := &handler.EntryHandler{Svc: d.Journal}
	r.Route("/entries", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))
		r.Post("/", entries.Create)
		r.Get("/", entries.List)
		r.Get("/{id}", entries.Get)
		r.Put("/{id}", entries.Update)
		r.Delete("/{id}", entries.Delete)
	})

	revisions := &handler.RevisionHandler{Svc: d.Revisions}
	r.Route("/revisions", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))
		r.Get("/", revisions.List)
		r.Get("/due", revisions.Due)
		r.Post("/{id}/complete", revisions.Complete)
		r.Post("/{id}/miss", revisions.Miss)
	})

	questions := &handler.QuestionHandler{Svc: d.Questions}
	r.Route("/questions", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))
		r.Get("/today", questions.Today)
		r.Post("/answer", questions.Answer)
	})

	schedules := &handler.ScheduleHandler{Svc: d.Schedules}
	r.Route("/schedules", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))
		r.Post("/", schedules.Upsert)
		r.Get("/{date}", schedules.Get)
	})

	friends := &handler.FriendHandler{Svc: d.Friends}
	r.Route("/friends", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))
		r.Get("/", friends.List)
		r.Get("/search", friends.Search)
		r.Post("/request", friends.Request)
		r.Post("/{id}/respond", friends.Respond)
		r.Delete("/{id}", friends.Unfriend)
		r.Get("/leaderboard", friends.Leaderboard)
	})

	summaries := &handler.SummaryHandler{Svc: d.Summaries}
	r.Route("/summaries", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))
		r.Post("/monthly", summaries.GenerateMonthly)
		r.Get("/monthly", summaries.ListMonthly)
		r.Get("/monthly/{month}", summaries.GetMonthly)
		r.Post("/weekly", summaries.GenerateWeekly)
		r.Get("/weekly", summaries.ListWeekly)
		r.Get("/weekly/{start}", summaries.GetWeekly)
	})

	return r
}
