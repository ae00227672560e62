package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"trilog/internal/ai"
	"trilog/internal/auth"
	"trilog/internal/config"
	"trilog/internal/db"
	"trilog/internal/friend"
	httpx "trilog/internal/http"
	"trilog/internal/journal"
	"trilog/internal/mail"
	"trilog/internal/notify"
	"trilog/internal/question"
	"trilog/internal/rag"
	"trilog/internal/revision"
	"trilog/internal/schedule"
	"trilog/internal/summary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		logger.Fatal("db migrate failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := question.SeedTemplates(ctx, gdb); err != nil {
		logger.Fatal("question seed failed", zap.Error(err))
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	aiClient := ai.NewClient(cfg.AI, logger)
	mailClient := mail.NewClient(cfg.Mail, logger)

	revisionSvc := revision.NewService(gdb, logger)
	journalSvc := journal.NewService(gdb, revisionSvc, logger)
	questionSvc := question.NewService(gdb, logger)
	scheduleSvc := schedule.NewService(gdb, logger)
	friendSvc := friend.NewService(gdb, logger)
	ragStore := rag.NewStore(gdb, aiClient, cfg.EmbedBatchSize, logger)
	summarySvc := summary.NewService(gdb, aiClient, ragStore, logger)

	dnd := notify.DNDDefaults{Start: cfg.DNDDefaultStart, End: cfg.DNDDefaultEnd}

	revisionPoller := &notify.RevisionPoller{
		DB:        gdb,
		Mail:      mailClient,
		Log:       logger,
		Interval:  cfg.NotifyPollInterval,
		BatchSize: cfg.NotifyBatchSize,
		MaxPerDay: cfg.MaxEmailsPerDay,
		ClientURL: cfg.ClientURL,
		DND:       dnd,
	}
	go revisionPoller.Run(ctx)

	weeklyPoller := &notify.WeeklyPoller{
		DB:        gdb,
		Mail:      mailClient,
		Summaries: summarySvc,
		Log:       logger,
		Enabled:   cfg.WeeklyEnabled,
		SendTime:  cfg.WeeklySendTime,
		RequireAI: cfg.WeeklyRequireAI,
		BatchSize: cfg.WeeklyBatchSize,
		ClientURL: cfg.ClientURL,
		DND:       dnd,
	}
	go weeklyPoller.Run(ctx)

	r := httpx.NewRouter(cfg, httpx.Deps{
		DB:        gdb,
		JWT:       jwtSvc,
		Journal:   journalSvc,
		Revisions: revisionSvc,
		Questions: questionSvc,
		Schedules: scheduleSvc,
		Friends:   friendSvc,
		Summaries: summarySvc,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
