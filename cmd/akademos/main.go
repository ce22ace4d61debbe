package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/akademos/akademos/internal/app"
	"github.com/akademos/akademos/internal/attendance"
	"github.com/akademos/akademos/internal/auth"
	"github.com/akademos/akademos/internal/classes"
	"github.com/akademos/akademos/internal/classrooms"
	"github.com/akademos/akademos/internal/comments"
	"github.com/akademos/akademos/internal/lectures"
	"github.com/akademos/akademos/internal/members"
	"github.com/akademos/akademos/internal/observability"
	"github.com/akademos/akademos/internal/platform/cache"
	"github.com/akademos/akademos/internal/platform/db"
	"github.com/akademos/akademos/internal/schools"
	"github.com/akademos/akademos/internal/subjects"
	"github.com/akademos/akademos/internal/users"
	"github.com/akademos/akademos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	userSvc := users.NewService(users.NewRepository(pool))
	memberSvc := members.NewService(members.NewRepository(pool), userSvc, jobClient)
	schoolSvc := schools.NewService(schools.NewRepository(pool), userSvc, memberSvc)
	classroomSvc := classrooms.NewService(classrooms.NewRepository(pool))
	subjectSvc := subjects.NewService(subjects.NewRepository(pool))
	classSvc := classes.NewService(classes.NewRepository(pool))
	lectureSvc := lectures.NewService(lectures.NewRepository(pool), subjectSvc.IsSubjectTeacher)
	attendanceSvc := attendance.NewService(attendance.NewRepository(pool), lectureSvc, nil)
	commentSvc := comments.NewService(comments.NewRepository(pool), lectureSvc)

	authSvc := auth.NewService(userSvc, tokens)
	authMW := auth.NewMiddleware(tokens, memberSvc, redisClient, cfg.MembershipCacheTTL, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Metrics: observability.NewMetrics(),

		JobsHandler: jobs.NewHandler(inspector, logger),

		AuthHandler: auth.NewHandler(authSvc),
		AuthMW:      authMW,

		UsersHandler:      users.NewHandler(userSvc),
		SchoolsHandler:    schools.NewHandler(schoolSvc),
		MembersHandler:    members.NewHandler(memberSvc),
		ClassroomsHandler: classrooms.NewHandler(classroomSvc),
		SubjectsHandler:   subjects.NewHandler(subjectSvc),
		ClassesHandler:    classes.NewHandler(classSvc),
		LecturesHandler:   lectures.NewHandler(lectureSvc),
		AttendanceHandler: attendance.NewHandler(attendanceSvc),
		CommentsHandler:   comments.NewHandler(commentSvc),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
