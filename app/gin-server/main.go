package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/careermentor/config"
	"github.com/yoockh/careermentor/internal/api/handlers"
	"github.com/yoockh/careermentor/internal/api/middleware"
	"github.com/yoockh/careermentor/internal/api/routes"
	"github.com/yoockh/careermentor/internal/cache"
	"github.com/yoockh/careermentor/internal/events"
	"github.com/yoockh/careermentor/internal/logger"
	"github.com/yoockh/careermentor/internal/providers/llm"
	"github.com/yoockh/careermentor/internal/providers/stt"
	"github.com/yoockh/careermentor/internal/repositories"
	mongorepo "github.com/yoockh/careermentor/internal/repositories/mongo"
	pgrepo "github.com/yoockh/careermentor/internal/repositories/postgres"
	"github.com/yoockh/careermentor/internal/repositories/sqlite"
	"github.com/yoockh/careermentor/internal/services"
	"github.com/yoockh/careermentor/internal/storage"
	"github.com/yoockh/careermentor/internal/workers"
)

func main() {
	cfg, err := config.Load()
	log := logger.New(levelOf(cfg))
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init PostgreSQL
	db, err := config.NewPostgres(cfg.PostgresURI)
	if err != nil {
		log.WithError(err).Fatal("postgres init error")
	}
	if err := config.MigratePostgres(db); err != nil {
		log.WithError(err).Fatal("postgres migration error")
	}
	log.Info("postgres connected")

	// Init Redis
	rdb, err := config.NewRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.WithError(err).Fatal("redis init error")
	}
	defer rdb.Close()
	log.Info("redis connected")

	historyRepo, closeHistory := openHistory(ctx, cfg, log)
	defer closeHistory()

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("llm provider init error")
	}
	defer gen.Close()
	log.WithField("provider", cfg.LLMProvider).Info("llm provider ready")

	var (
		uploader storage.Uploader
		signer   storage.Signer
	)
	if cfg.GCSBucket != "" {
		gcs, err := storage.NewGCSStore(ctx, cfg.GCSBucket)
		if err != nil {
			log.WithError(err).Fatal("gcs init error")
		}
		defer gcs.Close()
		uploader, signer = gcs, gcs
	}

	var speech stt.Provider
	if cfg.STTEnabled {
		gs, err := stt.NewGoogleSpeech(ctx)
		if err != nil {
			log.WithError(err).Fatal("speech init error")
		}
		defer gs.Close()
		speech = gs
	}

	audioRepo := pgrepo.NewAudioRepo(db)
	bus := events.NewRedisBus(rdb)

	settingsSvc := services.NewSettingsService(pgrepo.NewSettingsRepo(db), cache.NewRedisCache(rdb), cfg.SettingsCacheTTL, log)
	historySvc := services.NewHistoryService(historyRepo)
	transcriptSvc := services.NewTranscriptService(pgrepo.NewRecordRepo(db), audioRepo, historySvc, signer, log)
	var recorder services.TranscriptRecorder = transcriptSvc
	if cfg.TranscriptWorkers > 0 {
		pool := &workers.TranscriptWorkerPool{
			Redis:      rdb,
			Recorder:   transcriptSvc,
			NumWorkers: cfg.TranscriptWorkers,
			Logger:     log,
		}
		if err := pool.Start(ctx); err != nil {
			log.WithError(err).Fatal("transcript workers init error")
		}
		recorder = &workers.TranscriptQueue{Redis: rdb}
	}

	interviewSvc := services.NewInterviewService(
		settingsSvc,
		services.NewQuestionSource(gen, cfg.QuestionCount, log),
		services.NewAnswerEvaluator(gen, log),
		historySvc,
		recorder,
		bus,
		services.InterviewConfig{
			QuestionDuration: cfg.QuestionTimeLimit,
			IdleTTL:          cfg.SessionIdleTTL,
		},
		log,
	)
	go interviewSvc.RunReaper(ctx, time.Minute)

	auth := middleware.JWTAuth(middleware.JWTConfig{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})
	if cfg.JWTSecret == "" {
		log.Warn("AUTH_JWT_SECRET not set, trusting X-User-Id header")
		auth = middleware.HeaderAuth()
	}

	deps := routes.Deps{
		Auth:      auth,
		Interview: handlers.NewInterviewHandler(interviewSvc),
		Settings:  handlers.NewSettingsHandler(settingsSvc),
		History:   handlers.NewHistoryHandler(historySvc, transcriptSvc),
		WS:        handlers.NewWSHandler(interviewSvc, bus, cfg.WSAllowedOrigins, log),
		Admin:     handlers.NewAdminHandler(interviewSvc),
	}
	if speech != nil {
		deps.Voice = handlers.NewVoiceHandler(interviewSvc, services.NewVoiceService(speech, uploader, audioRepo))
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http server shutdown error")
	}
}

func levelOf(cfg *config.App) string {
	if cfg == nil {
		return "info"
	}
	return cfg.LogLevel
}

func openHistory(ctx context.Context, cfg *config.App, log *logrus.Logger) (repositories.HistoryRepository, func()) {
	if cfg.HistoryBackend == config.HistorySQLite {
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.WithError(err).Fatal("sqlite init error")
		}
		log.WithField("path", cfg.SQLitePath).Info("sqlite history ready")
		return store, func() { _ = store.Close() }
	}

	client, err := config.NewMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("mongo init error")
	}
	mdb := client.Database(cfg.MongoDB)
	if err := config.EnsureMongoIndexes(ctx, mdb); err != nil {
		log.WithError(err).Warn("failed to ensure mongo indexes")
	}
	log.Info("mongo connected")
	return mongorepo.NewHistoryRepo(mdb), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
}

func newGenerator(ctx context.Context, cfg *config.App) (llm.Provider, error) {
	model := cfg.GeminiModel
	if model == "" {
		model = llm.DefaultModel
	}
	if cfg.LLMProvider == config.ProviderVertex {
		v, err := llm.NewVertexGemini(ctx, cfg.VertexProject, cfg.VertexLocation, model)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	return llm.NewGeminiREST(cfg.GeminiAPIKey, model, cfg.GeminiBaseURL), nil
}
