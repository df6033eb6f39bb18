// Package main runs the Event Horizon gate HTTP server with the live staff
// feed and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/event-horizon/backend/config"
	"github.com/event-horizon/backend/internal/analytics"
	"github.com/event-horizon/backend/internal/attendees"
	"github.com/event-horizon/backend/internal/auth"
	"github.com/event-horizon/backend/internal/middleware"
	"github.com/event-horizon/backend/internal/models"
	"github.com/event-horizon/backend/internal/persona"
	"github.com/event-horizon/backend/internal/realtime"
	"github.com/event-horizon/backend/internal/ticket"
	"github.com/event-horizon/backend/internal/worker"
	"github.com/event-horizon/backend/pkg/database"
	"github.com/event-horizon/backend/pkg/queue"
	"github.com/event-horizon/backend/pkg/redis"
	"github.com/event-horizon/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	generator := persona.NewGemini(
		cfg.Gemini.APIKey,
		cfg.Gemini.Model,
		time.Duration(cfg.Gemini.TimeoutSeconds)*time.Second,
		logger,
	)
	if !generator.HasCredential() {
		logger.Warn("no Gemini API key configured; personas will use fallback strings")
	}

	// Gate feed
	var hub *realtime.Hub
	if rdb != nil {
		pubsub := realtime.NewRedisPubSub(rdb.Client, logger)
		hub = realtime.NewHub(logger, pubsub, pubsub)
	} else {
		hub = realtime.NewHub(logger, nil, nil)
	}

	// Registry over the shared table
	store := attendees.NewPostgresStore(pool)
	registry := attendees.NewRegistry(store, generator, cfg.Event.TicketTypes, logger)
	registry.SetCheckInListener(func(a models.Attendee) {
		hub.BroadcastCheckIn(a)
	})

	// Persona backfill (needs Redis for the job queue)
	var backfill *worker.PersonaProcessor
	if rdb != nil {
		jobQueue := queue.NewQueue(rdb.Client, logger)
		registry.SetDegradedListener(func(attendeeID string) {
			qctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := jobQueue.EnqueuePersonaBackfill(qctx, queue.PersonaBackfillPayload{AttendeeID: attendeeID}); err != nil {
				logger.Warn("enqueue persona backfill failed", zap.Error(err))
			}
		})
		backfillGen := persona.NewGemini(
			cfg.Gemini.APIKey,
			cfg.Gemini.Model,
			time.Duration(cfg.Gemini.BackfillTimeoutSec)*time.Second,
			logger,
		)
		backfill = worker.NewPersonaProcessor(store, backfillGen, jobQueue, logger)
	}

	codec := ticket.NewCodec(cfg.Event.Tag)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)
	attendeeHandler := attendees.NewHandler(registry, codec, logger)
	ticketHandler := ticket.NewHandler(registry, codec, generator, logger)
	analyticsHandler := analytics.NewHandler(registry, logger)

	jwtValidate := func(token string) (staffID, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", err
		}
		return claims.StaffID.String(), claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Staff auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Public attendee surface: registration and the ticket view
	router.POST("/api/register", attendeeHandler.Register)
	router.GET("/api/tickets/:id/qr", ticketHandler.QR)
	router.GET("/api/tickets/:id/share", ticketHandler.Share)
	router.GET("/api/tickets/:id/welcome", ticketHandler.Welcome)

	// Gate surface (staff token required)
	api := router.Group("/api")
	api.Use(middleware.JWT(jwtService))
	api.Use(middleware.RequireRole(models.RoleAdmin, models.RoleGate))
	{
		api.GET("/attendees", attendeeHandler.List)
		api.GET("/attendees/:id", attendeeHandler.GetByID)
		api.POST("/checkin", attendeeHandler.CheckIn)
		api.POST("/checkin/scan", attendeeHandler.Scan)
		api.GET("/analytics", analyticsHandler.Get)
	}

	// WebSocket gate feed (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if backfill != nil {
		go backfill.Run(workerCtx)
		logger.Info("persona backfill worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
