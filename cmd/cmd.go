package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recall-backend/internal/config"
	"recall-backend/internal/handlers"
	"recall-backend/internal/middleware"
	"recall-backend/internal/repository"
	"recall-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	friendRepo := repository.NewFriendRepository(db)
	eventRepo := repository.NewEventRepository(db)
	relationRepo := repository.NewRelationRepository(db)
	contentRepo := repository.NewContentRepository(db)

	// Initialize collaborators
	audioStore, err := services.NewS3AudioStore(
		context.Background(),
		cfg.AWS.Region,
		cfg.AWS.S3Bucket,
		cfg.AWS.AccessKey,
		cfg.AWS.SecretKey,
		cfg.AWS.Endpoint,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create audio store")
	}
	transcriber := services.NewHTTPTranscriber(cfg.Transcriber.BaseURL, cfg.Transcriber.APIKey, cfg.Transcriber.Timeout)
	quizGenerator := services.NewHTTPQuizGenerator(cfg.QuizGen.BaseURL, cfg.QuizGen.APIKey, cfg.QuizGen.Timeout)

	// Initialize services
	authService := services.NewAuthService(cfg.JWT.Secret)
	store := services.NewRepositoryStore(friendRepo, eventRepo, relationRepo, contentRepo)
	directoryService := services.NewDirectoryService(friendRepo, eventRepo, relationRepo, contentRepo)
	wsHub := services.NewWSHub()
	captureService := services.NewCaptureService(store, transcriber, audioStore, wsHub)
	quizService := services.NewQuizService(store, quizGenerator, wsHub, cfg.Quiz)

	// Initialize handlers
	directoryHandler := handlers.NewDirectoryHandler(directoryService)
	captureHandler := handlers.NewCaptureHandler(captureService, directoryService)
	quizHandler := handlers.NewQuizHandler(quizService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, authService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(authService))

			r.Get("/friends", directoryHandler.ListFriends)
			r.Post("/friends", directoryHandler.CreateFriend)
			r.Get("/friends/{friend_id}/events", directoryHandler.ListEventsByFriend)
			r.Get("/events", directoryHandler.ListEvents)
			r.Post("/events", directoryHandler.CreateEvent)
			r.Post("/links", directoryHandler.UpsertLink)
			r.Get("/links", directoryHandler.GetLink)
			r.Post("/content/bulk", directoryHandler.BulkCreateContent)
			r.Get("/content/{link_id}", directoryHandler.ListContent)

			r.Route("/capture/sessions", func(r chi.Router) {
				r.Post("/", captureHandler.CreateSession)
				r.Get("/{session_id}", captureHandler.GetSession)
				r.Post("/{session_id}/friend", captureHandler.SelectFriend)
				r.Post("/{session_id}/event", captureHandler.SelectEvent)
				r.Post("/{session_id}/recording/start", captureHandler.StartRecording)
				r.Post("/{session_id}/recording/stop", captureHandler.StopRecording)
				r.Put("/{session_id}/blocks", captureHandler.EditBlocks)
				r.Post("/{session_id}/commit", captureHandler.Commit)
				r.Delete("/{session_id}", captureHandler.Abandon)
			})

			r.Route("/quiz", func(r chi.Router) {
				r.Get("/eligibility", quizHandler.Eligibility)
				r.Post("/sessions", quizHandler.StartSession)
				r.Get("/sessions/{session_id}", quizHandler.GetSession)
				r.Post("/sessions/{session_id}/answer", quizHandler.Answer)
				r.Post("/sessions/{session_id}/submit", quizHandler.Submit)
				r.Post("/sessions/{session_id}/next", quizHandler.Next)
				r.Post("/sessions/{session_id}/previous", quizHandler.Previous)
				r.Post("/sessions/{session_id}/complete", quizHandler.Complete)
				r.Get("/sessions/{session_id}/questions/{index}", quizHandler.Review)
				r.Post("/sessions/{session_id}/retake", quizHandler.Retake)
				r.Delete("/sessions/{session_id}", quizHandler.Abandon)
			})
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
