package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"sprintdeck/internal/api"
	"sprintdeck/internal/auth"
	"sprintdeck/internal/config"
	"sprintdeck/internal/db"
	"sprintdeck/internal/events"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := config.MustInitLogger(cfg.Env, cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Starting SprintDeck API",
		zap.String("env", cfg.Env),
		zap.String("port", cfg.Port),
	)

	// Initialize database with auto-migrations
	dbCfg := db.Config{
		Driver:         cfg.DBDriver,
		DBPath:         cfg.DBPath,
		DSN:            cfg.DBDSN,
		MigrationsPath: cfg.MigrationsPath,
	}

	database, err := db.New(dbCfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	// Background context with cancel for graceful shutdown
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	authService := auth.NewService(cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour)

	// Event hub for board push channels
	hub := events.NewHub(bgCtx, logger)

	server := api.NewServer(database, cfg, logger)
	server.SetAuthService(authService)
	server.SetEventHub(hub)

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Request size limit (1MB)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
			next.ServeHTTP(w, r)
		})
	})

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"message":"SprintDeck API","version":"0.1.0"}`)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := database.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"error","message":"database unavailable"}`)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","database":"connected"}`)
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Version endpoint (public)
		r.Get("/version", server.HandleVersion)

		// Auth routes (public) with stricter rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(api.RateLimitMiddleware(20))
			r.Post("/signup", server.HandleSignup)
			r.Post("/login", server.HandleLogin)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(server.JWTAuth)
			r.Use(api.RateLimitMiddleware(cfg.RateLimitRequests))

			r.Get("/me", server.HandleMe)

			// Project routes
			r.Get("/projects", server.HandleListProjects)
			r.Post("/projects", server.HandleCreateProject)
			r.Get("/projects/{id}", server.HandleGetProject)

			// Ticket routes
			r.Get("/projects/{projectId}/tickets", server.HandleListTickets)
			r.Post("/projects/{projectId}/tickets", server.HandleCreateTicket)
			r.Get("/projects/{projectId}/tickets/{number}", server.HandleGetTicketByNumber)
			r.Patch("/tickets/{id}", server.HandleUpdateTicket)
			r.Post("/tickets/{id}/transition", server.HandleTransitionTicket)
			r.Delete("/tickets/{id}", server.HandleDeleteTicket)

			// Ticket comment routes
			r.Get("/tickets/{id}/comments", server.HandleListComments)
			r.Post("/tickets/{id}/comments", server.HandleCreateComment)
			r.Delete("/comments/{commentId}", server.HandleDeleteComment)

			// Sprint routes
			r.Get("/projects/{projectId}/sprints", server.HandleListSprints)
			r.Post("/projects/{projectId}/sprints", server.HandleCreateSprint)
			r.Get("/sprints/{id}", server.HandleGetSprint)
			r.Patch("/sprints/{id}", server.HandleUpdateSprint)
			r.Post("/sprints/{id}/start", server.HandleStartSprint)
			r.Post("/sprints/{id}/complete", server.HandleCompleteSprint)
			r.Post("/sprints/{id}/tickets", server.HandleAddSprintTicket)
			r.Delete("/sprints/{id}/tickets/{ticketId}", server.HandleRemoveSprintTicket)
			r.Get("/sprints/{id}/stats", server.HandleSprintStats)
			r.Get("/sprints/{id}/burndown", server.HandleSprintBurndown)

			// Capacity routes
			r.Get("/projects/{projectId}/capacity", server.HandleGetCapacity)
			r.Put("/projects/{projectId}/capacity", server.HandleSetCapacity)

			// Epic routes
			r.Get("/projects/{projectId}/epics", server.HandleListEpics)
			r.Post("/projects/{projectId}/epics", server.HandleCreateEpic)
			r.Patch("/epics/{id}", server.HandleUpdateEpic)
			r.Delete("/epics/{id}", server.HandleDeleteEpic)

			// Label routes
			r.Get("/projects/{projectId}/labels", server.HandleListLabels)
			r.Post("/projects/{projectId}/labels", server.HandleCreateLabel)
			r.Patch("/labels/{id}", server.HandleUpdateLabel)
			r.Delete("/labels/{id}", server.HandleDeleteLabel)

			// Board event channel (WebSocket)
			r.Get("/projects/{projectId}/events", server.HandleProjectEvents)

			// Search
			r.Post("/search", server.HandleGlobalSearch)

			// Security/Settings routes
			r.Get("/settings/2fa/status", server.HandleTwoFAStatus)
			r.Post("/settings/2fa/setup", server.HandleTwoFASetup)
			r.Post("/settings/2fa/enable", server.HandleTwoFAEnable)
			r.Post("/settings/2fa/disable", server.HandleTwoFADisable)

			// API key routes
			r.Get("/api-keys", server.HandleListAPIKeys)
			r.Post("/api-keys", server.HandleCreateAPIKey)
			r.Delete("/api-keys/{id}", server.HandleDeleteAPIKey)
		})
	})

	// Background workers
	go server.StartSnapshotWorker(bgCtx)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("Server error", zap.Error(err))
	case sig := <-shutdown:
		logger.Info("Received shutdown signal, starting graceful shutdown", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
			if err := srv.Close(); err != nil {
				logger.Fatal("Failed to close server", zap.Error(err))
			}
		}

		logger.Info("Server stopped gracefully")
	}
}
