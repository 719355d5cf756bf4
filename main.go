package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"postcarditAPI/handlers"
	"postcarditAPI/middleware"
	"postcarditAPI/services"
)

var (
	dbPool            *pgxpool.Pool
	userService       *services.UserService
	friendshipService *services.FriendshipService
	postcardService   *services.PostcardService
)

func init() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	if os.Getenv("LOG_LEVEL") == "debug" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		logrus.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	logrus.Info("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logrus.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to parse database URL")
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create connection pool")
	}

	if err := dbPool.Ping(ctx); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	logrus.Info("Successfully connected to database")

	userService = services.NewUserService(dbPool)
	friendshipService = services.NewFriendshipService(dbPool, userService)
	postcardService = services.NewPostcardService(dbPool)

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		logrus.Info("Closing database connection pool...")
		dbPool.Close()
	}()

	userHandler := handlers.NewUserHandler(userService)
	friendshipHandler := handlers.NewFriendshipHandler(friendshipService)
	postcardHandler := handlers.NewPostcardHandler(postcardService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := dbPool.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "postcardit-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER (REQUIRES AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.AuthMiddleware)

	protected.HandleFunc("/users", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/users", userHandler.CreateProfile).Methods("POST")
	protected.HandleFunc("/users", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/users/search", userHandler.SearchUsers).Methods("GET")
	protected.HandleFunc("/users/{userId}", userHandler.GetUserByID).Methods("GET")

	protected.HandleFunc("/friends", friendshipHandler.GetFriendships).Methods("GET")
	protected.HandleFunc("/friends/search", friendshipHandler.SearchCandidates).Methods("GET")
	protected.HandleFunc("/friends/send-request", friendshipHandler.SendFriendRequest).Methods("POST")
	protected.HandleFunc("/friends/accept-request", friendshipHandler.AcceptFriendRequest).Methods("POST")

	protected.HandleFunc("/postcards", postcardHandler.SendPostcard).Methods("POST")
	protected.HandleFunc("/postcards", postcardHandler.GetReceivedPostcards).Methods("GET")
	protected.HandleFunc("/postcards/sent", postcardHandler.GetSentPostcards).Methods("GET")
	protected.HandleFunc("/postcards/received", postcardHandler.GetReceivedPostcards).Methods("GET")

	// CORS configuration
	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logrus.Infof("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Error starting server")
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	logrus.WithField("signal", sig.String()).Info("Got signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server shutdown error")
	}

	logrus.Info("Server shutdown complete")
}
