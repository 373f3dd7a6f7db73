// ==============================================================================
// KYC VERIFICATION SERVICE MAIN - cmd/kyc/main.go
// ==============================================================================
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"kycore/internal/handler"
	"kycore/internal/kyc"
	"kycore/internal/middleware"
	"kycore/internal/repository/postgres"
	"kycore/internal/scheduler"
	"kycore/pkg/cache"
	"kycore/pkg/config"
	"kycore/pkg/logger"
	"kycore/pkg/validator"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New("kyc-service")

	if err := cfg.ValidateCore(); err != nil {
		log.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Starting KYC Verification Service", map[string]interface{}{
		"port": cfg.Server.Port,
	})

	// Database connection
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	log.Info("Database connected", nil)

	// Redis connection
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("Redis connected", nil)

	// Initialize repositories
	verificationRepo := postgres.NewVerificationRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)
	assessmentRepo := postgres.NewAssessmentRepository(db)

	// External verifier
	var verifier kyc.Verifier
	if cfg.Verifier.UseStatic {
		verifier = kyc.NewStaticVerifier()
		log.Warn("Using static verifier; external identity checks are simulated", nil)
	} else {
		verifier = kyc.NewBureauClient(cfg.Verifier.BaseURL, cfg.Verifier.APIKey, cfg.Verifier.Timeout, log)
	}

	kycService := kyc.NewService(
		verificationRepo,
		documentRepo,
		assessmentRepo,
		verifier,
		kyc.ScoringConfigFromEnv(cfg.RiskScoring),
		cache.NewFromClient(redisClient),
		log,
	)

	// Initialize handlers
	val := validator.New()
	kycHandler := handler.NewKYCHandler(kycService, val, log)

	// Setup router
	r := mux.NewRouter()

	// Middleware
	r.Use(middleware.CORS)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recovery)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.NewLoggingMiddleware(log).Log)
	r.Use(middleware.BodyLimit(2 << 20)) // 2MB global cap
	r.Use(middleware.NewRateLimiter(redisClient, "edge", 150, time.Minute).Limit)

	authMW := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Health check routes (no auth)
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/ready", readyCheck(db)).Methods("GET")

	// Protected routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(authMW.Authenticate)
	api.Use(middleware.NewRateLimiter(redisClient, "api", 60, time.Minute).Limit)

	kycHandler.RegisterRoutes(api)

	// In-process expiry sweep, enabled by SWEEP_INTERVAL
	if cfg.Sweep.Interval > 0 {
		sweeper := scheduler.NewScheduler(kycService, cfg.Sweep.Interval, log)
		sweeper.Start()
		defer sweeper.Stop()
	}

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		log.Info("KYC service started", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down KYC service...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("KYC service forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("KYC service stopped gracefully", nil)
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	_ = r
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"kyc","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func readyCheck(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = r
		if err := db.Ping(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not ready","reason":"database unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready","service":"kyc"}`))
	}
}
