// ==============================================================================
// EXPIRY SWEEP - cmd/sweep/main.go
// ==============================================================================
// One-shot document-expiry sweep for cron or manual operation. Exits non-zero
// on failure so schedulers can alert on it.
// ==============================================================================
package main

import (
	"context"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"kycore/internal/kyc"
	"kycore/internal/repository/postgres"
	"kycore/pkg/config"
	"kycore/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New("kyc-sweep")

	if err := cfg.ValidateCore(); err != nil {
		log.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer db.Close()

	verificationRepo := postgres.NewVerificationRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)
	assessmentRepo := postgres.NewAssessmentRepository(db)

	// The sweep never calls the external verifier; the static one satisfies
	// the wiring without a network dependency.
	service := kyc.NewService(
		verificationRepo,
		documentRepo,
		assessmentRepo,
		kyc.NewStaticVerifier(),
		kyc.ScoringConfigFromEnv(cfg.RiskScoring),
		nil,
		log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	swept, err := service.SweepExpired(ctx, time.Now())
	if err != nil {
		log.Error("Expiry sweep failed", map[string]interface{}{
			"error":   err.Error(),
			"expired": swept,
		})
		os.Exit(1)
	}

	log.Info("Expiry sweep finished", map[string]interface{}{
		"expired": swept,
	})
}
