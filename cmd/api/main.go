package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/support-role-api/internal/config"
	"github.com/support-role-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/support-role-api/internal/infrastructure/jwt"
	"github.com/support-role-api/internal/infrastructure/smtp"
	"github.com/support-role-api/internal/infrastructure/sns"
	"github.com/support-role-api/internal/metrics"
	transporthttp "github.com/support-role-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS ops alerts (optional — graceful fallback).
	var alerts sns.AlertPublisher
	if cfg.AlertSNSTopicARN != "" {
		if pub, err := sns.NewPublisher(cfg); err == nil {
			alerts = pub
		} else {
			log.Printf("WARN: SNS alert publisher not available: %v", err)
		}
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		VerificationRepo: dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.EmailVerifications),
		RecoveryRepo:     dynamo.NewRecoveryRepo(dynamoClient, cfg.DynamoTables.RecoveryOTPs),
		TransitionRepo:   dynamo.NewTransitionRepo(dynamoClient, cfg.DynamoTables.RoleTransitions),
		Mailer:           mailer,
		Alerts:           alerts,
		JWTProvider:      jwtProvider,
		Metrics:          collector,
		Gatherer:         registry,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
