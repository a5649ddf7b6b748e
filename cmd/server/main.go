package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/api"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/config"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/estimate"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/mailer"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/rag"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/repository/postgres"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/resend"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/storage"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to reach database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis unreachable, continuing without it: %v", err)
			redisClient = nil
		}
	}

	ragRepo := postgres.NewRAGRecordRepo(db)
	ragService := rag.NewService(ragRepo)
	classifier := rag.NewClassifier(ragRepo, rag.NewScorer(),
		rag.WithThreshold(cfg.Classifier.SimilarityThreshold),
		rag.WithCandidateLimit(cfg.Classifier.CandidateLimit),
	)
	estimator := estimate.NewRuleEstimator()

	sendRepo := postgres.NewEmailSendRepo(db)
	templates, err := mailer.NewReminderTemplates()
	if err != nil {
		log.Fatalf("Failed to parse reminder templates: %v", err)
	}
	sender, err := mailer.NewSESSender(ctx, cfg.SES)
	if err != nil {
		log.Fatalf("Failed to initialize SES sender: %v", err)
	}

	loopCfg := resend.LoopConfig{
		Policy: resend.PolicyConfig{
			IntervalDays:   cfg.Resend.IntervalDays,
			MaxResendCount: cfg.Resend.MaxResendCount,
		},
		WindowDays: cfg.Resend.WindowDays,
		BatchLimit: cfg.Resend.BatchLimit,
		Delay:      cfg.Resend.Delay(),
	}
	loop := resend.NewLoop(sendRepo, sender, templates, loopCfg)

	var archive storage.ReceiptArchive
	if cfg.Storage.S3Bucket != "" {
		archive, err = storage.NewS3Archive(ctx, cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to initialize receipt archive: %v", err)
		}
	}

	handlers := api.NewHandlers(ragService, classifier, estimator, loop, loopCfg, sendRepo, archive, db)
	router := api.SetupRoutes(handlers, cfg.Server.AllowedOrigins, cfg.Auth.CronSecret)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}
	log.Println("Server stopped")
}
