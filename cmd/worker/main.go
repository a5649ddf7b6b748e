package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/config"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/mailer"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/repository/postgres"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/resend"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/worker"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.Resend.Enabled {
		log.Println("Resend scheduler disabled in config, exiting")
		return
	}

	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to reach database: %v", err)
	}

	templates, err := mailer.NewReminderTemplates()
	if err != nil {
		log.Fatalf("Failed to parse reminder templates: %v", err)
	}
	sender, err := mailer.NewSESSender(ctx, cfg.SES)
	if err != nil {
		log.Fatalf("Failed to initialize SES sender: %v", err)
	}

	loop := resend.NewLoop(postgres.NewEmailSendRepo(db), sender, templates, resend.LoopConfig{
		Policy: resend.PolicyConfig{
			IntervalDays:   cfg.Resend.IntervalDays,
			MaxResendCount: cfg.Resend.MaxResendCount,
		},
		WindowDays: cfg.Resend.WindowDays,
		BatchLimit: cfg.Resend.BatchLimit,
		Delay:      cfg.Resend.Delay(),
	})

	scheduler := worker.NewResendScheduler(loop, db, cfg.Resend.TickHourUTC, cfg.Resend.LockTTL())
	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis unreachable, falling back to advisory locks: %v", err)
		} else {
			scheduler.SetRedisClient(redisClient)
			defer redisClient.Close()
		}
	}

	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done

	log.Println("Shutting down...")
	scheduler.Stop()
	log.Println("Worker stopped")
}
