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

	"github.com/redis/go-redis/v9"

	"vgp_platform/internal/api"
	"vgp_platform/internal/app/bank"
	"vgp_platform/internal/app/scoring"
	"vgp_platform/internal/app/service"
	"vgp_platform/internal/app/worker"
	"vgp_platform/internal/common/security"
	"vgp_platform/internal/domain/repository"
	"vgp_platform/internal/domain/repository/memory"
	"vgp_platform/internal/platform/config"
	"vgp_platform/internal/platform/database"
	"vgp_platform/internal/platform/lock"
	"vgp_platform/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	config.Load()
	cfg := config.AppConfig
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT(cfg.JWTKey, cfg.JWTExp)
	fmt.Println("JWT initialized.")

	// 3. Initialize Redis (optional)
	var rdb *redis.Client
	if cfg.RedisEnabled {
		queue.ConnectRedis()
		defer queue.CloseRedis()
		rdb = queue.RDB
		fmt.Println("Redis connected.")
	}

	// 4. Initialize Repositories
	var stores *repository.Set
	if cfg.DBDriver == "memory" {
		log.Println("WARN: DB_DRIVER=memory, nothing survives a restart")
		stores = memory.New()
	} else {
		database.Connect()
		defer database.Close()
		stores = repository.NewSQLSet(database.DB, rdb)
		fmt.Println("Database connected.")
	}

	// 5. Initialize Services
	opts := service.Options{
		Scoring: scoring.Config{
			PlagiarismThreshold: cfg.PlagiarismThreshold,
			CodingPassThreshold: cfg.CodingPassThreshold,
			StrengthThreshold:   cfg.StrengthThreshold,
			WeaknessThreshold:   cfg.WeaknessThreshold,
		},
		BankDefaults: bank.Defaults{
			QuestionBudget:  cfg.DefaultQuestionBudget,
			DurationSeconds: cfg.SessionDurationSeconds,
		},
		SessionDuration: cfg.SessionDuration(),
		LockTimeout:     5 * time.Second,
		AdminUser:       cfg.AdminUser,
		AdminPassHash:   cfg.AdminPassHash,
	}
	if rdb != nil {
		opts.Locker = lock.NewRedisLocker(rdb, "session_lock:", time.Duration(cfg.SessionLockTTLSeconds)*time.Second)
		opts.RDB = rdb
		opts.TraceQueue = cfg.TraceQueueName
	}
	services := service.New(stores, opts)

	// 6. Load the question bank
	ctx := context.Background()
	if cfg.QuestionBankPath != "" {
		raw, err := os.ReadFile(cfg.QuestionBankPath)
		if err != nil {
			log.Fatalf("Could not read question bank %s: %v", cfg.QuestionBankPath, err)
		}
		summary, err := services.Bank.ImportRaw(ctx, raw)
		if err != nil {
			log.Fatalf("Could not import question bank %s: %v", cfg.QuestionBankPath, err)
		}
		log.Printf("INFO: Imported %d tracks and %d questions from %s", summary.Tracks, summary.Questions, cfg.QuestionBankPath)
	} else if err := services.Bank.SeedIfEmpty(ctx); err != nil {
		log.Fatalf("Could not seed question bank: %v", err)
	}

	// 7. Initialize Trace Worker (as a goroutine)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if rdb != nil {
		traceWorker := worker.NewTraceWorker(rdb, stores.Traces, cfg.TraceQueueName)
		go traceWorker.Start(workerCtx)
		fmt.Println("Trace worker started.")
	}

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(services, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop

	log.Println("Shutting down server...")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server and worker stopped gracefully.")
}
