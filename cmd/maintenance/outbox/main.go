package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/config"
	"github.com/tourdesk/booking-backend/internal/database"
)

func main() {
	var (
		dbURLFlag     string
		releaseAfter  time.Duration
		purgeOlder    time.Duration
		requeueFailed bool
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.DurationVar(&releaseAfter, "release-stale", 0, "put rows stuck in processing longer than this back to pending")
	flag.DurationVar(&purgeOlder, "purge-sent", 0, "delete sent rows older than this")
	flag.BoolVar(&requeueFailed, "requeue-failed", false, "reset failed rows so the dispatcher retries them")
	flag.Parse()

	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}
	if releaseAfter == 0 && purgeOlder == 0 && !requeueFailed {
		flag.Usage()
		os.Exit(2)
	}

	dbCfg := config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     2,
		MaxIdleConnections: 1,
		QueryTimeout:       30 * time.Second,
	}

	db, err := database.NewConnection(dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	logger := logrus.New()
	outbox := database.NewEmailOutboxRepository(db, database.NewExecutor(database.DefaultQueryOptions(dbCfg), logger))
	ctx := context.Background()

	if releaseAfter > 0 {
		n, err := outbox.ReleaseStale(ctx, time.Now().Add(-releaseAfter))
		if err != nil {
			log.Fatalf("release stale: %v", err)
		}
		fmt.Printf("released %d stuck emails\n", n)
	}
	if requeueFailed {
		n, err := outbox.RequeueFailed(ctx)
		if err != nil {
			log.Fatalf("requeue failed: %v", err)
		}
		fmt.Printf("requeued %d failed emails\n", n)
	}
	if purgeOlder > 0 {
		n, err := outbox.DeleteSentBefore(ctx, time.Now().Add(-purgeOlder))
		if err != nil {
			log.Fatalf("purge sent: %v", err)
		}
		fmt.Printf("purged %d sent emails\n", n)
	}
}
