package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"eventx-ticketing/internal/config"
	"eventx-ticketing/internal/database"
	"eventx-ticketing/internal/kafka"
	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/tickets/cleanup"
	ticketdb "eventx-ticketing/internal/tickets/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logDir := ""
	if cfg.Log.FileEnabled {
		logDir = cfg.Log.Dir
	}
	log := logger.NewLogger(logDir, cfg.Log.Service+"-cleanup")
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	worker := cleanup.NewWorker(&ticketdb.DB{Bun: bunDB}, cfg.Cleanup.SweepInterval, log)
	go worker.RunSweeps(ctx)

	if !cfg.Kafka.Enabled {
		log.Warn("KAFKA", "Kafka disabled, running the orphan sweep only")
		<-ctx.Done()
		log.Info("APP", "Cleanup worker stopped")
		return
	}

	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topics.EventDeleted}, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.EventDeleted, cfg.Kafka.GroupID, log)
	defer consumer.Close()

	log.LogProcess("CLEANUP", fmt.Sprintf("Consuming %s as group %s", cfg.Kafka.Topics.EventDeleted, cfg.Kafka.GroupID))
	if err := consumer.Start(ctx, worker.HandleEventDeleted); err != nil {
		log.Error("KAFKA", fmt.Sprintf("Consumer stopped: %v", err))
	}
	log.Info("APP", "Cleanup worker stopped")
}
