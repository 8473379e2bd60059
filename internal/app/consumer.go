package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"estate-crm/internal/commission"
	"estate-crm/internal/events"
	"estate-crm/internal/messaging/kafka"
	"estate-crm/internal/messaging/kafka/consumer"
	"estate-crm/internal/partner"
	"estate-crm/internal/rule"
	"estate-crm/internal/sale"
	"estate-crm/internal/shared/connection"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	commissionService := commission.NewService(
		gormDB,
		commission.NewRepository(gormDB),
		rule.NewRepository(gormDB),
		sale.NewRepository(gormDB),
		partner.NewRepository(gormDB),
		kafka.NewOutboxRepository(gormDB),
	)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.SaleLifecycleTopic,
		GroupID:        "estate-crm-commission",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeSaleLifecycle(ctx, reader, commissionService, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
