package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	deliveriesevents "fleetsched/internal/deliveries/events"
	deliveriesrepository "fleetsched/internal/deliveries/repository"
	deliveriesservice "fleetsched/internal/deliveries/service"
	"fleetsched/internal/schedules/scheduler"
	"fleetsched/internal/schedules/validator"
	"fleetsched/pkg/config"
	"fleetsched/pkg/kafka"
	kafka_config "fleetsched/pkg/kafka/config"
	kafka_middleware "fleetsched/pkg/kafka/middleware"
)

const ServiceName = "assignment-worker"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	var publisher deliveriesservice.EventPublisher = deliveriesevents.NoopPublisher{}
	if cfg.KafkaEnabled {
		producer, err := kafka.NewProducer(kafkaCfg, cfg.AssignmentEventsTopic, "", cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		defer producer.Close()
		publisher = deliveriesevents.NewKafkaPublisher(producer, ServiceName)
	}

	handler := deliveriesevents.NewAssignmentHandler(initService(cfg, publisher), cfg.Log)
	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.AssignmentRequestsTopic,
		cfg.AssignmentConsumerGroup,
		cfg.AssignmentDLQTopic,
		handler.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	metrics := &kafka_middleware.Metrics{}
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(kafka_middleware.MetricsConsumerMiddleware(metrics))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting assignment worker",
		"topic", cfg.AssignmentRequestsTopic,
		"group", cfg.AssignmentConsumerGroup,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Assignment consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	metrics.Log(cfg.Log, "Assignment worker metrics")
	cfg.Log.Info("Assignment worker stopped")
}

func initService(cfg *config.Config, publisher deliveriesservice.EventPublisher) deliveriesservice.DeliveryService {
	rules, err := scheduler.RulesFromConfig(cfg)
	if err != nil {
		cfg.Log.Fatal("Invalid schedule rules", "error", err)
	}

	deliveryRepo := deliveriesrepository.NewMongoDeliveryRepository(cfg)
	return deliveriesservice.NewDeliveryService(
		deliveryRepo,
		deliveriesrepository.NewDriverLockRepository(cfg),
		scheduler.New(deliveryRepo, rules, cfg.Log),
		validator.NewRequestValidator(cfg.Log),
		publisher,
		cfg,
	)
}
