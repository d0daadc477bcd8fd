package main

import (
	deliveriesevents "fleetsched/internal/deliveries/events"
	deliverieshandler "fleetsched/internal/deliveries/handler"
	deliveriesrepository "fleetsched/internal/deliveries/repository"
	deliveriesservice "fleetsched/internal/deliveries/service"
	scheduleshandler "fleetsched/internal/schedules/handler"
	"fleetsched/internal/schedules/scheduler"
	schedulesservice "fleetsched/internal/schedules/service"
	"fleetsched/internal/schedules/validator"
	"fleetsched/pkg/app"
	"fleetsched/pkg/config"
	"fleetsched/pkg/kafka"
	kafka_config "fleetsched/pkg/kafka/config"
	kafka_middleware "fleetsched/pkg/kafka/middleware"
)

const ServiceName = "scheduler"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Scheduler service")
	serverApp := app.NewApplication(cfg)

	publisher, closePublisher := initPublisher(cfg)
	serverApp.OnShutdown(closePublisher)
	serverApp.OnShutdown(cfg.GracefulShutdown)

	scheduleService, deliveryService := initServices(cfg, publisher)
	serverApp.SetApp(
		scheduleshandler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
		scheduleshandler.NewScheduleHandler(scheduleService, cfg.Log),
		deliverieshandler.NewDeliveryHandler(deliveryService, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher deliveriesservice.EventPublisher) (schedulesservice.ScheduleService, deliveriesservice.DeliveryService) {
	rules, err := scheduler.RulesFromConfig(cfg)
	if err != nil {
		cfg.Log.Fatal("Invalid schedule rules", "error", err)
	}

	requestValidator := validator.NewRequestValidator(cfg.Log)
	deliveryRepo := deliveriesrepository.NewMongoDeliveryRepository(cfg)
	lockRepo := deliveriesrepository.NewDriverLockRepository(cfg)
	planner := scheduler.New(deliveryRepo, rules, cfg.Log)

	scheduleService := schedulesservice.NewScheduleService(planner, requestValidator, cfg)
	deliveryService := deliveriesservice.NewDeliveryService(
		deliveryRepo,
		lockRepo,
		planner,
		requestValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Scheduler services initialized",
		"database", cfg.MongoDatabaseName,
		"timezone", rules.Location.String(),
	)
	return scheduleService, deliveryService
}

func initPublisher(cfg *config.Config) (deliveriesservice.EventPublisher, func()) {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, assignment events will not be published")
		return deliveriesevents.NoopPublisher{}, func() {}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.AssignmentEventsTopic, "", cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	metrics := &kafka_middleware.Metrics{}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafka_middleware.MetricsProducerMiddleware(metrics))
	}

	closeProducer := func() {
		metrics.Log(cfg.Log, "Assignment event producer metrics")
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}
	return deliveriesevents.NewKafkaPublisher(producer, ServiceName), closeProducer
}
