package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "fleet"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 120
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultScheduleTimezone            = "UTC"
	DefaultScheduleTravelBuffer        = 30 * time.Minute
	DefaultSchedulePickupDuration      = 15 * time.Minute
	DefaultScheduleDeliveryDuration    = 10 * time.Minute
	DefaultScheduleWorkdayStart        = "08:00"
	DefaultScheduleWorkdayEnd          = "20:00"
	DefaultScheduleMaxDeliveriesPerDay = 12
	DefaultScheduleMinSlotDuration     = 30 * time.Minute
	DefaultScheduleDefaultTravelTime   = 30 * time.Minute

	DefaultDriverLockTTL = 45 * time.Second

	DefaultKafkaEnabled            = false
	DefaultAssignmentEventsTopic   = "delivery.assigned"
	DefaultAssignmentRequestsTopic = "delivery.assignment.requested"
	DefaultAssignmentDLQTopic      = "dlq-assignment-worker"
	DefaultAssignmentConsumerGroup = "assignment-worker"
)
