package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvScheduleTimezone            = "SCHEDULE_TIMEZONE"
	EnvScheduleTravelBuffer        = "SCHEDULE_TRAVEL_BUFFER"
	EnvSchedulePickupDuration      = "SCHEDULE_PICKUP_DURATION"
	EnvScheduleDeliveryDuration    = "SCHEDULE_DELIVERY_DURATION"
	EnvScheduleWorkdayStart        = "SCHEDULE_WORKDAY_START"
	EnvScheduleWorkdayEnd          = "SCHEDULE_WORKDAY_END"
	EnvScheduleMaxDeliveriesPerDay = "SCHEDULE_MAX_DELIVERIES_PER_DAY"
	EnvScheduleMinSlotDuration     = "SCHEDULE_MIN_SLOT_DURATION"
	EnvScheduleDefaultTravelTime   = "SCHEDULE_DEFAULT_TRAVEL_TIME"

	EnvDriverLockTTL = "DRIVER_LOCK_TTL"

	EnvKafkaEnabled            = "KAFKA_ENABLED"
	EnvAssignmentEventsTopic   = "ASSIGNMENT_EVENTS_TOPIC"
	EnvAssignmentRequestsTopic = "ASSIGNMENT_REQUESTS_TOPIC"
	EnvAssignmentDLQTopic      = "ASSIGNMENT_DLQ_TOPIC"
	EnvAssignmentConsumerGroup = "ASSIGNMENT_CONSUMER_GROUP"
)
