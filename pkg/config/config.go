package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"fleetsched/pkg/client"
	"fleetsched/pkg/logger"

	"github.com/joho/godotenv"
)

var (
	clockRegex      = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	mongoURIRegex   = regexp.MustCompile(`^mongodb(\+srv)?://`)
	credentialRegex = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	ScheduleTimezone            string
	ScheduleTravelBuffer        time.Duration
	SchedulePickupDuration      time.Duration
	ScheduleDeliveryDuration    time.Duration
	ScheduleWorkdayStart        string
	ScheduleWorkdayEnd          string
	ScheduleMaxDeliveriesPerDay int
	ScheduleMinSlotDuration     time.Duration
	ScheduleDefaultTravelTime   time.Duration

	DriverLockTTL time.Duration

	KafkaEnabled            bool
	AssignmentEventsTopic   string
	AssignmentRequestsTopic string
	AssignmentDLQTopic      string
	AssignmentConsumerGroup string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	// A missing .env file is normal outside local development.
	envFileErr := godotenv.Load()

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		ScheduleTimezone:            getEnvStr(EnvScheduleTimezone, DefaultScheduleTimezone),
		ScheduleTravelBuffer:        getEnvDuration(EnvScheduleTravelBuffer, DefaultScheduleTravelBuffer),
		SchedulePickupDuration:      getEnvDuration(EnvSchedulePickupDuration, DefaultSchedulePickupDuration),
		ScheduleDeliveryDuration:    getEnvDuration(EnvScheduleDeliveryDuration, DefaultScheduleDeliveryDuration),
		ScheduleWorkdayStart:        getEnvStr(EnvScheduleWorkdayStart, DefaultScheduleWorkdayStart),
		ScheduleWorkdayEnd:          getEnvStr(EnvScheduleWorkdayEnd, DefaultScheduleWorkdayEnd),
		ScheduleMaxDeliveriesPerDay: getEnvNum(EnvScheduleMaxDeliveriesPerDay, DefaultScheduleMaxDeliveriesPerDay),
		ScheduleMinSlotDuration:     getEnvDuration(EnvScheduleMinSlotDuration, DefaultScheduleMinSlotDuration),
		ScheduleDefaultTravelTime:   getEnvDuration(EnvScheduleDefaultTravelTime, DefaultScheduleDefaultTravelTime),

		DriverLockTTL: getEnvDuration(EnvDriverLockTTL, DefaultDriverLockTTL),

		KafkaEnabled:            getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		AssignmentEventsTopic:   getEnvStr(EnvAssignmentEventsTopic, DefaultAssignmentEventsTopic),
		AssignmentRequestsTopic: getEnvStr(EnvAssignmentRequestsTopic, DefaultAssignmentRequestsTopic),
		AssignmentDLQTopic:      getEnvStr(EnvAssignmentDLQTopic, DefaultAssignmentDLQTopic),
		AssignmentConsumerGroup: getEnvStr(EnvAssignmentConsumerGroup, DefaultAssignmentConsumerGroup),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if envFileErr != nil {
		cfg.Log.Debug("No .env file found (using environment variables)")
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !mongoURIRegex.MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"SchedulePickupDuration", cfg.SchedulePickupDuration},
		{"ScheduleDeliveryDuration", cfg.ScheduleDeliveryDuration},
		{"ScheduleMinSlotDuration", cfg.ScheduleMinSlotDuration},
		{"ScheduleDefaultTravelTime", cfg.ScheduleDefaultTravelTime},
		{"DriverLockTTL", cfg.DriverLockTTL},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", p.name, p.value))
		}
	}
	if cfg.ScheduleTravelBuffer < 0 {
		errors = append(errors, fmt.Sprintf("ScheduleTravelBuffer cannot be negative, got: %s", cfg.ScheduleTravelBuffer))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ScheduleMaxDeliveriesPerDay <= 0 {
		errors = append(errors, fmt.Sprintf("ScheduleMaxDeliveriesPerDay must be positive, got: %d", cfg.ScheduleMaxDeliveriesPerDay))
	}

	if _, err := time.LoadLocation(cfg.ScheduleTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("ScheduleTimezone must be a valid IANA zone, got: %s", cfg.ScheduleTimezone))
	}

	startOK := clockRegex.MatchString(cfg.ScheduleWorkdayStart)
	endOK := clockRegex.MatchString(cfg.ScheduleWorkdayEnd)
	if !startOK {
		errors = append(errors, fmt.Sprintf("ScheduleWorkdayStart must be in HH:MM format (00:00-23:59), got: %s", cfg.ScheduleWorkdayStart))
	}
	if !endOK {
		errors = append(errors, fmt.Sprintf("ScheduleWorkdayEnd must be in HH:MM format (00:00-23:59), got: %s", cfg.ScheduleWorkdayEnd))
	}
	if startOK && endOK && cfg.ScheduleWorkdayStart >= cfg.ScheduleWorkdayEnd {
		errors = append(errors, fmt.Sprintf("ScheduleWorkdayEnd (%s) must be after ScheduleWorkdayStart (%s)", cfg.ScheduleWorkdayEnd, cfg.ScheduleWorkdayStart))
	}

	if cfg.KafkaEnabled {
		if cfg.AssignmentEventsTopic == "" {
			errors = append(errors, "AssignmentEventsTopic cannot be empty when Kafka is enabled")
		}
		if cfg.AssignmentRequestsTopic == "" {
			errors = append(errors, "AssignmentRequestsTopic cannot be empty when Kafka is enabled")
		}
		if cfg.AssignmentConsumerGroup == "" {
			errors = append(errors, "AssignmentConsumerGroup cannot be empty when Kafka is enabled")
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"schedule_timezone", cfg.ScheduleTimezone,
		"schedule_travel_buffer", cfg.ScheduleTravelBuffer,
		"schedule_pickup_duration", cfg.SchedulePickupDuration,
		"schedule_delivery_duration", cfg.ScheduleDeliveryDuration,
		"schedule_workday_start", cfg.ScheduleWorkdayStart,
		"schedule_workday_end", cfg.ScheduleWorkdayEnd,
		"schedule_max_deliveries_per_day", cfg.ScheduleMaxDeliveriesPerDay,
		"schedule_min_slot_duration", cfg.ScheduleMinSlotDuration,
		"schedule_default_travel_time", cfg.ScheduleDefaultTravelTime,
		"driver_lock_ttl", cfg.DriverLockTTL,
		"kafka_enabled", cfg.KafkaEnabled,
		"assignment_events_topic", cfg.AssignmentEventsTopic,
		"assignment_requests_topic", cfg.AssignmentRequestsTopic,
	)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.ShutdownTimeout)
}

func redactMongoURI(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
