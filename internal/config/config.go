package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Persistence Configuration
	StoreBackend string // "file" | "mongo"
	SchedulePath string
	ProfilesPath string

	// MongoDB Configuration (used when StoreBackend == "mongo")
	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration

	// HTTP Server Configuration
	HTTPPort         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	// Logging Configuration
	LogLevel  string
	LogFormat string

	// Scheduler Configuration
	SchedulerEnabled   bool
	TickSchedule       string // cron expression, minute-by-minute schedule walk
	RandomPickSchedule string // cron expression, forward-progress random pick

	// Slot Timing Configuration
	ImmediateDelay time.Duration
	StaggerBase    time.Duration
	StaggerStep    time.Duration
	ScheduleTTL    time.Duration

	// Cooldown Configuration
	ProfileCooldown      time.Duration
	MinExecutionInterval time.Duration

	// Balance Check Configuration
	BalanceCheckEnabled bool
	BalanceMinPerAction int

	// Driver Configuration
	DriverBaseURL     string
	DriverToken       string
	DriverTimeout     time.Duration
	DriverSuccessPath string
	DriverCommentPath string
	DriverContentPath string

	// Notifier Configuration
	NotifierWebhookURL string
	NotifierTimeout    time.Duration

	// Run Log Configuration
	RunLogCapacity int

	// CORS Configuration
	CORSAllowedOrigins   string
	CORSAllowedMethods   string
	CORSAllowedHeaders   string
	CORSAllowCredentials bool
	CORSMaxAge           int
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		// Persistence
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", "file")),
		SchedulePath: getEnv("SCHEDULE_PATH", "data/schedule.json"),
		ProfilesPath: getEnv("PROFILES_PATH", "data/profiles.json"),

		// MongoDB
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017/starling?authSource=admin"),
		MongoDatabase: getEnv("MONGO_DATABASE", "starling"),
		MongoTimeout:  getDurationEnv("MONGO_TIMEOUT_SEC", 10) * time.Second,

		// HTTP Server
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		HTTPReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT_SEC", 30) * time.Second,
		HTTPWriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT_SEC", 30) * time.Second,

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Scheduler
		SchedulerEnabled:   getBoolEnv("SCHEDULER_ENABLED", true),
		TickSchedule:       getEnv("TICK_SCHEDULE", "* * * * *"),
		RandomPickSchedule: getEnv("RANDOM_PICK_SCHEDULE", "0 */3 * * *"),

		// Slot timing
		ImmediateDelay: getDurationEnv("IMMEDIATE_DELAY_SEC", 60) * time.Second,
		StaggerBase:    getDurationEnv("STAGGER_BASE_MIN", 120) * time.Minute,
		StaggerStep:    getDurationEnv("STAGGER_STEP_MIN", 180) * time.Minute,
		ScheduleTTL:    getDurationEnv("SCHEDULE_TTL_HOURS", 24) * time.Hour,

		// Cooldowns
		ProfileCooldown:      getDurationEnv("PROFILE_COOLDOWN_MIN", 180) * time.Minute,
		MinExecutionInterval: getDurationEnv("MIN_EXECUTION_INTERVAL_MIN", 15) * time.Minute,

		// Balance check
		BalanceCheckEnabled: getBoolEnv("BALANCE_CHECK_ENABLED", true),
		BalanceMinPerAction: getIntEnv("BALANCE_MIN_PER_ACTION", 1),

		// Driver
		DriverBaseURL:     getEnv("DRIVER_BASE_URL", "http://127.0.0.1:50325"),
		DriverToken:       getEnv("DRIVER_TOKEN", ""),
		DriverTimeout:     getDurationEnv("DRIVER_TIMEOUT_SEC", 300) * time.Second,
		DriverSuccessPath: getEnv("DRIVER_SUCCESS_PATH", "$.data.success"),
		DriverCommentPath: getEnv("DRIVER_COMMENT_PATH", "$.data.comment"),
		DriverContentPath: getEnv("DRIVER_CONTENT_PATH", "$.data.post_text"),

		// Notifier
		NotifierWebhookURL: getEnv("NOTIFIER_WEBHOOK_URL", ""),
		NotifierTimeout:    getDurationEnv("NOTIFIER_TIMEOUT_SEC", 10) * time.Second,

		// Run log
		RunLogCapacity: getIntEnv("RUN_LOG_CAPACITY", 200),

		// CORS
		CORSAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "*"),
		CORSAllowedMethods:   getEnv("CORS_ALLOWED_METHODS", "GET, POST, PUT, DELETE, OPTIONS, PATCH"),
		CORSAllowedHeaders:   getEnv("CORS_ALLOWED_HEADERS", "*"),
		CORSAllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAge:           getIntEnv("CORS_MAX_AGE", 3600),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return time.Duration(intVal)
		}
		log.Printf("Warning: Invalid duration value for %s, using default %d", key, defaultValue)
	}
	return time.Duration(defaultValue)
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
	}
	return defaultValue
}
