package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Store    StoreConfig
	Redis    RedisConfig
	DB       DBConfig
	Mongo    MongoConfig
	Broker   BrokerConfig
	RabbitMQ RabbitMQConfig
	NATS     NATSConfig
	Auth     AuthConfig
	Game     GameConfig
}

type ServerConfig struct {
	HTTPPort string
	GRPCPort string
	// AllowedOrigins lists the origins allowed to open websocket connections.
	// Empty or "*" allows any origin.
	AllowedOrigins []string
}

type LogConfig struct {
	Level string
}

type StoreConfig struct {
	// Backend is "redis" or "memory".
	Backend string
	// History is "postgres" or "mongo".
	History string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	GameTTL  time.Duration
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type MongoConfig struct {
	URI string
}

type BrokerConfig struct {
	// Kind is "none", "rabbitmq" or "nats".
	Kind string
}

type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

type NATSConfig struct {
	URL   string
	Token string
}

type AuthConfig struct {
	JWTSecret    string
	HostTokenTTL time.Duration
}

type GameConfig struct {
	DefaultQuestionCount   int
	DefaultTimePerQuestion int
	SeedDefaultData        bool
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded, using process environment")
	}

	return &Config{
		Server: ServerConfig{
			HTTPPort:       getEnv("HTTP_PORT", "8080"),
			GRPCPort:       getEnv("GRPC_PORT", "9090"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Backend: getEnv("GAME_STORE", "redis"),
			History: getEnv("HISTORY_STORE", "postgres"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "redis"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			GameTTL:  time.Duration(getEnvAsInt("GAME_TTL_HOURS", 24)) * time.Hour,
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "postgres"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "quizmas"),
			Password: getEnv("DB_PASSWORD", "quizmas_password"),
			DBName:   getEnv("DB_NAME", "quizmas"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Mongo: MongoConfig{
			URI: getEnv("MONGODB_URI", "mongodb://mongo:27017/quizmas"),
		},
		Broker: BrokerConfig{
			Kind: getEnv("EVENT_BROKER", "none"),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     getEnv("RABBITMQ_HOST", "rabbitmq"),
			Port:     getEnv("RABBITMQ_PORT", "5672"),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
		},
		NATS: NATSConfig{
			URL:   getEnv("NATS_URL", "nats://localhost:4222"),
			Token: getEnv("NATS_TOKEN", ""),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", "change-me"),
			HostTokenTTL: time.Duration(getEnvAsInt("HOST_TOKEN_TTL_HOURS", 12)) * time.Hour,
		},
		Game: GameConfig{
			DefaultQuestionCount:   getEnvAsInt("DEFAULT_QUESTION_COUNT", 10),
			DefaultTimePerQuestion: getEnvAsInt("DEFAULT_TIME_PER_QUESTION", 20),
			SeedDefaultData:        getEnvAsBool("SEED_DEFAULT_DATA", true),
		},
	}
}

// ConfigureLogging applies the configured level to the global logger.
func (c *Config) ConfigureLogging() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, falling back to info", c.Log.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping empty entries.
func getEnvAsList(key string) []string {
	var values []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
