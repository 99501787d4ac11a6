package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppMode string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PipelineGroupID    string
	PipelinePartitions int
	PipelinePoll       time.Duration

	StoragePath         string
	MaxFileSize         int64
	MinFileSize         int64
	MaxZipEntries       int
	MaxCompressionRatio int

	VirusScanHost    string
	VirusScanPort    int
	VirusScanEnabled bool
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort: getEnv("APP_PORT", "8080"),
		AppMode: getEnv("APP_MODE", "debug"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "submissiondisk"),
		DBPort:     getEnv("DB_PORT", "5432"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		PipelineGroupID:    getEnv("PIPELINE_GROUP_ID", "submission-pipeline"),
		PipelinePartitions: getEnvAsInt("PIPELINE_PARTITIONS", 3),
		PipelinePoll:       getEnvAsDuration("PIPELINE_POLL_INTERVAL", 5*time.Second),

		StoragePath:         getEnv("SUBMISSION_STORAGE_PATH", "uploads"),
		MaxFileSize:         getEnvAsInt64("SUBMISSION_MAX_FILE_SIZE", 100<<20),
		MinFileSize:         getEnvAsInt64("SUBMISSION_MIN_FILE_SIZE", 1),
		MaxZipEntries:       getEnvAsInt("SUBMISSION_MAX_ZIP_ENTRIES", 10000),
		MaxCompressionRatio: getEnvAsInt("SUBMISSION_MAX_COMPRESSION_RATIO", 100),

		VirusScanHost:    getEnv("VIRUS_SCAN_HOST", "localhost"),
		VirusScanPort:    getEnvAsInt("VIRUS_SCAN_PORT", 3310),
		VirusScanEnabled: getEnvAsBool("VIRUS_SCAN_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
