package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBDriver   string // postgres | sqlite | memory
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string
	SQLitePath string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TraceQueueName        string
	SessionLockTTLSeconds int

	SessionDurationSeconds int
	DefaultQuestionBudget  int
	PlagiarismThreshold    float64
	CodingPassThreshold    float64
	StrengthThreshold      int
	WeaknessThreshold      int

	CORSOrigins      []string
	AdminUser        string
	AdminPassHash    string // bcrypt
	QuestionBankPath string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:    getEnv("API_PORT", "8080"),
		JWTKey:     []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:     time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "vgp_platform"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "vgp_platform.db"),

		RedisEnabled:  getEnvAsBool("REDIS_ENABLED", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		TraceQueueName:        getEnv("TRACE_QUEUE_NAME", "trace_events_queue"),
		SessionLockTTLSeconds: getEnvAsInt("SESSION_LOCK_TTL_SECONDS", 30),

		SessionDurationSeconds: getEnvAsInt("SESSION_DURATION_SECONDS", 1800),
		DefaultQuestionBudget:  getEnvAsInt("DEFAULT_QUESTION_BUDGET", 10),
		PlagiarismThreshold:    getEnvAsFloat("PLAGIARISM_THRESHOLD", 0.6),
		CodingPassThreshold:    getEnvAsFloat("CODING_PASS_THRESHOLD", 0.5),
		StrengthThreshold:      getEnvAsInt("STRENGTH_THRESHOLD", 80),
		WeaknessThreshold:      getEnvAsInt("WEAKNESS_THRESHOLD", 50),

		CORSOrigins:      getEnvAsList("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		AdminUser:        getEnv("ADMIN_USER", "admin"),
		AdminPassHash:    getEnv("ADMIN_PASS_HASH", ""),
		QuestionBankPath: getEnv("QUESTION_BANK_PATH", ""),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

// SessionDuration is the fixed time budget of every test session.
func (c *Config) SessionDuration() time.Duration {
	return time.Duration(c.SessionDurationSeconds) * time.Second
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

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

func getEnvAsList(key, fallback string) []string {
	parts := strings.Split(getEnv(key, fallback), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
