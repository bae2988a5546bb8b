package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"anoa.com/studentms/pkg/database"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	Database database.Options
	RedisURL string

	JWTSecret string
	JWTTTL    time.Duration

	LogLevel  string
	LogPretty bool

	// Resolved against the database at startup, see bootstrap.ResolveDefaults.
	DefaultCourseID        uint
	DefaultSessionPeriodID uint
	RegistrationPrefix     string

	CloudinaryUploadFolder string

	RateLimitSubmission time.Duration

	// Seeded in development when no administrator exists yet.
	AdminEmail    string
	AdminPassword string
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		Database: database.Options{
			Host:     getEnv("DB_HOST", "localhost"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASS"),
			Name:     getEnv("DB_NAME", "student_management"),
			Port:     getEnv("DB_PORT", "5432"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnv("LOG_PRETTY", "true") == "true",

		RegistrationPrefix:     strings.TrimSpace(getEnv("REGISTRATION_PREFIX", "STU")),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "student_management"),

		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@school.local"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin12345"),
	}
	cfg.Database.LogLevel = cfg.LogLevel
	if cfg.RegistrationPrefix == "" {
		return nil, fmt.Errorf("invalid REGISTRATION_PREFIX: must not be empty")
	}

	var err error
	cfg.JWTTTL, err = time.ParseDuration(getEnv("JWT_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	cfg.RateLimitSubmission, err = time.ParseDuration(getEnv("RATE_LIMIT_SUBMISSION", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SUBMISSION: %w", err)
	}
	cfg.DefaultCourseID, err = parseID(getEnv("DEFAULT_COURSE_ID", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_COURSE_ID: %w", err)
	}
	cfg.DefaultSessionPeriodID, err = parseID(getEnv("DEFAULT_SESSION_PERIOD_ID", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_SESSION_PERIOD_ID: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, fmt.Errorf("id must be positive")
	}
	return uint(id), nil
}
