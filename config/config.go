package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	ServerAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBLogSQL   bool

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO holds gallery uploads.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string

	JWTSecret  string
	SessionTTL time.Duration

	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// Confirmation card branding.
	LogoPath string
	OrgName  string
	SiteURL  string

	AuditionFetchCap int
	ContentFetchCap  int
	GalleryFetchCap  int
	MaxUploadBytes   int64
	MaxAudioBytes    int64
	ExposeResetCode  bool
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // no hardcoded default for the password
		DBName:     getEnv("DB_NAME", "jnchoral"),
		DBLogSQL:   getEnvBool("DB_LOG_SQL", false),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "jnchoral"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		SessionTTL: getEnvDuration("SESSION_TTL", 7*24*time.Hour),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),

		LogoPath: getEnv("LOGO_PATH", "public/logo.png"),
		OrgName:  getEnv("ORG_NAME", "JUDE NNAM CHORAL"),
		SiteURL:  getEnv("SITE_URL", "jnc-choral.vercel.app"),

		AuditionFetchCap: getEnvInt("AUDITION_FETCH_CAP", 300),
		ContentFetchCap:  getEnvInt("CONTENT_FETCH_CAP", 200),
		GalleryFetchCap:  getEnvInt("GALLERY_FETCH_CAP", 300),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_MB", 10)) << 20,
		MaxAudioBytes:    int64(getEnvInt("MAX_AUDIO_UPLOAD_MB", 25)) << 20,
		ExposeResetCode:  getEnvBool("EXPOSE_RESET_CODE", false),
	}
}
