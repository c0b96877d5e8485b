package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	JWTSecret  string // JWT secret key
	RedisAddr  string // Redis server address
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment

	GeminiAPIKey string // API key for the image model; empty means the model is unavailable
	GeminiModel  string // Image model name

	StorageBackend string // "disk" or "bucket"
	StorageDir     string // Local directory for the disk backend
	PublicBaseURL  string // Base URL under which disk-stored images are served
	BucketURL      string // Object store base URL for the bucket backend
	BucketKey      string // Object store service key
	BucketName     string // Object store bucket name

	AdminAccessCode      string // Registration code that grants the admin role
	DefaultCredits       int    // Credits granted to a fresh user account
	AdminCredits         int    // Credits granted to a fresh admin account
	CreditProratePartial bool   // Charge only delivered images on a partial batch
	GenerationTimeout    int    // Per-image model call timeout in seconds
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:    os.Getenv("APP_PORT"),          // Application port
		DBUser:     os.Getenv("DB_USER"),           // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),       // Database password
		DBHost:     os.Getenv("DB_HOST"),           // Database host
		DBPort:     os.Getenv("DB_PORT"),           // Database port
		DBName:     os.Getenv("DB_NAME"),           // Database name
		JWTSecret:  os.Getenv("JWT_SECRET"),        // JWT secret key
		RedisAddr:  os.Getenv("REDIS_ADDR"),        // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),        // Redis password
		RedisDB:    redisDB,                        // Redis database number
		IsProd:     os.Getenv("IS_PROD") == "true", // Is production environment

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-3-pro-image-preview"),

		StorageBackend: getEnv("STORAGE_BACKEND", "disk"),
		StorageDir:     getEnv("STORAGE_DIR", "generated"),
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		BucketURL:      os.Getenv("BUCKET_URL"),
		BucketKey:      os.Getenv("BUCKET_KEY"),
		BucketName:     getEnv("BUCKET_NAME", "images"),

		AdminAccessCode:      os.Getenv("ADMIN_ACCESS_CODE"),
		DefaultCredits:       getEnvInt("DEFAULT_CREDITS", 3),
		AdminCredits:         getEnvInt("ADMIN_CREDITS", 9999),
		CreditProratePartial: os.Getenv("CREDIT_PRORATE_PARTIAL") == "true",
		GenerationTimeout:    getEnvInt("GENERATION_TIMEOUT_SECONDS", 60),
	}
}

// getEnv returns the environment variable value or a fallback when unset
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the environment variable as an int or a fallback when unset or invalid
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
