package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey string
	DatabaseURL  string
	HTTPPort     string
	LogLevel     string
	LogFormat    string
	JWTSecret    string

	ChatModel  string
	TitleModel string
	ImageModel string

	// GatewayRPM caps outbound Gemini calls per minute.
	GatewayRPM int

	// EditorRoot is the directory exposed to the admin file editor.
	// Empty disables the editor endpoints.
	EditorRoot string

	AdminPassword string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		DatabaseURL:   getEnv("DATABASE_URL", "krishi_mitra.db"),
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		ChatModel:     getEnv("CHAT_MODEL", "gemini-1.5-flash-latest"),
		TitleModel:    getEnv("TITLE_MODEL", "gemini-1.5-flash-latest"),
		ImageModel:    getEnv("IMAGE_MODEL", "gemini-2.0-flash-exp"),
		GatewayRPM:    getEnvAsInt("GATEWAY_RPM", 600),
		EditorRoot:    getEnv("EDITOR_ROOT", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", "change-me"),
	}

	if AppConfig.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable is required")
	}

	if AppConfig.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
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
