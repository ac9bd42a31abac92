// config.go - Configuration loaded from environment variables

package configs

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	// AI provider configuration
	AI_PROVIDER    string // "gemini" or "groq"
	GEMINI_API_KEY string
	GEMINI_MODEL   string
	GROQ_API_KEY   string
	GROQ_MODEL     string

	// OCR configuration
	TESSERACT_BIN  string
	TESSERACT_LANG string

	// Server configuration
	PORT            string
	UPLOAD_DIR      string
	ALLOWED_ORIGINS string

	// Storage configuration
	STORAGE_BACKEND  string // "jsonfile" or "mongo"
	DATA_FILE        string
	MONGO_URI        string
	MONGO_DB_NAME    string
	MONGO_COLLECTION string

	// Image preprocessing settings
	ENABLE_IMAGE_PREPROCESSING bool
	MAX_IMAGE_DIMENSION        int

	// LLM call settings
	AI_TIMEOUT_SECONDS int
)

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	AI_PROVIDER = getEnv("AI_PROVIDER", "gemini")
	GEMINI_API_KEY = getEnv("GEMINI_API_KEY", "")
	GEMINI_MODEL = getEnv("GEMINI_MODEL", "gemini-2.5-flash")
	GROQ_API_KEY = getEnv("GROQ_API_KEY", "")
	GROQ_MODEL = getEnv("GROQ_MODEL", "llama-3.3-70b-versatile")

	if GEMINI_API_KEY == "" && GROQ_API_KEY == "" {
		log.Println("⚠️  No AI API key configured - extraction will use the regex fallback only")
	}

	TESSERACT_BIN = getEnv("TESSERACT_BIN", "tesseract")
	TESSERACT_LANG = getEnv("TESSERACT_LANG", "eng")

	PORT = getEnv("PORT", "8080")
	UPLOAD_DIR = getEnv("UPLOAD_DIR", "uploads")
	ALLOWED_ORIGINS = getEnv("ALLOWED_ORIGINS", "*")

	STORAGE_BACKEND = getEnv("STORAGE_BACKEND", "jsonfile")
	DATA_FILE = getEnv("DATA_FILE", "expenses.json")
	MONGO_URI = getEnv("MONGO_URI", "mongodb://localhost:27017")
	MONGO_DB_NAME = getEnv("MONGO_DB_NAME", "expense_agent")
	MONGO_COLLECTION = getEnv("MONGO_COLLECTION", "expenses")

	ENABLE_IMAGE_PREPROCESSING = getEnvBool("ENABLE_IMAGE_PREPROCESSING", true)
	MAX_IMAGE_DIMENSION = getEnvInt("MAX_IMAGE_DIMENSION", 2000)

	AI_TIMEOUT_SECONDS = getEnvInt("AI_TIMEOUT_SECONDS", 60)

	log.Println("✓ Configuration loaded successfully")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
