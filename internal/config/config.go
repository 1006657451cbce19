package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort  string
	LogLevel string

	OllamaURL            string
	OllamaModel          string
	OllamaTimeoutSeconds int

	DoclingBinary          string
	DoclingOCREngine       string
	DoclingImageExportMode string
	DoclingTimeoutSeconds  int
	DoclingDevice          string
	DoclingNumThreads      int

	TempUploadDir         string
	TempFileMaxAgeSeconds int

	DetectConfidenceFloor float64
	DetectMaxCandidates   int

	APIRateLimitRPS   float64
	APIRateLimitBurst int
	APIMaxInFlight    int

	BreakerEnabled            bool
	BreakerMinRequests        int
	BreakerFailureRatio       float64
	BreakerOpenTimeoutSeconds int
	BreakerHalfOpenMaxCalls   int
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		OllamaURL:            mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:          mustEnv("OLLAMA_MODEL", "gemma3:12b"),
		OllamaTimeoutSeconds: mustEnvInt("OLLAMA_TIMEOUT_SECONDS", 1500),

		DoclingBinary:          mustEnv("DOCLING_BINARY", "docling"),
		DoclingOCREngine:       mustEnv("DOCLING_OCR_ENGINE", "rapidocr"),
		DoclingImageExportMode: mustEnv("DOCLING_IMAGE_EXPORT_MODE", "placeholder"),
		DoclingTimeoutSeconds:  mustEnvInt("DOCLING_TIMEOUT_SECONDS", 600),
		DoclingDevice:          mustEnv("DOCLING_DEVICE", ""),
		DoclingNumThreads:      mustEnvInt("DOCLING_NUM_THREADS", 0),

		TempUploadDir:         mustEnv("TEMP_UPLOAD_DIR", "./temp_uploads"),
		TempFileMaxAgeSeconds: mustEnvInt("DOC_TEMP_FILE_MAX_AGE", 3600),

		DetectConfidenceFloor: mustEnvFloat("DETECT_CONFIDENCE_FLOOR", 1.0),
		DetectMaxCandidates:   mustEnvInt("DETECT_MAX_CANDIDATES", 5),

		APIRateLimitRPS:   mustEnvFloat("API_RATE_LIMIT_RPS", 10),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 20),
		APIMaxInFlight:    mustEnvInt("API_MAX_IN_FLIGHT", 4),

		BreakerEnabled:            mustEnvBool("BREAKER_ENABLED", true),
		BreakerMinRequests:        mustEnvInt("BREAKER_MIN_REQUESTS", 10),
		BreakerFailureRatio:       mustEnvFloat("BREAKER_FAILURE_RATIO", 0.5),
		BreakerOpenTimeoutSeconds: mustEnvInt("BREAKER_OPEN_TIMEOUT_SECONDS", 30),
		BreakerHalfOpenMaxCalls:   mustEnvInt("BREAKER_HALF_OPEN_MAX_CALLS", 2),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
