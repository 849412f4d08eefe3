package config

import (
	"os"
	"strconv"
	"time"
)

// Config содержит все настройки клиента координации переводов
type Config struct {
	// Backend settings
	BackendBaseURL string
	WebSocketURL   string
	HTTPTimeout    time.Duration

	// Reconnect settings
	ReconnectDelay       time.Duration
	ReconnectMaxAttempts int     // 0 = без ограничения
	ReconnectBackoff     float64 // 1.0 = фиксированная задержка

	// Operator identity (аналог localStorage браузера)
	Username string
	UserRole string

	// UI refresh
	RenderSummary bool
}

// Load загружает конфигурацию из переменных окружения с дефолтными значениями
func Load() *Config {
	return &Config{
		BackendBaseURL: getEnvString("BACKEND_BASE_URL", "http://localhost:8000"),
		WebSocketURL:   getEnvString("BACKEND_WS_URL", "ws://localhost:8000/ws"),
		HTTPTimeout:    time.Duration(getEnvInt64("HTTP_TIMEOUT_MS", 10000)) * time.Millisecond,

		// Фиксированные 5 секунд как в исходном протоколе; ограничение
		// попыток и экспоненциальный рост - опциональные расширения
		ReconnectDelay:       time.Duration(getEnvInt64("RECONNECT_DELAY_MS", 5000)) * time.Millisecond,
		ReconnectMaxAttempts: getEnvInt("RECONNECT_MAX_ATTEMPTS", 0),
		ReconnectBackoff:     getEnvFloat("RECONNECT_BACKOFF_FACTOR", 1.0),

		Username: getEnvString("DASHBOARD_USERNAME", "charge-nurse"),
		UserRole: getEnvString("DASHBOARD_USER_ROLE", "nurse"),

		RenderSummary: getEnvBool("RENDER_SUMMARY", true),
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
