package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"chat-relay/internal/common/constants"
)

var (
	ErrMissingRequiredEnv = errors.New("missing required environment variable")
	ErrInvalidJWTSecret   = errors.New("JWT_SECRET must be at least 32 bytes")
)

// RelayConfig holds everything the process needs at startup. DATABASE_URL and
// JWT_SECRET are required; the process refuses to start without them.
type RelayConfig struct {
	HTTPPort            string
	WSPort              string
	DatabaseURL         string
	JWTSecret           string
	CORSAllowedOrigin   string
	RequestTimeout      time.Duration
	WebSocketWriteWait  time.Duration
	WebSocketPongWait   time.Duration
	WebSocketPingPeriod time.Duration
	WebSocketMaxMsgSize int64
}

func LoadRelayConfig() (RelayConfig, error) {
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return RelayConfig{}, err
	}

	if err := validateJWTSecret(jwtSecret); err != nil {
		return RelayConfig{}, err
	}

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return RelayConfig{}, err
	}

	return RelayConfig{
		HTTPPort:            getEnv("HTTP_PORT", constants.DefaultHTTPPort),
		WSPort:              getEnv("WS_PORT", constants.DefaultWSPort),
		DatabaseURL:         databaseURL,
		JWTSecret:           jwtSecret,
		CORSAllowedOrigin:   getEnv("CORS_ALLOWED_ORIGIN", constants.DefaultCORSAllowedOrigin),
		RequestTimeout:      getDurationEnv("REQUEST_TIMEOUT", constants.DefaultRequestTimeout),
		WebSocketWriteWait:  getDurationEnv("WS_WRITE_WAIT", constants.DefaultWebSocketWriteWait),
		WebSocketPongWait:   getDurationEnv("WS_PONG_WAIT", constants.DefaultWebSocketPongWait),
		WebSocketPingPeriod: getDurationEnv("WS_PING_PERIOD", constants.DefaultWebSocketPingPeriod),
		WebSocketMaxMsgSize: getInt64Env("WS_MAX_MSG_SIZE", constants.DefaultWebSocketMaxMsgSize),
	}, nil
}

func validateJWTSecret(secret string) error {
	if len(secret) < constants.JWTSecretMinLength {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidJWTSecret, len(secret))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingRequiredEnv, key)
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getInt64Env(key string, fallback int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}
