package constants

import "time"

const (
	UsernameMinLength  = 3
	UsernameMaxLength  = 32
	PasswordMinLength  = 8
	PasswordMaxLength  = 72
	JWTSecretMinLength = 32

	BcryptCost = 12

	TokenTTL = 24 * time.Hour

	// MessageTimestampFormat is the only accepted interchange format for
	// chat message timestamps. Anything else is treated as malformed input.
	MessageTimestampFormat = time.RFC3339

	HistoryLimit          = 100
	BroadcastBacklogSize  = 100
	DefaultMaxRequestSize = 1 << 20

	DBPoolMaxOpenConns    = 25
	DBPoolMinOpenConns    = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second

	DefaultHTTPPort = "3000"
	DefaultWSPort   = "8080"

	DefaultCORSAllowedOrigin = "http://127.0.0.1:5050"

	DefaultRequestTimeout = 5 * time.Second

	DefaultWebSocketWriteWait  = 10 * time.Second
	DefaultWebSocketPongWait   = 60 * time.Second
	DefaultWebSocketPingPeriod = 54 * time.Second
	DefaultWebSocketMaxMsgSize = 64 * 1024
	WebSocketReadBufferSize    = 1024
	WebSocketWriteBufferSize   = 1024

	RateLimitCleanupInterval           = 5 * time.Minute
	RateLimitLoginRequestsPerSecond    = 1.0
	RateLimitLoginBurst                = 5
	RateLimitRegisterRequestsPerSecond = 0.5
	RateLimitRegisterBurst             = 3
	RateLimitGeneralRequestsPerSecond  = 20.0
	RateLimitGeneralBurst              = 40

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
