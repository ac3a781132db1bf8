package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "chat-relay/internal/auth/http"
	"chat-relay/internal/auth/service"
	"chat-relay/internal/common/clock"
	"chat-relay/internal/common/config"
	"chat-relay/internal/common/constants"
	"chat-relay/internal/common/crypto"
	"chat-relay/internal/common/db"
	commonhttp "chat-relay/internal/common/http"
	"chat-relay/internal/common/logger"
	"chat-relay/internal/common/server"
	historyhttp "chat-relay/internal/history/http"
	messagerepo "chat-relay/internal/message/repository"
	"chat-relay/internal/relay/broadcast"
	relayws "chat-relay/internal/relay/websocket"
	userrepo "chat-relay/internal/user/repository"
)

func main() {
	appLog, err := logger.New(
		getEnv("LOG_DIR", "logs"),
		"chat-relay",
		getEnv("LOG_LEVEL", "INFO"),
	)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	cfg, err := config.LoadRelayConfig()
	if err != nil {
		appLog.Fatalf("failed to load config: %v", err)
	}

	pool := db.NewPool(appLog, cfg.DatabaseURL)
	if err := db.EnsureSchema(context.Background(), appLog, pool); err != nil {
		appLog.Fatalf("failed to ensure database schema: %v", err)
	}

	users := userrepo.NewPgRepository(pool)
	messages := messagerepo.NewPgRepository(pool)

	auth := service.NewAuthService(service.AuthServiceDeps{
		Repo:   users,
		Hasher: &crypto.BcryptHasher{},
		Clock:  clock.NewRealClock(),
		Log:    appLog,
	}, cfg.JWTSecret, constants.TokenTTL)

	channel := broadcast.NewChannel(constants.BroadcastBacklogSize)

	apiServer := server.NewServer(
		server.DefaultServerConfig(cfg.HTTPPort),
		buildAPIHandler(appLog, cfg, auth, messages),
	)

	wsServer := server.NewServer(
		server.WebSocketServerConfig(cfg.WSPort),
		relayws.NewHandler(channel, messages, cfg, appLog),
	)

	server.StartAllWithGracefulShutdown(appLog,
		[]server.Named{
			{Name: "api", Server: apiServer},
			{Name: "websocket", Server: wsServer},
		},
		[]server.ShutdownHook{
			func(context.Context) error {
				pool.Close()
				appLog.Info("database pool closed")
				return nil
			},
		},
	)
}

func buildAPIHandler(
	appLog *logger.Logger,
	cfg config.RelayConfig,
	auth *service.AuthService,
	messages messagerepo.Repository,
) http.Handler {
	limiter := commonhttp.NewStrictRateLimiter()
	authHandler := authhttp.NewHandler(auth, appLog)
	historyHandler := historyhttp.NewHandler(messages, appLog)

	mux := http.NewServeMux()
	mux.Handle("/register", limiter.MiddlewareForPath("/register")(authHandler))
	mux.Handle("/login", limiter.MiddlewareForPath("/login")(authHandler))
	mux.Handle("/messages", limiter.MiddlewareForPath("/messages")(historyHandler))
	mux.HandleFunc("/health", commonhttp.HealthHandler(appLog))
	mux.Handle("/metrics", promhttp.Handler())

	cors := commonhttp.CORSMiddleware(cfg.CORSAllowedOrigin)
	return commonhttp.BuildBaseHandler(appLog, cors(mux))
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
