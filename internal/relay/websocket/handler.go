// Package websocket serves the live chat endpoint: one upgraded connection
// per client, all of them joined through a single broadcast channel.
package websocket

import (
	"net/http"

	gorillaWS "github.com/gorilla/websocket"

	"chat-relay/internal/common/config"
	"chat-relay/internal/common/constants"
	"chat-relay/internal/common/jwtverify"
	"chat-relay/internal/common/logger"
	messagerepo "chat-relay/internal/message/repository"
	"chat-relay/internal/observability/metrics"
	"chat-relay/internal/relay/broadcast"
)

type Handler struct {
	channel   *broadcast.Channel
	messages  messagerepo.Repository
	jwtSecret []byte
	timings   Timings
	upgrader  gorillaWS.Upgrader
	log       *logger.Logger
}

func NewHandler(
	channel *broadcast.Channel,
	messages messagerepo.Repository,
	cfg config.RelayConfig,
	log *logger.Logger,
) http.Handler {
	h := &Handler{
		channel:   channel,
		messages:  messages,
		jwtSecret: []byte(cfg.JWTSecret),
		timings: Timings{
			WriteWait:      cfg.WebSocketWriteWait,
			PongWait:       cfg.WebSocketPongWait,
			PingPeriod:     cfg.WebSocketPingPeriod,
			MaxMessageSize: cfg.WebSocketMaxMsgSize,
			InsertTimeout:  cfg.RequestTimeout,
		},
		upgrader: gorillaWS.Upgrader{
			ReadBufferSize:  constants.WebSocketReadBufferSize,
			WriteBufferSize: constants.WebSocketWriteBufferSize,
			// The browser client is served from a separate origin, so the
			// endpoint accepts cross-origin upgrades.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", h.serveWebSocket)
	return mux
}

func (h *Handler) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	// A bearer header, when present and valid, attributes the connection in
	// the logs. Connections without one are admitted all the same.
	username := h.identify(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade failed from %s: %v", r.RemoteAddr, err)
		return
	}

	metrics.WebSocketConnectionsTotal.Inc()
	metrics.WebSocketConnectionsActive.Inc()

	h.log.WithFields(r.Context(), logger.Fields{
		"username": username,
		"remote":   r.RemoteAddr,
		"action":   "websocket_connect",
	}).Info("websocket connection opened")

	NewClient(conn, h.channel, h.messages, username, h.timings, h.log).Start()
}

func (h *Handler) identify(r *http.Request) string {
	token, ok := jwtverify.ExtractTokenFromHeader(r)
	if !ok {
		return ""
	}

	claims, err := jwtverify.ParseToken(token, h.jwtSecret)
	if err != nil {
		h.log.Debugf("ignoring invalid bearer token on upgrade: %v", err)
		return ""
	}
	return claims.Username
}
