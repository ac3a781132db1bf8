package websocket

import (
	"context"
	"sync"
	"time"

	gorillaWS "github.com/gorilla/websocket"

	"chat-relay/internal/common/logger"
	messagerepo "chat-relay/internal/message/repository"
	"chat-relay/internal/observability/metrics"
	"chat-relay/internal/relay/broadcast"
)

// Timings collects the per-connection deadlines. PingPeriod must be shorter
// than PongWait or the peer is declared dead before it is ever pinged.
type Timings struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	InsertTimeout  time.Duration
}

// Client owns one websocket connection: the read pump ingests frames,
// persists them and hands them to the fan-out channel; the write pump
// drains the connection's subscription back onto the wire. Each pump is
// the sole user of its side of the connection.
type Client struct {
	conn     *gorillaWS.Conn
	sub      *broadcast.Subscription
	channel  *broadcast.Channel
	messages messagerepo.Repository
	username string
	timings  Timings
	log      *logger.Logger

	closeOnce sync.Once
}

func NewClient(
	conn *gorillaWS.Conn,
	channel *broadcast.Channel,
	messages messagerepo.Repository,
	username string,
	timings Timings,
	log *logger.Logger,
) *Client {
	return &Client{
		conn:     conn,
		sub:      channel.Subscribe(),
		channel:  channel,
		messages: messages,
		username: username,
		timings:  timings,
		log:      log,
	}
}

func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer c.teardown("read_closed")

	c.conn.SetReadLimit(c.timings.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.timings.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.timings.PongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if gorillaWS.IsUnexpectedCloseError(err, gorillaWS.CloseGoingAway, gorillaWS.CloseNormalClosure) {
				c.log.Warnf("websocket read error: %v", err)
			}
			return
		}

		c.handleFrame(raw)
	}
}

// handleFrame applies the inbound pipeline: decode, parse the timestamp,
// persist, then publish the original frame bytes so every subscriber sees
// the message exactly as it arrived. Frames that are not chat messages
// (including the bearer token some clients send right after connecting)
// fail the decode and are dropped without closing the connection.
func (c *Client) handleFrame(raw []byte) {
	msg, ok := decodeChatMessage(raw)
	if !ok {
		c.log.Debugf("dropping undecodable frame (%d bytes)", len(raw))
		metrics.MessagesDroppedTotal.WithLabelValues("decode").Inc()
		return
	}

	record, err := msg.toDomain()
	if err != nil {
		c.log.WithFields(context.Background(), logger.Fields{
			"username": msg.Username,
			"action":   "frame_bad_timestamp",
		}).Warnf("dropping frame with bad timestamp %q: %v", msg.Timestamp, err)
		metrics.MessagesDroppedTotal.WithLabelValues("timestamp").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timings.InsertTimeout)
	err = c.messages.Insert(ctx, record)
	cancel()
	if err != nil {
		// Do not relay what could not be persisted; the peer reconnects
		// and replays history instead of diverging from it.
		c.log.WithFields(context.Background(), logger.Fields{
			"username": msg.Username,
			"action":   "frame_persist_failed",
		}).Errorf("message insert failed, closing connection: %v", err)
		metrics.MessagesDroppedTotal.WithLabelValues("storage").Inc()
		c.teardown("storage_error")
		return
	}

	c.channel.Publish(raw)
	metrics.MessagesRelayedTotal.Inc()
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.timings.PingPeriod)
	defer func() {
		ticker.Stop()
		c.teardown("write_closed")
	}()

	for {
		select {
		case payload, ok := <-c.sub.C():
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.timings.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(gorillaWS.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(gorillaWS.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.timings.WriteWait))
			if err := c.conn.WriteMessage(gorillaWS.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// teardown is connection-local: it detaches this client's subscription and
// closes this client's socket, nothing else. Cancelling the subscription
// closes its channel, which unblocks the write pump; closing the socket
// unblocks the read pump. Whichever pump dies first drags the other down.
func (c *Client) teardown(cause string) {
	c.closeOnce.Do(func() {
		c.sub.Cancel()
		_ = c.conn.Close()

		metrics.WebSocketConnectionsActive.Dec()
		metrics.WebSocketDisconnections.WithLabelValues(cause).Inc()

		c.log.WithFields(context.Background(), logger.Fields{
			"username": c.username,
			"cause":    cause,
			"action":   "websocket_disconnect",
		}).Info("websocket connection closed")
	})
}
