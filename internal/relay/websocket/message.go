package websocket

import (
	"encoding/json"
	"time"

	"chat-relay/internal/common/constants"
	messagedomain "chat-relay/internal/message/domain"
)

// ChatMessage is the wire format exchanged over the socket. Timestamps
// travel as RFC3339 strings and are parsed at this boundary.
type ChatMessage struct {
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func decodeChatMessage(raw []byte) (ChatMessage, bool) {
	var msg ChatMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ChatMessage{}, false
	}
	return msg, true
}

func (m ChatMessage) toDomain() (messagedomain.Message, error) {
	ts, err := time.Parse(constants.MessageTimestampFormat, m.Timestamp)
	if err != nil {
		return messagedomain.Message{}, err
	}

	return messagedomain.Message{
		Username:  m.Username,
		Content:   m.Content,
		Timestamp: ts,
	}, nil
}
