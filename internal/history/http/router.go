package http

import (
	"net/http"

	"chat-relay/internal/common/constants"
	commonhttp "chat-relay/internal/common/http"
	"chat-relay/internal/common/logger"
	messagedomain "chat-relay/internal/message/domain"
	messagerepo "chat-relay/internal/message/repository"
)

type messageResponse struct {
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Handler serves the chat history. The reference contract uses POST and
// requires no credential; both are kept as-is.
type Handler struct {
	messages messagerepo.Repository
	log      *logger.Logger
}

func NewHandler(messages messagerepo.Repository, log *logger.Logger) http.Handler {
	h := &Handler{messages: messages, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("/messages", commonhttp.RequireMethod(http.MethodPost)(
		commonhttp.WithTimeout(constants.DefaultRequestTimeout)(h.listMessages)))
	return mux
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	messages, err := h.messages.List(ctx, constants.HistoryLimit)
	if err != nil {
		h.log.WithFields(ctx, logger.Fields{
			"action": "history_list_failed",
		}).Errorf("history query failed: %v", err)
		commonhttp.WriteError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	h.log.WithFields(ctx, logger.Fields{
		"count":  len(messages),
		"action": "history_list_success",
	}).Info("history query success")

	commonhttp.WriteJSON(w, http.StatusOK, toMessageResponses(messages))
}

func toMessageResponses(messages []messagedomain.Message) []messageResponse {
	result := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		result = append(result, messageResponse{
			Username:  m.Username,
			Content:   m.Content,
			Timestamp: m.Timestamp.Format(constants.MessageTimestampFormat),
		})
	}
	return result
}
