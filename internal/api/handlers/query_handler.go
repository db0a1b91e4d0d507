package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/careerguide/internal/services"
)

type QueryHandler struct {
	svc services.QueryService
}

func NewQueryHandler(svc services.QueryService) *QueryHandler {
	return &QueryHandler{svc: svc}
}

// QueryRequest is the body of POST /query and of websocket "query" messages.
type QueryRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversationId"`
	IsFollowUp     bool   `json:"isFollowUp"`
	ID             string `json:"id"`
	UserID         string `json:"userId"`
}

func (r QueryRequest) input(userID string) services.AskInput {
	return services.AskInput{
		Question:       r.Question,
		ConversationID: r.ConversationID,
		ClientID:       r.ID,
		IsFollowUp:     r.IsFollowUp,
		UserID:         userID,
	}
}

func (h *QueryHandler) Query(c *gin.Context) {
	var req QueryRequest
	if !bindJSON(c, "QueryHandler.Query", &req) {
		return
	}

	res, err := h.svc.Ask(c.Request.Context(), req.input(userIDFrom(c, req.UserID)))
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, res)
}
