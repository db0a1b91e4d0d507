package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/careerguide/internal/services"
	"github.com/yoockh/careerguide/internal/utils"
)

type ConversationHandler struct {
	svc services.ConversationService
}

func NewConversationHandler(svc services.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type createConversationRequest struct {
	ID  string `json:"id"`
	UID string `json:"uid"`
}

type conversationIDRequest struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
}

func (h *ConversationHandler) Create(c *gin.Context) {
	var req createConversationRequest
	if !bindJSON(c, "ConversationHandler.Create", &req) {
		return
	}

	conv, err := h.svc.Create(c.Request.Context(), req.ID, userIDFrom(c, req.UID))
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusCreated, conv)
}

// History lists the turns of one conversation, oldest first.
func (h *ConversationHandler) History(c *gin.Context) {
	var req conversationIDRequest
	if !bindJSON(c, "ConversationHandler.History", &req) {
		return
	}

	rows, err := h.svc.History(c.Request.Context(), req.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(rows) == 0 {
		writeEmpty(c, "No history found for this conversation")
		return
	}
	writeData(c, http.StatusOK, rows)
}

// Timeline lists the turns newest first along with the latest one.
func (h *ConversationHandler) Timeline(c *gin.Context) {
	const op = "ConversationHandler.Timeline"

	var req conversationIDRequest
	if !bindJSON(c, op, &req) {
		return
	}

	rows, err := h.svc.Timeline(c.Request.Context(), req.ConversationID)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(rows) == 0 {
		writeError(c, utils.E(utils.CodeNotFound, op, "No conversation history found for this conversation", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"conversationId": req.ConversationID,
		"latestMessage":  rows[0],
		"history":        rows,
	})
}

// ListIDs lists a user's conversation ids, newest first. The body's "id" is
// the user id.
func (h *ConversationHandler) ListIDs(c *gin.Context) {
	var req conversationIDRequest
	if !bindJSON(c, "ConversationHandler.ListIDs", &req) {
		return
	}

	ids, err := h.svc.ListIDs(c.Request.Context(), userIDFrom(c, req.ID))
	if err != nil {
		writeError(c, err)
		return
	}
	if len(ids) == 0 {
		writeEmpty(c, "No conversations found")
		return
	}
	writeData(c, http.StatusOK, ids)
}

// References serves the stored references of one turn; ?limit returns only
// the first n.
func (h *ConversationHandler) References(c *gin.Context) {
	const op = "ConversationHandler.References"

	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "limit must be a non-negative integer", err))
			return
		}
		limit = n
	}

	refs, err := h.svc.References(c.Request.Context(), c.Param("id"), c.Param("history_id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, refs)
}
