package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agrisense/gatekeeper/internal/repository"
	"github.com/agrisense/gatekeeper/internal/transport/http/middleware"
	"github.com/agrisense/gatekeeper/internal/usecase"
)

// MessageHandler exposes the contact-admin inbox.
type MessageHandler struct {
	inbox *usecase.InboxService
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(inbox *usecase.InboxService) *MessageHandler {
	return &MessageHandler{inbox: inbox}
}

// RegisterSubmitRoute binds the customer-facing submission route. The group
// must already require a session.
func (h *MessageHandler) RegisterSubmitRoute(r *gin.RouterGroup) {
	r.POST("", h.submit)
}

// RegisterAdminRoutes binds the inbox review routes. The group must already
// require an administrative session.
func (h *MessageHandler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("", h.list)
	r.POST("/:message_id/read", h.markRead)
}

func (h *MessageHandler) submit(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req AdminMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "message text is required"))
		return
	}

	message, err := h.inbox.Submit(c.Request.Context(), session.Username, req.Text)
	if err != nil {
		if errors.Is(err, usecase.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "message text is required"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to submit message"))
		return
	}

	c.JSON(http.StatusCreated, newAdminMessagePayload(*message))
}

func (h *MessageHandler) list(c *gin.Context) {
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))

	messages, err := h.inbox.List(c.Request.Context(), unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list messages"))
		return
	}

	payloads := make([]AdminMessagePayload, 0, len(messages))
	for _, message := range messages {
		payloads = append(payloads, newAdminMessagePayload(message))
	}

	c.JSON(http.StatusOK, AdminMessageListResponse{Messages: payloads, Total: len(payloads)})
}

func (h *MessageHandler) markRead(c *gin.Context) {
	messageID := c.Param("message_id")

	if err := h.inbox.MarkRead(c.Request.Context(), messageID); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "message not found"},
		}, http.StatusInternalServerError, "failed to mark message read")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "marked read"})
}
