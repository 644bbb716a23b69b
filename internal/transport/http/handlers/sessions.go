package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrisense/gatekeeper/internal/repository"
	"github.com/agrisense/gatekeeper/internal/transport/http/middleware"
	"github.com/agrisense/gatekeeper/internal/usecase"
)

// SessionHandler exposes administrative session management.
type SessionHandler struct {
	auth *usecase.AuthService
}

// NewSessionHandler constructs a session handler.
func NewSessionHandler(auth *usecase.AuthService) *SessionHandler {
	return &SessionHandler{auth: auth}
}

// RegisterRoutes binds session management routes. The group must already
// require an administrative session.
func (h *SessionHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.listSessions)
	r.DELETE("/:session_id", h.revokeSession)
}

func (h *SessionHandler) listSessions(c *gin.Context) {
	sessions, err := h.auth.ListSessions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list sessions"))
		return
	}

	payloads := make([]SessionPayload, 0, len(sessions))
	for _, session := range sessions {
		payloads = append(payloads, newSessionPayload(session))
	}

	c.JSON(http.StatusOK, SessionListResponse{Sessions: payloads, Total: len(payloads)})
}

func (h *SessionHandler) revokeSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	actor := ""
	if session, ok := middleware.GetSession(c); ok {
		actor = session.Username
	}

	if err := h.auth.RevokeSession(c.Request.Context(), sessionID, actor); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "session not found"},
		}, http.StatusInternalServerError, "failed to revoke session")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "session revoked"})
}
