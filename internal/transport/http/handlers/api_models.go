package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agrisense/gatekeeper/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionPayload describes a session view in API responses.
type SessionPayload struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// LoginResponse describes a successful login.
type LoginResponse struct {
	Token     string         `json:"token"`
	TokenType string         `json:"token_type"`
	Session   SessionPayload `json:"session"`
}

// SessionListResponse wraps all live sessions.
type SessionListResponse struct {
	Sessions []SessionPayload `json:"sessions"`
	Total    int              `json:"total"`
}

// AccountPayload is the public view of a directory record. The password is
// never echoed back.
type AccountPayload struct {
	Username string `json:"username"`
	Mobile   string `json:"mobile,omitempty"`
	Farm     string `json:"farm,omitempty"`
}

// AccountListResponse wraps the directory snapshot.
type AccountListResponse struct {
	Accounts []AccountPayload `json:"accounts"`
	Total    int              `json:"total"`
}

// AccountCreateRequest defines the payload for registering a new account.
type AccountCreateRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Mobile   string `json:"mobile"`
	Farm     string `json:"farm"`
}

// AccountUpdateRequest carries an optional username and/or password change
// for the caller's own account.
type AccountUpdateRequest struct {
	NewUsername string `json:"new_username"`
	NewPassword string `json:"new_password"`
}

// PolicyPayload mirrors the access window configuration.
type PolicyPayload struct {
	Start   string `json:"start" binding:"required"`
	End     string `json:"end" binding:"required"`
	Message string `json:"message"`
}

// PolicyResponse wraps the configured policy; Policy is null when access is
// unrestricted.
type PolicyResponse struct {
	Policy *PolicyPayload `json:"policy"`
}

// AdminMessageRequest defines the contact-admin payload.
type AdminMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// AdminMessagePayload is the stored message view.
type AdminMessagePayload struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// AdminMessageListResponse wraps inbox messages.
type AdminMessageListResponse struct {
	Messages []AdminMessagePayload `json:"messages"`
	Total    int                   `json:"total"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func newSessionPayload(session domain.SessionState) SessionPayload {
	return SessionPayload{
		ID:        session.ID,
		Username:  session.Username,
		Role:      session.Role,
		CreatedAt: session.CreatedAt,
	}
}

func newAccountPayload(record domain.UserRecord) AccountPayload {
	return AccountPayload{
		Username: record.Username,
		Mobile:   record.Mobile,
		Farm:     record.Farm,
	}
}

func newAdminMessagePayload(message domain.AdminMessage) AdminMessagePayload {
	return AdminMessagePayload{
		ID:        message.ID,
		Username:  message.Username,
		Text:      message.Text,
		CreatedAt: message.CreatedAt,
		Read:      message.Read,
	}
}
