package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/infra/security"
	"github.com/agrisense/gatekeeper/internal/usecase"
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// newErrorResponse creates an error response with trace ID
func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// RequireSession validates the Authorization header and loads the backing
// session. A valid token whose session was cleared by the watchdog fails
// here with 401, which is how a terminated client learns it is logged out.
func RequireSession(authService *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "invalid authorization format: expected 'Bearer <token>'"))
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing session token"))
			return
		}

		session, err := authService.Validate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrSessionGone):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "session terminated"))
			case errors.Is(err, security.ErrInvalidToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "invalid session token"))
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					newErrorResponse(c, "authentication failed"))
			}
			return
		}

		c.Set(SessionKey, *session)

		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.Username = session.Username
		}

		c.Next()
	}
}

// RequireAdmin rejects non-administrative sessions. Must run after
// RequireSession.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "authentication required"))
			return
		}

		if !session.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden,
				newErrorResponse(c, "administrator access required"))
			return
		}

		c.Next()
	}
}

// GetSession retrieves the authenticated session from context (helper for
// handlers).
func GetSession(c *gin.Context) (domain.SessionState, bool) {
	value, exists := c.Get(SessionKey)
	if !exists {
		return domain.SessionState{}, false
	}

	session, ok := value.(domain.SessionState)
	return session, ok
}
