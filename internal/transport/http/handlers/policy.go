package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/usecase"
)

// PolicyHandler exposes access window administration.
type PolicyHandler struct {
	policy *usecase.PolicyService
}

// NewPolicyHandler constructs a PolicyHandler.
func NewPolicyHandler(policy *usecase.PolicyService) *PolicyHandler {
	return &PolicyHandler{policy: policy}
}

// RegisterRoutes binds policy routes. The group must already require an
// administrative session.
func (h *PolicyHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.getPolicy)
	r.PUT("", h.setPolicy)
	r.DELETE("", h.clearPolicy)
}

func (h *PolicyHandler) getPolicy(c *gin.Context) {
	policy, err := h.policy.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load policy"))
		return
	}

	response := PolicyResponse{}
	if policy != nil {
		response.Policy = &PolicyPayload{
			Start:   policy.Start,
			End:     policy.End,
			Message: policy.Message,
		}
	}
	c.JSON(http.StatusOK, response)
}

func (h *PolicyHandler) setPolicy(c *gin.Context) {
	var req PolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "start and end are required"))
		return
	}

	policy := domain.AccessPolicy{
		Start:   req.Start,
		End:     req.End,
		Message: req.Message,
	}
	if err := h.policy.Set(c.Request.Context(), policy); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidClock):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "times must be HH:MM in 24-hour form"))
		case errors.Is(err, domain.ErrEmptyWindow):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "start and end must differ"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to save policy"))
		}
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "policy saved"})
}

func (h *PolicyHandler) clearPolicy(c *gin.Context) {
	if err := h.policy.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to clear policy"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "policy cleared"})
}
