package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/infra/security"
	"github.com/agrisense/gatekeeper/internal/repository"
	"github.com/agrisense/gatekeeper/internal/transport/http/middleware"
	"github.com/agrisense/gatekeeper/internal/usecase"
)

// AccountHandler exposes the directory: self-service endpoints for the
// authenticated account and administrative CRUD.
type AccountHandler struct {
	directory *usecase.DirectoryService
}

// NewAccountHandler constructs an AccountHandler.
func NewAccountHandler(directory *usecase.DirectoryService) *AccountHandler {
	return &AccountHandler{directory: directory}
}

// RegisterSelfRoutes binds the caller-scoped account routes. The group must
// already require a session.
func (h *AccountHandler) RegisterSelfRoutes(r *gin.RouterGroup) {
	r.GET("", h.getOwnAccount)
	r.PATCH("", h.updateOwnAccount)
}

// RegisterAdminRoutes binds directory management routes. The group must
// already require an administrative session.
func (h *AccountHandler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("", h.listAccounts)
	r.POST("", h.createAccount)
	r.DELETE("/:username", h.deleteAccount)
}

func (h *AccountHandler) getOwnAccount(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}
	if session.IsAdmin() {
		c.JSON(http.StatusForbidden, NewErrorResponse(c, "the administrator has no directory record"))
		return
	}

	record, err := h.directory.Resolve(c.Request.Context(), session.Username)
	if err != nil {
		if errors.Is(err, usecase.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "account not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load account"))
		return
	}

	c.JSON(http.StatusOK, newAccountPayload(*record))
}

func (h *AccountHandler) updateOwnAccount(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req AccountUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid update payload"))
		return
	}

	update := usecase.AccountUpdate{
		NewUsername: req.NewUsername,
		NewPassword: req.NewPassword,
	}
	err := h.directory.ApplyUpdate(c.Request.Context(), session.Username, session.Role, update)
	if err != nil {
		var validationErr *security.PasswordValidationError
		switch {
		case errors.Is(err, usecase.ErrAdminImmutable):
			c.JSON(http.StatusForbidden, NewErrorResponse(c, "the administrator account cannot be changed here"))
		case errors.Is(err, usecase.ErrNoChanges):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "no changes requested"))
		case errors.Is(err, usecase.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "account not found"))
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, validationErr.Error()))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to update account"))
		}
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "account updated"})
}

func (h *AccountHandler) listAccounts(c *gin.Context) {
	records, err := h.directory.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list accounts"))
		return
	}

	accounts := make([]AccountPayload, 0, len(records))
	for _, record := range records {
		accounts = append(accounts, newAccountPayload(record))
	}

	c.JSON(http.StatusOK, AccountListResponse{Accounts: accounts, Total: len(accounts)})
}

func (h *AccountHandler) createAccount(c *gin.Context) {
	var req AccountCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "username and password are required"))
		return
	}

	actor := ""
	if session, ok := middleware.GetSession(c); ok {
		actor = session.Username
	}

	record := domain.UserRecord{
		Username: req.Username,
		Password: req.Password,
		Mobile:   req.Mobile,
		Farm:     req.Farm,
	}
	if err := h.directory.Create(c.Request.Context(), record, actor); err != nil {
		var validationErr *security.PasswordValidationError
		switch {
		case errors.Is(err, usecase.ErrAccountExists):
			c.JSON(http.StatusConflict, NewErrorResponse(c, "an account with that username already exists"))
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, validationErr.Error()))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to create account"))
		}
		return
	}

	c.JSON(http.StatusCreated, AccountPayload{
		Username: req.Username,
		Mobile:   req.Mobile,
		Farm:     req.Farm,
	})
}

// deleteAccount removes a directory record. Any live session backed by the
// removed account is terminated by the watchdog within one polling interval.
func (h *AccountHandler) deleteAccount(c *gin.Context) {
	username := c.Param("username")

	actor := ""
	if session, ok := middleware.GetSession(c); ok {
		actor = session.Username
	}

	if err := h.directory.Delete(c.Request.Context(), username, actor); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "failed to delete account")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "account deleted"})
}
