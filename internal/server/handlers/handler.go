// Package handlers exposes the orchestration core over HTTP. Handlers do
// binding and response shaping only; all domain rules live in the managers
// and orchestrators they delegate to.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/taskhive/taskhive-backend/internal/ledger"
	"github.com/taskhive/taskhive-backend/internal/server/metrics"
	"github.com/taskhive/taskhive-backend/internal/settlement"
	"github.com/taskhive/taskhive-backend/internal/store"
	"github.com/taskhive/taskhive-backend/internal/tasks"
	"github.com/taskhive/taskhive-backend/internal/users"
	"github.com/taskhive/taskhive-backend/internal/verification"
	"github.com/taskhive/taskhive-backend/pkg/apperrors"
	"github.com/taskhive/taskhive-backend/pkg/logging"
)

type Handler struct {
	store        store.Store
	tasks        *tasks.Manager
	users        *users.Manager
	verification *verification.Orchestrator
	settlement   *settlement.Orchestrator
	ledger       *ledger.Service
	logger       logging.Logger
	validator    *validator.Validate
}

func NewHandler(
	entityStore store.Store,
	taskManager *tasks.Manager,
	userManager *users.Manager,
	verificationOrch *verification.Orchestrator,
	settlementOrch *settlement.Orchestrator,
	ledgerService *ledger.Service,
	logger logging.Logger,
) *Handler {
	return &Handler{
		store:        entityStore,
		tasks:        taskManager,
		users:        userManager,
		verification: verificationOrch,
		settlement:   settlementOrch,
		ledger:       ledgerService,
		logger:       logger,
		validator:    validator.New(),
	}
}

// respondError maps domain errors to their HTTP status. Anything outside the
// taxonomy is an internal error and its detail stays in the logs.
func (h *Handler) respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Kind == apperrors.KindInternal {
			h.logger.Errorf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if appErr.Kind == apperrors.KindCollaborator {
			metrics.CollaboratorErrorsTotal.WithLabelValues(collaboratorService(c.Request.URL.Path)).Inc()
		}
		c.JSON(appErr.HTTPStatus(), gin.H{"error": appErr.Message, "kind": appErr.Kind.String()})
		return
	}

	h.logger.Errorf("Unhandled error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// collaboratorService names the collaborator behind an admin route, for the
// collaborator error counter.
func collaboratorService(path string) string {
	switch {
	case strings.Contains(path, "/verify"):
		return "judge"
	case strings.Contains(path, "/settle"):
		return "treasury"
	case strings.Contains(path, "/budget"):
		return "rewards"
	}
	return "unknown"
}

// bindAndValidate binds the JSON body and runs struct validation, writing the
// 400 response itself on failure.
func (h *Handler) bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}
