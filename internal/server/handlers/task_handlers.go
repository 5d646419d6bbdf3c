package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive-backend/internal/server/metrics"
	"github.com/taskhive/taskhive-backend/internal/store"
	"github.com/taskhive/taskhive-backend/internal/tasks"
	"github.com/taskhive/taskhive-backend/pkg/types"
)

// CreateTask handles POST /api/tasks (admin)
func (h *Handler) CreateTask(c *gin.Context) {
	var req tasks.CreateTaskRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	metrics.TasksCreatedTotal.Inc()
	c.JSON(http.StatusCreated, task)
}

// GetTask handles GET /api/tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	task, err := h.tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// ListTasks handles GET /api/tasks with optional status, assigned_to and
// category filters.
func (h *Handler) ListTasks(c *gin.Context) {
	filter := store.TaskFilter{
		Status:     types.TaskStatus(c.Query("status")),
		AssignedTo: c.Query("assigned_to"),
		Category:   c.Query("category"),
	}

	list, err := h.tasks.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": list, "count": len(list)})
}

type claimTaskRequest struct {
	WorkerID string `json:"worker_id" validate:"required"`
}

// ClaimTask handles POST /api/tasks/:id/claim
func (h *Handler) ClaimTask(c *gin.Context) {
	var req claimTaskRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	task, err := h.tasks.Claim(c.Request.Context(), c.Param("id"), req.WorkerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// CancelTask handles POST /api/admin/tasks/:id/cancel
func (h *Handler) CancelTask(c *gin.Context) {
	task, err := h.tasks.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}
