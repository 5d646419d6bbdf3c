package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive-backend/internal/server/metrics"
	"github.com/taskhive/taskhive-backend/internal/store"
	"github.com/taskhive/taskhive-backend/internal/tasks"
	"github.com/taskhive/taskhive-backend/pkg/types"
)

// SubmitWork handles POST /api/submissions
func (h *Handler) SubmitWork(c *gin.Context) {
	var req tasks.SubmitWorkRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	sub, err := h.tasks.SubmitWork(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	metrics.SubmissionsTotal.Inc()
	c.JSON(http.StatusCreated, sub)
}

// GetSubmission handles GET /api/submissions/:id
func (h *Handler) GetSubmission(c *gin.Context) {
	sub, err := h.store.GetSubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// ListSubmissions handles GET /api/submissions with optional task_id,
// worker_id and status filters.
func (h *Handler) ListSubmissions(c *gin.Context) {
	filter := store.SubmissionFilter{
		TaskID:   c.Query("task_id"),
		WorkerID: c.Query("worker_id"),
		Status:   types.SubmissionStatus(c.Query("status")),
	}

	list, err := h.store.ListSubmissions(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": list, "count": len(list)})
}

// VerifySubmission handles POST /api/admin/verify/:id
func (h *Handler) VerifySubmission(c *gin.Context) {
	result, err := h.verification.VerifyOne(c.Request.Context(), c.Param("id"))
	metrics.VerificationsTotal.WithLabelValues(string(result.Outcome)).Inc()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// VerifyAllSubmissions handles POST /api/admin/verify
func (h *Handler) VerifyAllSubmissions(c *gin.Context) {
	results, err := h.verification.VerifyAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	for _, res := range results {
		metrics.VerificationsTotal.WithLabelValues(string(res.Outcome)).Inc()
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}
