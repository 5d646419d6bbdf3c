package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetBudget handles GET /api/budget
func (h *Handler) GetBudget(c *gin.Context) {
	budget, err := h.ledger.Get(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, budget)
}

// RefreshBudget handles POST /api/admin/budget/refresh
func (h *Handler) RefreshBudget(c *gin.Context) {
	budget, err := h.ledger.Refresh(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, budget)
}

// ClaimRewards handles POST /api/admin/budget/claim
func (h *Handler) ClaimRewards(c *gin.Context) {
	budget, err := h.ledger.ClaimRewards(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, budget)
}
