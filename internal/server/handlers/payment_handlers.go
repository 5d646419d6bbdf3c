package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive-backend/internal/server/metrics"
	"github.com/taskhive/taskhive-backend/internal/settlement"
	"github.com/taskhive/taskhive-backend/internal/store"
	"github.com/taskhive/taskhive-backend/pkg/types"
)

// GetPayment handles GET /api/payments/:id
func (h *Handler) GetPayment(c *gin.Context) {
	payment, err := h.store.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// ListPayments handles GET /api/payments with optional status and worker_id
// filters.
func (h *Handler) ListPayments(c *gin.Context) {
	filter := store.PaymentFilter{
		Status:   types.PaymentStatus(c.Query("status")),
		WorkerID: c.Query("worker_id"),
	}

	list, err := h.store.ListPayments(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": list, "count": len(list)})
}

// SettlePayment handles POST /api/admin/settle/:id
func (h *Handler) SettlePayment(c *gin.Context) {
	result, err := h.settlement.SettleOne(c.Request.Context(), c.Param("id"))
	trackSettlement(result)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SettleAllPayments handles POST /api/admin/settle
func (h *Handler) SettleAllPayments(c *gin.Context) {
	results, err := h.settlement.SettleAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	for _, res := range results {
		trackSettlement(res)
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

func trackSettlement(res settlement.SettleResult) {
	if !res.Status.IsTerminal() {
		return
	}
	metrics.SettlementsTotal.WithLabelValues(string(res.Status)).Inc()
	if res.Status == types.PaymentStatusCompleted {
		metrics.AmountPaidOutTotal.Add(res.Amount.InexactFloat64())
	}
}
