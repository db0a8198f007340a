package handler

import (
	"errors"
	"log"
	"net/http"

	"nthanda/internal/repository"
	"nthanda/pkg/catalog"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	txns    *repository.TransactionRepository
	catalog *catalog.Client // nil when no upstream catalog is configured
}

func NewOrderHandler(txns *repository.TransactionRepository, cat *catalog.Client) *OrderHandler {
	return &OrderHandler{txns: txns, catalog: cat}
}

// Get returns the payment state for an order reference, merged with the
// catalog's fulfilment view when one is available.
func (h *OrderHandler) Get(c *gin.Context) {
	reference := c.Param("reference")
	txn, err := h.txns.GetByReference(reference)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown reference"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	resp := gin.H{
		"reference":    txn.Reference,
		"gateway":      txn.Gateway,
		"status":       txn.Status,
		"amount_minor": txn.AmountMinor,
		"currency":     txn.Currency,
		"amount":       txn.Amount().String(),
		"created_at":   txn.CreatedAt,
	}
	if txn.VerifiedAt != nil {
		resp["verified_at"] = txn.VerifiedAt
	}
	if h.catalog != nil {
		if order, err := h.catalog.GetOrder(c.Request.Context(), reference); err == nil {
			resp["fulfilment_status"] = order.Status
			resp["items"] = order.Items
		} else {
			log.Printf("[ORDERS] catalog order lookup failed reference=%s: %v", reference, err)
		}
	}
	c.JSON(http.StatusOK, resp)
}
