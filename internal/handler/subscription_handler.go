package handler

import (
	"errors"
	"net/http"

	"nthanda/config"
	"nthanda/internal/domain"
	"nthanda/internal/middleware"
	"nthanda/internal/subscription"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	cfg *config.Config
	mgr *subscription.Manager
}

func NewSubscriptionHandler(cfg *config.Config, mgr *subscription.Manager) *SubscriptionHandler {
	return &SubscriptionHandler{cfg: cfg, mgr: mgr}
}

// Subscribe opens a checkout session for a paid tier. The tier is not
// activated until the payment is confirmed.
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userUID := middleware.GetUserUID(c)
	var req struct {
		Tier        string `json:"tier" binding:"required"`
		CountryCode string `json:"country_code"`
		SuccessURL  string `json:"success_url"`
		CancelURL   string `json:"cancel_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tier, err := domain.ParseTier(req.Tier)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SuccessURL == "" {
		req.SuccessURL = h.cfg.Checkout.SuccessURL
	}
	if req.CancelURL == "" {
		req.CancelURL = h.cfg.Checkout.CancelURL
	}
	sess, err := h.mgr.Subscribe(c.Request.Context(), userUID, tier, req.CountryCode, middleware.GetEmail(c), req.SuccessURL, req.CancelURL)
	if err != nil {
		if errors.Is(err, subscription.ErrDuplicateSubscription) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		writePaymentError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"reference":    sess.Reference,
		"redirect_url": sess.RedirectURL,
		"gateway":      sess.Gateway,
		"currency":     sess.Currency,
		"total_minor":  sess.Total.AmountMinor,
	})
}

// Confirm verifies the subscription payment and, when it settled, activates
// the tier. Safe to call repeatedly with the same reference.
func (h *SubscriptionHandler) Confirm(c *gin.Context) {
	var req struct {
		Reference string `json:"reference" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.mgr.Confirm(c.Request.Context(), req.Reference)
	if err != nil {
		if errors.Is(err, subscription.ErrNotSubscription) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		writePaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userUID := middleware.GetUserUID(c)
	if err := h.mgr.Cancel(c.Request.Context(), userUID); err != nil {
		if errors.Is(err, subscription.ErrNoActiveSubscription) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "subscription canceled", "tier": domain.TierFree})
}

func (h *SubscriptionHandler) Status(c *gin.Context) {
	userUID := middleware.GetUserUID(c)
	rec, err := h.mgr.Status(c.Request.Context(), userUID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tier":   rec.Tier,
		"status": rec.Status,
		"active": rec.IsActive(),
	})
}
