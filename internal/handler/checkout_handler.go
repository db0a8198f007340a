package handler

import (
	"errors"
	"log"
	"net/http"

	"nthanda/config"
	"nthanda/internal/checkout"
	"nthanda/internal/domain"
	"nthanda/internal/pricing"
	"nthanda/internal/repository"
	"nthanda/pkg/catalog"
	"nthanda/pkg/gateway"

	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	cfg     *config.Config
	svc     *checkout.Service
	catalog *catalog.Client // nil disables price cross-checks
}

func NewCheckoutHandler(cfg *config.Config, svc *checkout.Service, cat *catalog.Client) *CheckoutHandler {
	return &CheckoutHandler{cfg: cfg, svc: svc, catalog: cat}
}

type checkoutItemReq struct {
	ItemID         string `json:"item_id" binding:"required"`
	Name           string `json:"name"`
	UnitPricePence int64  `json:"unit_price_pence"`
	Quantity       int    `json:"quantity" binding:"required,min=1"`
	Variant        string `json:"variant"`
}

// Initiate opens a checkout session and returns the redirect target. The
// caller performs the actual redirect; this endpoint never navigates.
func (h *CheckoutHandler) Initiate(c *gin.Context) {
	var req struct {
		Items         []checkoutItemReq `json:"items"`
		CountryCode   string            `json:"country_code"`
		CustomerEmail string            `json:"customer_email"`
		SuccessURL    string            `json:"success_url"`
		CancelURL     string            `json:"cancel_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SuccessURL == "" {
		req.SuccessURL = h.cfg.Checkout.SuccessURL
	}
	if req.CancelURL == "" {
		req.CancelURL = h.cfg.Checkout.CancelURL
	}
	items := make([]domain.CartLine, 0, len(req.Items))
	for _, it := range req.Items {
		line := domain.CartLine{
			ItemID:    it.ItemID,
			Name:      it.Name,
			UnitPrice: domain.NewMoney(it.UnitPricePence, domain.CurrencyGBP),
			Quantity:  it.Quantity,
			Variant:   it.Variant,
		}
		// The catalog's canonical price wins over whatever the client sent.
		if h.catalog != nil {
			if p, err := h.catalog.GetProduct(c.Request.Context(), it.ItemID); err == nil {
				if p.PricePence != it.UnitPricePence {
					log.Printf("[CHECKOUT] price mismatch item=%s client=%d catalog=%d", it.ItemID, it.UnitPricePence, p.PricePence)
				}
				line.UnitPrice = domain.NewMoney(p.PricePence, domain.CurrencyGBP)
				if line.Name == "" {
					line.Name = p.Name
				}
			} else {
				log.Printf("[CHECKOUT] catalog lookup failed item=%s: %v", it.ItemID, err)
			}
		}
		items = append(items, line)
	}
	sess, err := h.svc.Initiate(c.Request.Context(), checkout.InitiateRequest{
		Items:         items,
		CountryCode:   req.CountryCode,
		CustomerEmail: req.CustomerEmail,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		Description:   "Nthanda order",
	})
	if err != nil {
		writePaymentError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"reference":    sess.Reference,
		"redirect_url": sess.RedirectURL,
		"gateway":      sess.Gateway,
		"currency":     sess.Currency,
		"total_minor":  sess.Total.AmountMinor,
		"total":        sess.Total.String(),
	})
}

// Verify re-enters a checkout attempt by reference after the external
// redirect. PENDING-equivalent states are reported as-is; callers re-poll.
func (h *CheckoutHandler) Verify(c *gin.Context) {
	reference := c.Param("reference")
	gw, err := domain.ParseGateway(c.Query("gateway"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := h.svc.Verify(c.Request.Context(), reference, gw)
	if err != nil {
		writePaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reference": reference,
		"status":    status,
		"final":     status.IsTerminal(),
	})
}

// writePaymentError maps the payment error taxonomy onto HTTP statuses with
// enough structure for the caller to render something actionable.
func writePaymentError(c *gin.Context, err error) {
	var priceErr *pricing.InvalidPriceError
	var rejected *gateway.RejectedError
	var unavailable *gateway.UnavailableError
	var timeout *gateway.VerifyTimeoutError
	switch {
	case errors.As(err, &priceErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": priceErr.Error(), "item_id": priceErr.ItemID})
	case errors.As(err, &rejected):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":           err.Error(),
			"gateway":         rejected.Gateway,
			"provider_status": rejected.StatusCode,
		})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "gateway": unavailable.Gateway, "retryable": true})
	case errors.As(err, &timeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error(), "gateway": timeout.Gateway, "retryable": true})
	case errors.Is(err, repository.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown reference"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
