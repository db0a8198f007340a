package router

import (
	"log"
	"time"

	"nthanda/config"
	"nthanda/internal/checkout"
	"nthanda/internal/domain"
	"nthanda/internal/handler"
	"nthanda/internal/middleware"
	"nthanda/internal/repository"
	"nthanda/internal/subscription"
	"nthanda/internal/ws"
	"nthanda/pkg/catalog"
	"nthanda/pkg/gateway"
	"nthanda/pkg/rates"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps carries the shared pieces main builds before the router: the rate
// table keeps refreshing in the background, and the payments hub is also fed
// by the expiry worker.
type Deps struct {
	Rates    *rates.Table
	Hub      *ws.PaymentsHub
	Adapters []gateway.Adapter
}

func Setup(cfg *config.Config, db *gorm.DB, deps Deps) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Skip gin.Logger() to reduce log noise; use gin.Default() if you need request logging
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	txnRepo := repository.NewTransactionRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)

	var cat *catalog.Client
	if cfg.Catalog.BaseURL != "" {
		cat = catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.APIKey)
	} else {
		log.Printf("[CATALOG] no upstream configured; price cross-checks disabled")
	}

	// Services
	checkoutSvc := checkout.NewService(txnRepo, deps.Rates, deps.Adapters,
		cfg.Checkout.PendingMaxAge, cfg.Checkout.VerifyTimeout, deps.Hub)
	subMgr := subscription.NewManager(subRepo, txnRepo, checkoutSvc, subscription.PlanPricing{
		PlusMonthlyPence:    cfg.Plans.PlusMonthlyPence,
		PremiumMonthlyPence: cfg.Plans.PremiumMonthlyPence,
	})

	// Handlers
	checkoutHandler := handler.NewCheckoutHandler(cfg, checkoutSvc, cat)
	subscriptionHandler := handler.NewSubscriptionHandler(cfg, subMgr)
	orderHandler := handler.NewOrderHandler(txnRepo, cat)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		co := api.Group("/checkout")
		{
			co.POST("/initiate", checkoutHandler.Initiate)
			co.GET("/:reference/verify", checkoutHandler.Verify)
		}

		subs := api.Group("/subscriptions")
		subs.Use(authMw)
		{
			subs.POST("", subscriptionHandler.Subscribe)
			subs.POST("/confirm", subscriptionHandler.Confirm)
			subs.DELETE("", subscriptionHandler.Cancel)
			subs.GET("/me", subscriptionHandler.Status)
		}

		api.GET("/orders/:reference", authMw, orderHandler.Get)
	}

	r.GET("/ws/payments", ws.UpgradePaymentsWS(deps.Hub))

	return r
}

// BuildAdapters assembles one adapter per configured gateway. Gateways with
// no credentials fall back to stubs outside production so local checkout
// flows still work end to end.
func BuildAdapters(cfg *config.Config) []gateway.Adapter {
	var adapters []gateway.Adapter
	if cfg.Square.AccessToken != "" {
		adapters = append(adapters, gateway.NewSquareAdapter(cfg.Square.BaseURL, cfg.Square.AccessToken, cfg.Square.LocationID))
	} else if cfg.Server.Env != "production" {
		log.Printf("[GATEWAY] SQUARE_ACCESS_TOKEN not set; using stub adapter")
		adapters = append(adapters, gateway.NewStubAdapter(domain.GatewaySquare))
	}
	if cfg.PayChangu.SecretKey != "" {
		adapters = append(adapters, gateway.NewPayChanguAdapter(cfg.PayChangu.BaseURL, cfg.PayChangu.SecretKey))
	} else if cfg.Server.Env != "production" {
		log.Printf("[GATEWAY] PAYCHANGU_SECRET_KEY not set; using stub adapter")
		adapters = append(adapters, gateway.NewStubAdapter(domain.GatewayPayChangu))
	}
	return adapters
}
