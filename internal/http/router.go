package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/http/handlers"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/http/middleware"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/logger"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/metrics"
)

// Handlers groups every endpoint handler the router mounts
type Handlers struct {
	Auth          *handlers.AuthHandlers
	Listings      *handlers.ListingHandlers
	Admin         *handlers.AdminHandlers
	Purchases     *handlers.PurchaseHandlers
	Notifications *handlers.NotificationHandlers
	Policies      *handlers.PolicyHandlers
}

// Deps is the cross-cutting machinery wrapped around the handlers
type Deps struct {
	Log      *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Limiter  *middleware.RateLimiter
	JWT      *middleware.AuthMW
	Casbin   middleware.CasbinMiddleware
}

func BuildRouter(h Handlers, d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), logger.Middleware(d.Log), d.Metrics.Middleware())
	if d.Limiter != nil {
		r.Use(d.Limiter.Middleware())
	}

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// public
	r.GET("/categories", h.Listings.Categories)
	r.GET("/listings", h.Listings.Feed)
	r.GET("/listings/:id", d.JWT.OptionalJWT(), h.Listings.Get)
	r.GET("/packages", h.Purchases.Packages)

	auth := r.Group("/auth")
	auth.POST("/otp/send", h.Auth.SendOTP)
	auth.POST("/otp/verify", h.Auth.VerifyOTP)
	auth.POST("/refresh", h.Auth.Refresh)

	r.POST("/payments/telr/callback", h.Purchases.Callback)
	r.GET("/payments/return/:token", h.Purchases.Return)

	v := r.Group("/", d.JWT.WithJWT(), d.Casbin.Enforce())
	v.GET("/auth/me", h.Auth.Me)
	v.POST("/auth/logout", h.Auth.Logout)

	v.GET("/me/credits", h.Purchases.Credits)
	v.GET("/me/listings", h.Listings.Mine)
	v.GET("/me/transactions", h.Purchases.History)

	v.POST("/listings", h.Listings.Create)
	v.PUT("/listings/:id", h.Listings.Edit)
	v.DELETE("/listings/:id", h.Listings.Delete)
	v.POST("/listings/:id/renew", h.Listings.Renew)
	v.POST("/listings/:id/sold", h.Listings.MarkSold)

	v.GET("/notifications", h.Notifications.List)
	v.GET("/notifications/unread-count", h.Notifications.UnreadCount)
	v.POST("/notifications/read-all", h.Notifications.MarkAllRead)
	v.POST("/notifications/:id/read", h.Notifications.MarkRead)
	v.DELETE("/notifications/:id", h.Notifications.Delete)

	v.POST("/payments/checkout", h.Purchases.Checkout)
	v.POST("/payments/verify", h.Purchases.Verify)

	adm := r.Group("/admin", d.JWT.WithJWT(), d.Casbin.Enforce())
	adm.GET("/listings/pending", h.Admin.Pending)
	adm.POST("/listings/:id/approve", h.Admin.Approve)
	adm.POST("/listings/:id/reject", h.Admin.Reject)
	adm.DELETE("/listings/:id", h.Admin.DeleteListing)
	adm.POST("/credits/grant", h.Admin.GrantCredits)
	adm.GET("/settings/credits", h.Admin.GetCreditsSetting)
	adm.PUT("/settings/credits", h.Admin.SetCreditsSetting)
	adm.POST("/packages", h.Admin.CreatePackage)
	adm.DELETE("/packages/:id", h.Admin.DeactivatePackage)
	adm.POST("/notifications/broadcast", h.Admin.Broadcast)
	adm.GET("/policies", h.Policies.List)
	adm.POST("/policies", h.Policies.Add)
	adm.DELETE("/policies", h.Policies.Remove)

	return r
}

// WithCORS wraps the engine for browser clients. No origins means same-origin only.
func WithCORS(next http.Handler, origins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", logger.RequestIDHeader},
		ExposedHeaders:   []string{logger.RequestIDHeader},
		AllowCredentials: true,
	})
	return c.Handler(next)
}
