package router

import (
	"github.com/evmarket/backend/internal/interfaces/http/handler"
	"github.com/evmarket/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// SettlementHandlers groups the handlers behind the settlement API
type SettlementHandlers struct {
	Settlements *handler.SettlementHandler
	Analytics   *handler.AnalyticsHandler
	Admin       *handler.SettlementAdminHandler
	// Outbox exposes dead letter management; nil leaves it unrouted
	Outbox *handler.OutboxHandler
	// RequestLimiter throttles settlement creation per vendor; nil disables it
	RequestLimiter *middleware.RateLimiter
}

// SettlementGroups builds the vendor-scoped and admin route groups.
// Vendor routes validate :vendor_id against the caller's token; lifecycle,
// hold, audit and outbox routes require the admin role.
func SettlementGroups(h SettlementHandlers) []RouteRegistrar {
	admin := middleware.RequireAdmin()

	create := []gin.HandlerFunc{h.Settlements.Request}
	if h.RequestLimiter != nil {
		create = append([]gin.HandlerFunc{middleware.RateLimitByVendor(h.RequestLimiter)}, create...)
	}

	vendors := NewDomainGroup("vendors", "/vendors/:vendor_id").Use(middleware.VendorScope())
	vendors.
		GET("/analytics", h.Analytics.GetAnalytics).
		GET("/balance", h.Analytics.GetBalance).
		POST("/settlements", create...).
		GET("/settlements", h.Settlements.List).
		GET("/settlements/audit", admin, h.Admin.Audit).
		GET("/settlements/:id", h.Settlements.Get).
		GET("/settlement-hold", admin, h.Admin.GetHold).
		DELETE("/settlement-hold", admin, h.Admin.ReleaseHold)

	lifecycle := NewDomainGroup("settlements", "/settlements/:id").Use(admin)
	lifecycle.
		POST("/processing", h.Admin.MarkProcessing).
		POST("/complete", h.Admin.Complete).
		POST("/reject", h.Admin.Reject)

	groups := []RouteRegistrar{vendors, lifecycle}
	if h.Outbox != nil {
		system := NewDomainGroup("outbox", "/system/outbox").Use(admin)
		system.
			GET("/stats", h.Outbox.GetStats).
			GET("/dead", h.Outbox.GetDeadLetterEntries).
			POST("/dead/retry-all", h.Outbox.RetryAllDeadEntries).
			GET("/:id", h.Outbox.GetEntry).
			POST("/:id/retry", h.Outbox.RetryDeadEntry)
		groups = append(groups, system)
	}
	return groups
}
