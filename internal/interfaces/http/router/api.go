package router

import (
	"github.com/tierhub/backend/internal/interfaces/http/handler"
)

// Handlers bundles the HTTP handlers mounted under the API group.
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Subscription *handler.SubscriptionHandler
	Webhook      *handler.StripeWebhookHandler
	Tier         *handler.TierHandler
	Product      *handler.ProductHandler
	Admin        *handler.AdminHandler
}

// APIGroups declares the public API. Webhook delivery, identity sync, catalog
// reads and access-token verification need no session.
func APIGroups(h Handlers) []*DomainGroup {
	auth := NewDomainGroup("auth", "/auth", Public)
	auth.POST("/sync", h.Auth.Sync)

	users := NewDomainGroup("users", "/users", Session)
	users.GET("/me", h.User.GetMe).
		PATCH("/language", h.User.UpdateLanguage).
		POST("/me/api-calls", h.User.RecordAPICall)

	payments := NewDomainGroup("payments", "/payments", Session)
	payments.POST("/create-checkout-session/:tierId", h.Subscription.CreateCheckoutSession).
		POST("/register-free-tier", h.Subscription.RegisterFreeTier).
		GET("/current-subscription", h.Subscription.GetCurrentSubscription).
		DELETE("/current-subscription", h.Subscription.CancelSubscription)
	payments.As(Public).POST("/webhook", h.Webhook.HandleStripeWebhook)

	tiers := NewDomainGroup("tiers", "/tiers", Public)
	tiers.GET("", h.Tier.List).GET("/:id", h.Tier.Get)
	tiers.As(Admin).
		POST("", h.Tier.Create).
		PUT("/:id", h.Tier.Update).
		DELETE("/:id", h.Tier.Delete)

	products := NewDomainGroup("products", "/products", Public)
	products.GET("", h.Product.List).
		GET("/:id", h.Product.Get).
		POST("/access-token/verify", h.Product.VerifyAccessToken)
	products.As(Session).POST("/:id/access-token", h.Product.IssueAccessToken)
	products.As(Admin).
		POST("", h.Product.Create).
		PUT("/:id", h.Product.Update).
		DELETE("/:id", h.Product.Delete)

	stats := NewDomainGroup("stats", "/stats", Admin)
	stats.GET("/revenue", h.Admin.TotalRevenue).
		GET("/revenue/:range", h.Admin.RevenueSeries).
		GET("/users/:range", h.Admin.NewUsersSeries)

	stripe := NewDomainGroup("stripe", "/stripe", Admin)
	stripe.GET("/prices", h.Admin.ListPrices).
		GET("/price/:priceId", h.Admin.GetPrice)

	return []*DomainGroup{auth, users, payments, tiers, products, stats, stripe}
}
