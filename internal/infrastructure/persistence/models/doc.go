// Package models holds the GORM rows behind the domain aggregates and the
// conversions in both directions. Table names follow the existing schema:
// users, tiers, products, tier_product_association, user_subscriptions and
// payments.
package models
