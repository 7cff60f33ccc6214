package billing

import (
	"context"
	"errors"

	"github.com/tierhub/backend/internal/domain/billing"
	"github.com/tierhub/backend/internal/domain/catalog"
	"github.com/tierhub/backend/internal/domain/identity"
)

// UserDetails is the plan status view of a user. Subscription and Tier are nil
// when the user has no active subscription.
type UserDetails struct {
	User         *identity.User
	Subscription *billing.Subscription
	Tier         *catalog.Tier
}

// EntitlementService answers what a user is entitled to right now. It never writes.
type EntitlementService struct {
	userRepo         identity.UserRepository
	subscriptionRepo billing.SubscriptionRepository
}

// NewEntitlementService creates a new EntitlementService
func NewEntitlementService(userRepo identity.UserRepository, subscriptionRepo billing.SubscriptionRepository) *EntitlementService {
	return &EntitlementService{
		userRepo:         userRepo,
		subscriptionRepo: subscriptionRepo,
	}
}

// GetActiveSubscription returns the active subscription with its tier and the tier's products.
// Returns billing.ErrSubscriptionNotFound when the user has none.
func (s *EntitlementService) GetActiveSubscription(ctx context.Context, userID string) (*billing.Subscription, error) {
	return s.subscriptionRepo.FindActiveByUser(ctx, userID)
}

// GetUserDetails combines the user's identity fields with the active tier, if any
func (s *EntitlementService) GetUserDetails(ctx context.Context, userID string) (*UserDetails, error) {
	user, err := s.userRepo.FindByExternalID(ctx, userID)
	if err != nil {
		return nil, err
	}

	details := &UserDetails{User: user}
	sub, err := s.subscriptionRepo.FindActiveByUser(ctx, userID)
	switch {
	case errors.Is(err, billing.ErrSubscriptionNotFound):
		return details, nil
	case err != nil:
		return nil, err
	}
	details.Subscription = sub
	details.Tier = sub.Tier
	return details, nil
}

// HasProductAccess reports whether the user's active tier bundles the product
func (s *EntitlementService) HasProductAccess(ctx context.Context, userID string, product *catalog.Product) (bool, error) {
	sub, err := s.subscriptionRepo.FindActiveByUser(ctx, userID)
	if errors.Is(err, billing.ErrSubscriptionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sub.Tier != nil && sub.Tier.IncludesProduct(product.ID), nil
}
