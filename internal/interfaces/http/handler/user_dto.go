package handler

import (
	"time"

	appbilling "github.com/tierhub/backend/internal/application/billing"
	"github.com/tierhub/backend/internal/domain/billing"
	"github.com/tierhub/backend/internal/domain/identity"
)

// UserResponse is the self-service view of a user
//
//	@Description	User account with API quota usage
type UserResponse struct {
	ID              string    `json:"id"`
	ClerkID         string    `json:"clerk_id" example:"user_2abc"`
	Email           string    `json:"email" example:"jane@example.com"`
	Name            string    `json:"name" example:"Jane Doe"`
	Language        string    `json:"language" example:"en"`
	Role            string    `json:"role" example:"user"`
	APICallsCount   int       `json:"api_calls_count" example:"12"`
	APIMaxCalls     int       `json:"api_max_calls" example:"100"`
	RemainingCalls  int       `json:"remaining_calls" example:"88"`
	FirstConnection time.Time `json:"first_connection"`
	LastConnection  time.Time `json:"last_connection"`
}

// SubscriptionResponse is a subscription with its tier
//
//	@Description	Active subscription binding a user to a tier
type SubscriptionResponse struct {
	ID                     string        `json:"id"`
	TierID                 string        `json:"tier_id"`
	StartDate              time.Time     `json:"start_date"`
	EndDate                time.Time     `json:"end_date"`
	IsActive               bool          `json:"is_active"`
	ExternalSubscriptionID string        `json:"external_subscription_id,omitempty" example:"sub_123"`
	Tier                   *TierResponse `json:"tier,omitempty"`
}

// UserDetailsResponse combines the user with the current plan
//
//	@Description	User with current subscription and tier, both absent when unsubscribed
type UserDetailsResponse struct {
	User         UserResponse          `json:"user"`
	Subscription *SubscriptionResponse `json:"subscription"`
	Tier         *TierResponse         `json:"tier"`
}

// SyncResponse reports the result of an identity sync
type SyncResponse struct {
	User    UserResponse `json:"user"`
	Created bool         `json:"created"`
}

// SyncRequest identifies the identity provider account to sync
type SyncRequest struct {
	ClerkID string `json:"clerk_id" binding:"required,max=255"`
}

// LanguageRequest selects the interface language. Any BCP 47 tag is accepted;
// its base language must be one of en, fr, es, de.
type LanguageRequest struct {
	Language string `json:"language" binding:"required,max=35" example:"fr-CA"`
}

// APICallResponse reports quota usage after a recorded call
type APICallResponse struct {
	APICallsCount  int `json:"api_calls_count" example:"13"`
	APIMaxCalls    int `json:"api_max_calls" example:"100"`
	RemainingCalls int `json:"remaining_calls" example:"87"`
}

func toUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:              u.ID.String(),
		ClerkID:         u.ExternalID,
		Email:           u.Email,
		Name:            u.Name,
		Language:        u.Language,
		Role:            string(u.Role),
		APICallsCount:   u.APICallsCount,
		APIMaxCalls:     u.APIMaxCalls,
		RemainingCalls:  u.RemainingCalls(),
		FirstConnection: u.FirstConnection,
		LastConnection:  u.LastConnection,
	}
}

func toSubscriptionResponse(s *billing.Subscription) *SubscriptionResponse {
	if s == nil {
		return nil
	}
	resp := &SubscriptionResponse{
		ID:                     s.ID.String(),
		TierID:                 s.TierID.String(),
		StartDate:              s.StartDate,
		EndDate:                s.EndDate,
		IsActive:               s.IsActive,
		ExternalSubscriptionID: s.ExternalSubscriptionID,
	}
	if s.Tier != nil {
		tier := toTierResponse(s.Tier)
		resp.Tier = &tier
	}
	return resp
}

func toUserDetailsResponse(d *appbilling.UserDetails) UserDetailsResponse {
	resp := UserDetailsResponse{
		User:         toUserResponse(d.User),
		Subscription: toSubscriptionResponse(d.Subscription),
	}
	if d.Tier != nil {
		tier := toTierResponse(d.Tier)
		resp.Tier = &tier
	}
	return resp
}
