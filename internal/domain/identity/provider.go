package identity

import "context"

// Profile is the identity data returned by the external identity provider
type Profile struct {
	Email string
	Name  string
}

// ProfileProvider resolves profiles from the external identity provider
type ProfileProvider interface {
	// FetchProfile returns the profile for an external identity id.
	// Returns ErrUserNotFound when the provider does not know the id.
	FetchProfile(ctx context.Context, externalID string) (*Profile, error)
}
