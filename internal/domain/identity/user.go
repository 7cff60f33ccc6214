package identity

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tierhub/backend/internal/domain/shared"
	"golang.org/x/text/language"
)

// Role is the authorization role of a user
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

const (
	// DefaultAPIMaxCalls is the quota granted to a user before any tier is assigned
	DefaultAPIMaxCalls = 100
	DefaultLanguage    = "en"
)

// SupportedLanguages lists the locales a user may select
var SupportedLanguages = []string{"en", "fr", "es", "de"}

var (
	ErrUserNotFound        = shared.NewDomainError("USER_NOT_FOUND", "User not found")
	ErrUnsupportedLanguage = shared.NewDomainError("UNSUPPORTED_LANGUAGE", "Language is not supported")
)

// User is an account linked to an external identity provider.
// Exactly one user exists per external identity id.
type User struct {
	shared.BaseAggregateRoot
	ExternalID      string
	Email           string
	Name            string
	Language        string
	Role            Role
	APICallsCount   int
	APIMaxCalls     int
	FirstConnection time.Time
	LastConnection  time.Time
}

// NewUser creates a user for the given external identity
func NewUser(externalID, email, name string) (*User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_ID", "External identity id cannot be empty")
	}
	now := time.Now()
	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ExternalID:        externalID,
		Email:             strings.ToLower(strings.TrimSpace(email)),
		Name:              strings.TrimSpace(name),
		Language:          DefaultLanguage,
		Role:              RoleUser,
		APIMaxCalls:       DefaultAPIMaxCalls,
		FirstConnection:   now,
		LastConnection:    now,
	}, nil
}

// UpdateProfile refreshes the identity fields fetched from the provider
func (u *User) UpdateProfile(email, name string) {
	u.Email = strings.ToLower(strings.TrimSpace(email))
	u.Name = strings.TrimSpace(name)
	u.touchVersion()
}

// SetLanguage accepts any BCP 47 tag whose base language is supported, such
// as "FR", "de-AT" or "es_419", and stores the base language
func (u *User) SetLanguage(tag string) error {
	base, ok := supportedBase(tag)
	if !ok {
		return ErrUnsupportedLanguage
	}
	u.Language = base
	u.touchVersion()
	return nil
}

func supportedBase(tag string) (string, bool) {
	t, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return "", false
	}
	base, conf := t.Base()
	if conf == language.No {
		return "", false
	}
	return base.String(), slices.Contains(SupportedLanguages, base.String())
}

// PromoteToAdmin grants the admin role
func (u *User) PromoteToAdmin() {
	u.Role = RoleAdmin
	u.touchVersion()
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// GrantQuota replaces the API allowance. Usage never carries over.
func (u *User) GrantQuota(tokens int) {
	u.APIMaxCalls = tokens
	u.APICallsCount = 0
	u.touchVersion()
}

// RecordAPICall consumes one call from the allowance
func (u *User) RecordAPICall() error {
	if u.APICallsCount >= u.APIMaxCalls {
		return shared.ErrQuotaExceeded
	}
	u.APICallsCount++
	u.touchVersion()
	return nil
}

// RemainingCalls returns the calls left in the current allowance
func (u *User) RemainingCalls() int {
	if u.APICallsCount >= u.APIMaxCalls {
		return 0
	}
	return u.APIMaxCalls - u.APICallsCount
}

// MarkSeen stamps the last connection time
func (u *User) MarkSeen(at time.Time) {
	u.LastConnection = at
	u.UpdatedAt = at
}

func (u *User) touchVersion() {
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// UserRepository defines persistence operations for users
type UserRepository interface {
	// FindByID finds a user by internal id
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByExternalID finds a user by external identity id
	FindByExternalID(ctx context.Context, externalID string) (*User, error)

	// FindByExternalIDForUpdate finds a user and locks the row until the surrounding transaction ends.
	// Write use cases for one user take this lock first so they run one at a time.
	FindByExternalIDForUpdate(ctx context.Context, externalID string) (*User, error)

	// Save creates or updates a user
	Save(ctx context.Context, user *User) error

	// SaveProfile writes only the email, name, language and last connection
	// of an existing user, leaving role and quota columns untouched.
	// Returns ErrUserNotFound when no row matches the external id.
	SaveProfile(ctx context.Context, user *User) error

	// Delete removes a user
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the total number of users
	Count(ctx context.Context) (int64, error)

	// IncrementAPICalls atomically consumes one call if the allowance is not exhausted.
	// Returns shared.ErrQuotaExceeded when the counter has reached the quota.
	IncrementAPICalls(ctx context.Context, externalID string) (*User, error)

	// ListFirstConnectionsSince returns signup timestamps at or after since
	ListFirstConnectionsSince(ctx context.Context, since time.Time) ([]time.Time, error)
}
