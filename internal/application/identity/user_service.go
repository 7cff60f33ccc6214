package identity

import (
	"context"
	"errors"
	"time"

	appbilling "github.com/tierhub/backend/internal/application/billing"
	"github.com/tierhub/backend/internal/domain/identity"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// UserService handles identity sync and self-service user operations
type UserService struct {
	userRepo     identity.UserRepository
	provider     identity.ProfileProvider
	entitlements *appbilling.EntitlementService
	logger       *zap.Logger
	now          func() time.Time
	syncs        singleflight.Group
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	provider identity.ProfileProvider,
	entitlements *appbilling.EntitlementService,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:     userRepo,
		provider:     provider,
		entitlements: entitlements,
		logger:       logger,
		now:          time.Now,
	}
}

// SyncResult reports the outcome of an identity sync
type SyncResult struct {
	User    *identity.User
	Created bool
}

// Sync pulls the profile from the identity provider and creates or refreshes the
// local user. The very first user becomes an administrator. Concurrent syncs of
// the same identity share one provider round trip.
func (s *UserService) Sync(ctx context.Context, externalID string) (*SyncResult, error) {
	v, err, _ := s.syncs.Do(externalID, func() (interface{}, error) {
		return s.sync(ctx, externalID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*SyncResult), nil
}

func (s *UserService) sync(ctx context.Context, externalID string) (*SyncResult, error) {
	profile, err := s.provider.FetchProfile(ctx, externalID)
	if err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByExternalID(ctx, externalID)
	switch {
	case err == nil:
		return s.refresh(ctx, existing, profile)
	case !errors.Is(err, identity.ErrUserNotFound):
		return nil, err
	}

	user, err := identity.NewUser(externalID, profile.Email, profile.Name)
	if err != nil {
		return nil, err
	}
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		user.PromoteToAdmin()
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		// A concurrent sync may have inserted the same identity first.
		if raced, findErr := s.userRepo.FindByExternalID(ctx, externalID); findErr == nil {
			return s.refresh(ctx, raced, profile)
		}
		return nil, err
	}

	s.logger.Info("user created from identity provider",
		zap.String("user_id", externalID),
		zap.Bool("admin", user.IsAdmin()))
	return &SyncResult{User: user, Created: true}, nil
}

func (s *UserService) refresh(ctx context.Context, user *identity.User, profile *identity.Profile) (*SyncResult, error) {
	user.UpdateProfile(profile.Email, profile.Name)
	if err := s.userRepo.SaveProfile(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Debug("user profile refreshed", zap.String("user_id", user.ExternalID))
	return &SyncResult{User: user}, nil
}

// GetMe returns the caller's details and stamps the last connection time.
// This is the only read path that records a visit.
func (s *UserService) GetMe(ctx context.Context, externalID string) (*appbilling.UserDetails, error) {
	user, err := s.userRepo.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	user.MarkSeen(s.now())
	if err := s.userRepo.SaveProfile(ctx, user); err != nil {
		return nil, err
	}
	return s.entitlements.GetUserDetails(ctx, externalID)
}

// UpdateLanguage changes the caller's locale
func (s *UserService) UpdateLanguage(ctx context.Context, externalID, language string) (*identity.User, error) {
	user, err := s.userRepo.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if err := user.SetLanguage(language); err != nil {
		return nil, err
	}
	if err := s.userRepo.SaveProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RecordAPICall consumes one API call from the caller's allowance
func (s *UserService) RecordAPICall(ctx context.Context, externalID string) (*identity.User, error) {
	return s.userRepo.IncrementAPICalls(ctx, externalID)
}

// IsAdmin reports whether the user holds the admin role
func (s *UserService) IsAdmin(ctx context.Context, externalID string) (bool, error) {
	user, err := s.userRepo.FindByExternalID(ctx, externalID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}
