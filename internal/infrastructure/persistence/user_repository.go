package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tierhub/backend/internal/domain/identity"
	"github.com/tierhub/backend/internal/domain/shared"
	"github.com/tierhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository stores identity users and their API quota counters
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) users(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.UserModel{})
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return firstAs[models.UserModel, identity.User](r.db.WithContext(ctx).Where("id = ?", id), identity.ErrUserNotFound)
}

func (r *GormUserRepository) FindByExternalID(ctx context.Context, externalID string) (*identity.User, error) {
	return r.findByExternalID(r.db.WithContext(ctx), externalID)
}

// FindByExternalIDForUpdate locks the user row until the surrounding
// transaction ends
func (r *GormUserRepository) FindByExternalIDForUpdate(ctx context.Context, externalID string) (*identity.User, error) {
	return r.findByExternalID(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), externalID)
}

func (r *GormUserRepository) findByExternalID(db *gorm.DB, externalID string) (*identity.User, error) {
	return firstAs[models.UserModel, identity.User](db.Where("external_id = ?", externalID), identity.ErrUserNotFound)
}

// Save upserts by primary key
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Save(models.UserModelFromDomain(user)).Error
}

// SaveProfile updates the profile columns by external id. Quota and role are
// owned by the locked reconciliation paths and are never written here.
func (r *GormUserRepository) SaveProfile(ctx context.Context, user *identity.User) error {
	res := r.users(ctx).
		Where("external_id = ?", user.ExternalID).
		UpdateColumns(map[string]any{
			"email":           user.Email,
			"name":            user.Name,
			"language":        user.Language,
			"last_connection": user.LastConnection,
			"updated_at":      time.Now(),
			"version":         gorm.Expr("version + 1"),
		})
	switch {
	case res.Error != nil:
		return res.Error
	case res.RowsAffected == 0:
		return identity.ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.UserModel{}, "id = ?", id)
	switch {
	case res.Error != nil:
		return res.Error
	case res.RowsAffected == 0:
		return identity.ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.users(ctx).Count(&n).Error
	return n, err
}

// IncrementAPICalls consumes one call. The quota check and the increment are
// one conditional UPDATE, so concurrent callers never overshoot api_max_calls.
func (r *GormUserRepository) IncrementAPICalls(ctx context.Context, externalID string) (*identity.User, error) {
	res := r.users(ctx).
		Where("external_id = ? AND api_calls_count < api_max_calls", externalID).
		Updates(map[string]any{
			"api_calls_count": gorm.Expr("api_calls_count + 1"),
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}

	// re-read to tell an unknown user apart from an exhausted quota
	user, err := r.findByExternalID(r.db.WithContext(ctx), externalID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, shared.ErrQuotaExceeded
	}
	return user, nil
}

// ListFirstConnectionsSince returns signup timestamps at or after since
func (r *GormUserRepository) ListFirstConnectionsSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var stamps []time.Time
	err := r.users(ctx).
		Where("first_connection >= ?", since).
		Order("first_connection").
		Pluck("first_connection", &stamps).Error
	return stamps, err
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
